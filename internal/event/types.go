// Package event provides the closed set of courier status codes recognised by the relay.
package event

import (
	"strings"
)

// Type represents a recognised courier status change.
type Type string

const (
	// PickupCompleted represents a parcel collected from the vendor.
	PickupCompleted Type = "PICKUP_COMPLETED"
	// SentForDelivery represents a parcel handed to a rider for delivery.
	SentForDelivery Type = "SENT_FOR_DELIVERY"
	// OrderDispatched represents a parcel dispatched between branches.
	OrderDispatched Type = "ORDER_DISPATCHED"
	// OrderArrived represents a parcel arriving at the destination branch.
	OrderArrived Type = "ORDER_ARRIVED"
	// DeliveryCompleted represents a parcel delivered to the customer.
	DeliveryCompleted Type = "DELIVERY_COMPLETED"
)

var codes = map[Type]string{
	PickupCompleted:   "pickup_completed",
	SentForDelivery:   "sent_for_delivery",
	OrderDispatched:   "order_dispatched",
	OrderArrived:      "order_arrived",
	DeliveryCompleted: "delivery_completed",
}

// byCode is keyed by the lowercase event code.
var byCode = func() map[string]Type {
	m := make(map[string]Type, len(codes))
	for t, c := range codes {
		m[c] = t
	}
	return m
}()

// Code returns the canonical lowercase code of the event type, or an empty string for an unknown type.
func (t Type) Code() string {
	return codes[t]
}

// Resolve maps a raw event code to its Type. Matching ignores case and surrounding whitespace.
// Blank or unknown codes resolve to false.
func Resolve(code string) (Type, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return "", false
	}
	t, found := byCode[code]
	return t, found
}

// Types returns every recognised event type in declaration order.
func Types() []Type {
	return []Type{PickupCompleted, SentForDelivery, OrderDispatched, OrderArrived, DeliveryCompleted}
}
