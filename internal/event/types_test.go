package event_test

import (
	"testing"

	"github.com/isometry/ncm-webhook-relay/internal/event"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	testCases := []struct {
		Name     string
		Input    string
		Expected event.Type
		Found    bool
	}{
		{Name: "lowercase", Input: "pickup_completed", Expected: event.PickupCompleted, Found: true},
		{Name: "uppercase", Input: "DELIVERY_COMPLETED", Expected: event.DeliveryCompleted, Found: true},
		{Name: "mixed_case_and_whitespace", Input: "  Order_Arrived\t", Expected: event.OrderArrived, Found: true},
		{Name: "sent_for_delivery", Input: "sent_for_delivery", Expected: event.SentForDelivery, Found: true},
		{Name: "order_dispatched", Input: "ORDER_dispatched", Expected: event.OrderDispatched, Found: true},
		{Name: "empty", Input: ""},
		{Name: "blank", Input: "   "},
		{Name: "unknown", Input: "unknown_code"},
		{Name: "partial", Input: "pickup"},
		{Name: "type_name_with_spaces", Input: "pickup completed"},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			got, found := event.Resolve(tc.Input)
			assert.Equal(t, tc.Found, found)
			assert.Equal(t, tc.Expected, got)
		})
	}
}

func TestTypesRoundTripThroughCode(t *testing.T) {
	types := event.Types()
	assert.Len(t, types, 5)
	for _, typ := range types {
		got, found := event.Resolve(typ.Code())
		assert.True(t, found, typ)
		assert.Equal(t, typ, got)
	}
}

func TestCodeOfUnknownType(t *testing.T) {
	assert.Empty(t, event.Type("NOPE").Code())
}
