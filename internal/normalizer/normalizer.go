// Package normalizer turns heterogeneous courier webhook payloads into a validated list of order ids and an event type.
package normalizer

import (
	"fmt"
	"strings"

	"github.com/isometry/ncm-webhook-relay/internal/event"
	"github.com/isometry/ncm-webhook-relay/internal/models"
)

// DefaultMaxOrderIDs is applied when Limits.MaxOrderIDs is not positive.
const DefaultMaxOrderIDs = 100

// Reason describes why a payload was rejected.
type Reason string

const (
	// NoValidOrderIDs is reported when neither order_id nor order_ids carry a usable id.
	NoValidOrderIDs Reason = "no valid order ids"
	// UnknownEventType is reported when the event code is blank or not recognised.
	UnknownEventType Reason = "unknown event type"
)

// RejectedError is returned for payloads that must be dropped.
type RejectedError struct {
	Reason Reason
	Event  string
}

func (e *RejectedError) Error() string {
	if e.Reason == UnknownEventType {
		return fmt.Sprintf("payload rejected: %s %q", e.Reason, e.Event)
	}
	return fmt.Sprintf("payload rejected: %s", e.Reason)
}

// Limits bounds the work accepted from a single webhook.
type Limits struct {
	MaxOrderIDs int
}

// Result holds the extracted order ids, in payload order, and the resolved event type.
type Result struct {
	OrderIDs  []string
	EventType event.Type
}

// Normalize extracts order ids from the payload and resolves its event type.
// A non-blank order_id takes precedence over order_ids. Blank and repeated batch entries are dropped
// and the remainder is truncated to Limits.MaxOrderIDs. Ids are returned as sent.
func Normalize(payload *models.WebhookPayload, limits Limits) (*Result, error) {
	if payload == nil {
		return nil, &RejectedError{Reason: NoValidOrderIDs}
	}
	orderIDs := ExtractOrderIDs(payload, limits)
	if len(orderIDs) == 0 {
		return nil, &RejectedError{Reason: NoValidOrderIDs}
	}

	eventType, found := event.Resolve(payload.Event)
	if !found {
		return nil, &RejectedError{Reason: UnknownEventType, Event: payload.Event}
	}

	return &Result{OrderIDs: orderIDs, EventType: eventType}, nil
}

// ExtractOrderIDs returns the usable order ids of the payload, or nil when there are none.
func ExtractOrderIDs(payload *models.WebhookPayload, limits Limits) []string {
	if payload.OrderID != nil {
		if strings.TrimSpace(*payload.OrderID) != "" {
			return []string{*payload.OrderID}
		}
	}
	if len(payload.OrderIDs) == 0 {
		return nil
	}

	maxIDs := limits.MaxOrderIDs
	if maxIDs <= 0 {
		maxIDs = DefaultMaxOrderIDs
	}

	var ids []string
	seen := make(map[string]struct{}, min(len(payload.OrderIDs), maxIDs))
	for _, raw := range payload.OrderIDs {
		if len(ids) == maxIDs {
			break
		}
		if raw == nil {
			continue
		}
		// Entries differing only by surrounding whitespace count as repeats.
		key := strings.TrimSpace(*raw)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		ids = append(ids, *raw)
	}
	return ids
}
