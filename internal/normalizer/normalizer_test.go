package normalizer_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/isometry/ncm-webhook-relay/internal/event"
	"github.com/isometry/ncm-webhook-relay/internal/helpers"
	"github.com/isometry/ncm-webhook-relay/internal/models"
	"github.com/isometry/ncm-webhook-relay/internal/normalizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(values ...string) []*string {
	out := make([]*string, len(values))
	for i, v := range values {
		out[i] = helpers.Ptr(v)
	}
	return out
}

func TestNormalize(t *testing.T) {
	testCases := []struct {
		Name      string
		Payload   *models.WebhookPayload
		Limits    normalizer.Limits
		Expected  []string
		EventType event.Type
		Reason    normalizer.Reason
	}{
		{
			Name:      "single_order_id",
			Payload:   &models.WebhookPayload{OrderID: helpers.Ptr("ORD1"), Event: "pickup_completed", Status: "picked"},
			Expected:  []string{"ORD1"},
			EventType: event.PickupCompleted,
		},
		{
			Name: "single_takes_precedence_over_batch",
			Payload: &models.WebhookPayload{
				OrderID:  helpers.Ptr("ORD1"),
				OrderIDs: ids("ORD2", "ORD3"),
				Event:    "order_arrived",
			},
			Expected:  []string{"ORD1"},
			EventType: event.OrderArrived,
		},
		{
			Name: "blank_single_falls_back_to_batch",
			Payload: &models.WebhookPayload{
				OrderID:  helpers.Ptr("   "),
				OrderIDs: ids("ORD2"),
				Event:    "order_arrived",
			},
			Expected:  []string{"ORD2"},
			EventType: event.OrderArrived,
		},
		{
			Name: "batch_drops_blank_and_null_entries",
			Payload: &models.WebhookPayload{
				OrderIDs: append(ids("ORD1", "", "ORD2"), nil),
				Event:    "DELIVERY_COMPLETED",
			},
			Expected:  []string{"ORD1", "ORD2"},
			EventType: event.DeliveryCompleted,
		},
		{
			Name:      "single_order_id_kept_as_sent",
			Payload:   &models.WebhookPayload{OrderID: helpers.Ptr(" ORD1 "), Event: "pickup_completed"},
			Expected:  []string{" ORD1 "},
			EventType: event.PickupCompleted,
		},
		{
			Name: "batch_entries_kept_as_sent",
			Payload: &models.WebhookPayload{
				OrderIDs: ids(" ORD1", "ORD2\t"),
				Event:    "order_arrived",
			},
			Expected:  []string{" ORD1", "ORD2\t"},
			EventType: event.OrderArrived,
		},
		{
			Name: "batch_repeats_do_not_count_towards_limit",
			Payload: &models.WebhookPayload{
				OrderIDs: ids("A", "A", "B"),
				Event:    "order_arrived",
			},
			Limits:    normalizer.Limits{MaxOrderIDs: 2},
			Expected:  []string{"A", "B"},
			EventType: event.OrderArrived,
		},
		{
			Name: "batch_drops_repeated_entries",
			Payload: &models.WebhookPayload{
				OrderIDs: ids("ORD1", "ORD2", " ORD1 ", "ORD3"),
				Event:    "sent_for_delivery",
			},
			Expected:  []string{"ORD1", "ORD2", "ORD3"},
			EventType: event.SentForDelivery,
		},
		{
			Name: "batch_truncated_to_limit",
			Payload: &models.WebhookPayload{
				OrderIDs: ids("A", "B", "C", "D"),
				Event:    "order_dispatched",
			},
			Limits:    normalizer.Limits{MaxOrderIDs: 2},
			Expected:  []string{"A", "B"},
			EventType: event.OrderDispatched,
		},
		{
			Name: "truncation_counts_only_usable_ids",
			Payload: &models.WebhookPayload{
				OrderIDs: ids("", "A", " ", "B", "C"),
				Event:    "order_dispatched",
			},
			Limits:    normalizer.Limits{MaxOrderIDs: 2},
			Expected:  []string{"A", "B"},
			EventType: event.OrderDispatched,
		},
		{
			Name:    "nil_payload",
			Payload: nil,
			Reason:  normalizer.NoValidOrderIDs,
		},
		{
			Name:    "no_order_ids",
			Payload: &models.WebhookPayload{Event: "pickup_completed"},
			Reason:  normalizer.NoValidOrderIDs,
		},
		{
			Name:    "only_blank_entries",
			Payload: &models.WebhookPayload{OrderID: helpers.Ptr(""), OrderIDs: append(ids(" ", ""), nil), Event: "pickup_completed"},
			Reason:  normalizer.NoValidOrderIDs,
		},
		{
			Name:    "unknown_event",
			Payload: &models.WebhookPayload{OrderID: helpers.Ptr("ORD1"), Event: "unknown_code"},
			Reason:  normalizer.UnknownEventType,
		},
		{
			Name:    "missing_ids_reported_before_unknown_event",
			Payload: &models.WebhookPayload{Event: "unknown_code"},
			Reason:  normalizer.NoValidOrderIDs,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			res, err := normalizer.Normalize(tc.Payload, tc.Limits)
			if tc.Reason != "" {
				var rejected *normalizer.RejectedError
				require.True(t, errors.As(err, &rejected), "expected rejection, got %v", err)
				assert.Equal(t, tc.Reason, rejected.Reason)
				assert.Nil(t, res)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, res.OrderIDs)
			assert.Equal(t, tc.EventType, res.EventType)
		})
	}
}

func TestNormalizeDefaultLimit(t *testing.T) {
	raw := make([]string, normalizer.DefaultMaxOrderIDs+25)
	for i := range raw {
		raw[i] = fmt.Sprintf("ORD%03d", i)
	}

	res, err := normalizer.Normalize(&models.WebhookPayload{OrderIDs: ids(raw...), Event: "order_arrived"}, normalizer.Limits{})
	require.NoError(t, err)
	assert.Equal(t, raw[:normalizer.DefaultMaxOrderIDs], res.OrderIDs)
}

func TestRejectedErrorMessage(t *testing.T) {
	assert.Equal(t, "payload rejected: no valid order ids",
		(&normalizer.RejectedError{Reason: normalizer.NoValidOrderIDs}).Error())
	assert.Equal(t, `payload rejected: unknown event type "boom"`,
		(&normalizer.RejectedError{Reason: normalizer.UnknownEventType, Event: "boom"}).Error())
}
