package helpers_test

import (
	"testing"

	"github.com/isometry/ncm-webhook-relay/internal/helpers"
	"github.com/stretchr/testify/assert"
)

func TestPtr(t *testing.T) {
	testCases := []struct {
		Name  string
		Input any
	}{
		{Name: "nil", Input: nil},
		{Name: "order_id", Input: "ORD1"},
		{Name: "limit", Input: 100},
		{Name: "switch", Input: true},
		{Name: "order_ids", Input: []string{"ORD1", "ORD2"}},
		{Name: "nil_pointer", Input: (*string)(nil)},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			if tc.Input == nil {
				assert.Nil(t, helpers.Ptr(tc.Input))
			} else {
				assert.Equal(t, &tc.Input, helpers.Ptr(tc.Input))
			}
		})
	}
}
