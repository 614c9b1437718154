package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// WebhookPayload is the courier webhook body as received. Batch entries may be null or blank.
type WebhookPayload struct {
	OrderID   *string    `json:"order_id,omitempty"`
	OrderIDs  []*string  `json:"order_ids,omitempty"`
	Status    string     `json:"status,omitempty"`
	Event     string     `json:"event,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// UnmarshalJSON accepts order ids sent either as JSON strings or as JSON numbers.
func (p *WebhookPayload) UnmarshalJSON(data []byte) error {
	type plain WebhookPayload
	aux := struct {
		*plain
		OrderID  *lenientString   `json:"order_id"`
		OrderIDs []*lenientString `json:"order_ids"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	p.OrderID = aux.OrderID.ptr()
	p.OrderIDs = nil
	if aux.OrderIDs != nil {
		p.OrderIDs = make([]*string, len(aux.OrderIDs))
		for i, id := range aux.OrderIDs {
			p.OrderIDs[i] = id.ptr()
		}
	}
	return nil
}

// lenientString decodes a JSON string, or a JSON number kept in its literal form.
type lenientString string

func (s *lenientString) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = lenientString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = lenientString(n.String())
	return nil
}

func (s *lenientString) ptr() *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}
