package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// OrderEvent is a single timeline entry: when the order reached a status and
// the human-readable description shown on the tracking page.
type OrderEvent struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
}

// OrderEvents is the per-order status timeline, persisted as a jsonb object
// keyed by status name. Keys are appended or overwritten, never deleted:
// re-cancelling an order does not erase the processing-date record.
type OrderEvents map[OrderStatus]OrderEvent

// Merged returns a copy of e with the entry for status set to
// {now, description}, preserving every other key untouched.
func (e OrderEvents) Merged(status OrderStatus, now time.Time, description string) OrderEvents {
	out := make(OrderEvents, len(e)+1)
	for k, v := range e {
		out[k] = v
	}
	out[status] = OrderEvent{Date: now, Description: description}
	return out
}

// Value implements driver.Valuer so the map round-trips through a jsonb
// column.
func (e OrderEvents) Value() (driver.Value, error) {
	if e == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(e)
}

// Scan implements sql.Scanner.
func (e *OrderEvents) Scan(src interface{}) error {
	if src == nil {
		*e = OrderEvents{}
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for OrderEvents: %T", src)
	}

	return json.Unmarshal(data, e)
}
