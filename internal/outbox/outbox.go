// Package outbox defines the envelope the sync worker hands to outbound
// publishers and the port those publishers implement.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"meinbudget/internal/core"
	"meinbudget/internal/log"
)

// Record is one unsynced transaction or credit, serialized for export.
type Record struct {
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	Payload    json.RawMessage `json:"payload"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Publisher delivers records to an external system. Publish must be safe to
// repeat for the same record; the worker retries anything not marked synced.
type Publisher interface {
	Publish(ctx context.Context, rec Record) error
	Close() error
}

func NewTransactionRecord(t core.Transaction, now time.Time) (Record, error) {
	return newRecord(log.CollectionTransactions, t.ID, t.UpdatedAt, t, now)
}

func NewCreditRecord(c core.Credit, now time.Time) (Record, error) {
	return newRecord(log.CollectionCredits, c.ID, c.UpdatedAt, c, now)
}

func newRecord(collection, id string, updatedAt time.Time, v any, now time.Time) (Record, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return Record{}, fmt.Errorf("encode %s %s: %w", collection, id, err)
	}
	return Record{
		Collection: collection,
		ID:         id,
		UpdatedAt:  updatedAt,
		Payload:    payload,
		Timestamp:  now,
	}, nil
}

// Transaction decodes the payload of a transactions record.
func (r Record) Transaction() (core.Transaction, error) {
	var t core.Transaction
	if r.Collection != log.CollectionTransactions {
		return t, fmt.Errorf("record %s is a %s, not a transaction", r.ID, r.Collection)
	}
	if err := json.Unmarshal(r.Payload, &t); err != nil {
		return t, fmt.Errorf("decode transaction %s: %w", r.ID, err)
	}
	return t, nil
}

// Credit decodes the payload of a credits record.
func (r Record) Credit() (core.Credit, error) {
	var c core.Credit
	if r.Collection != log.CollectionCredits {
		return c, fmt.Errorf("record %s is a %s, not a credit", r.ID, r.Collection)
	}
	if err := json.Unmarshal(r.Payload, &c); err != nil {
		return c, fmt.Errorf("decode credit %s: %w", r.ID, err)
	}
	return c, nil
}
