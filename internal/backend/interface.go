package backend

import (
	"context"

	"meinbudget/internal/outbox"
	"meinbudget/internal/state"
)

// CleanupFunc releases the resources behind a Result.
type CleanupFunc func() error

// Result bundles the record store and the optional outbound publisher.
// Publisher is nil when no sync target is configured.
type Result struct {
	Store     state.RecordStore
	Publisher outbox.Publisher
	Cleanup   CleanupFunc
}

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Factory creates backends based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}
