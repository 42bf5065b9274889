// Package worker pushes unsynced records to an outbound publisher.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"meinbudget/internal/core"
	"meinbudget/internal/log"
	"meinbudget/internal/outbox"
)

// Source is the state manager surface the worker reads from and reports to.
type Source interface {
	Settings() core.Settings
	Transactions() []core.Transaction
	Credits() []core.Credit
	// Mark*Synced must leave the record unsynced when its UpdatedAt no
	// longer equals published.
	MarkTransactionSynced(ctx context.Context, id string, published time.Time) error
	MarkCreditSynced(ctx context.Context, id string, published time.Time) error
	UpdateSettings(ctx context.Context, patch core.SettingsPatch) (core.Settings, error)
}

type Config struct {
	// Interval between passes started by Start (default: 5m)
	Interval time.Duration
	// BatchSize caps the records published per pass (default: 50)
	BatchSize int
}

func DefaultConfig() Config {
	return Config{
		Interval:  5 * time.Minute,
		BatchSize: 50,
	}
}

// Result summarizes one pass.
type Result struct {
	Skipped   bool // sync disabled in settings
	Pending   int
	Published int
	Failed    int
}

type SyncWorker struct {
	source    Source
	publisher outbox.Publisher
	config    Config
	logger    *log.Logger
	now       func() time.Time

	passMu sync.Mutex // one pass at a time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSyncWorker(source Source, publisher outbox.Publisher, config Config, logger *log.Logger) *SyncWorker {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{
		source:    source,
		publisher: publisher,
		config:    config,
		logger:    logger.WithComponent(log.ComponentWorker),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RunOnce publishes up to BatchSize unsynced records, oldest change first.
// A record is marked synced only after its publish succeeded, and only if it
// was not edited while in flight. LastSync is
// recorded when the pass had no failures.
func (w *SyncWorker) RunOnce(ctx context.Context) (Result, error) {
	w.passMu.Lock()
	defer w.passMu.Unlock()

	if !w.source.Settings().SyncEnabled {
		w.logger.DebugContext(ctx, "Sync disabled in settings, skipping pass")
		return Result{Skipped: true}, nil
	}

	pending := w.pending()
	res := Result{Pending: len(pending)}
	if len(pending) > w.config.BatchSize {
		pending = pending[:w.config.BatchSize]
	}

	var errs []error
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := w.publisher.Publish(ctx, p.record); err != nil {
			res.Failed++
			errs = append(errs, err)
			w.logger.ErrorContext(ctx, "Failed to publish record",
				log.FieldCollection, p.record.Collection,
				log.FieldRecordID, p.record.ID,
				log.FieldError, err)
			continue
		}
		if err := p.mark(ctx, p.record.ID, p.record.UpdatedAt); err != nil {
			// Published but not marked: the next pass publishes it again,
			// which the publishers tolerate.
			w.logger.WarnContext(ctx, "Failed to mark record synced",
				log.FieldRecordID, p.record.ID,
				log.FieldError, err)
		}
		res.Published++
	}

	if res.Failed == 0 {
		now := w.now()
		if _, err := w.source.UpdateSettings(ctx, core.SettingsPatch{LastSync: &now}); err != nil {
			return res, fmt.Errorf("record last sync: %w", err)
		}
	}

	w.logger.InfoContext(ctx, "Sync pass completed",
		"pending", res.Pending,
		"published", res.Published,
		"failed", res.Failed)

	if len(errs) > 0 {
		return res, fmt.Errorf("%d of %d records failed: %w", res.Failed, len(pending), errors.Join(errs...))
	}
	return res, nil
}

type pendingRecord struct {
	record outbox.Record
	mark   func(ctx context.Context, id string, published time.Time) error
}

func (w *SyncWorker) pending() []pendingRecord {
	now := w.now()
	var out []pendingRecord
	for _, t := range w.source.Transactions() {
		if t.Synced {
			continue
		}
		rec, err := outbox.NewTransactionRecord(t, now)
		if err != nil {
			w.logger.Error("Failed to encode transaction", log.FieldRecordID, t.ID, log.FieldError, err)
			continue
		}
		out = append(out, pendingRecord{record: rec, mark: w.source.MarkTransactionSynced})
	}
	for _, c := range w.source.Credits() {
		if c.Synced {
			continue
		}
		rec, err := outbox.NewCreditRecord(c, now)
		if err != nil {
			w.logger.Error("Failed to encode credit", log.FieldRecordID, c.ID, log.FieldError, err)
			continue
		}
		out = append(out, pendingRecord{record: rec, mark: w.source.MarkCreditSynced})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].record.UpdatedAt.Before(out[j].record.UpdatedAt)
	})
	return out
}

// Start runs a pass immediately and then on every tick until Stop or ctx ends.
func (w *SyncWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("sync worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)

	w.logger.InfoContext(ctx, "Sync worker started",
		"interval", w.config.Interval,
		"batch_size", w.config.BatchSize)
	return nil
}

// Stop signals the loop and waits for the current pass to finish.
func (w *SyncWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stopCh)
	select {
	case <-doneCh:
		w.logger.InfoContext(ctx, "Sync worker stopped gracefully")
	case <-ctx.Done():
		w.logger.WarnContext(ctx, "Sync worker stop timed out")
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	return nil
}

func (w *SyncWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *SyncWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.pass(ctx)
	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pass(ctx)
		}
	}
}

func (w *SyncWorker) pass(ctx context.Context) {
	if _, err := w.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		w.logger.ErrorContext(ctx, "Sync pass failed", log.FieldError, err)
	}
}
