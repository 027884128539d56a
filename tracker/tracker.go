// Package tracker watches submitted transactions in the background and
// drives their ledger records from Pending to a terminal status.
package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tempoxyz/tempo-go"
	"github.com/tempoxyz/tempo-go/ledger"
)

// DefaultTimeout bounds how long a single transaction is watched. A
// transaction that has no receipt by then stays Pending in the ledger.
const DefaultTimeout = 2 * time.Minute

// Tracker follows submitted transactions to their terminal status.
type Tracker struct {
	submitter tempo.Submitter
	ledger    *ledger.Ledger
	timeout   time.Duration
	logger    *slog.Logger
	wg        sync.WaitGroup
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithTimeout overrides the per-transaction watch timeout.
func WithTimeout(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithLogger sets the logger for confirmation outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// New creates a Tracker that resolves statuses into the given ledger.
func New(submitter tempo.Submitter, l *ledger.Ledger, opts ...Option) *Tracker {
	t := &Tracker{
		submitter: submitter,
		ledger:    l,
		timeout:   DefaultTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Track starts watching a transaction in the background and returns
// immediately. When the receipt arrives the ledger record flips to
// Confirmed or Failed; on timeout or error the record stays Pending.
func (t *Tracker) Track(hash string) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.resolve(hash)
	}()
}

// Wait blocks until every tracked transaction has been resolved or timed
// out. Intended for shutdown and tests.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

func (t *Tracker) resolve(hash string) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	receipt, err := t.submitter.AwaitReceipt(ctx, hash)
	if err != nil {
		t.logger.Warn("transaction status unresolved",
			"hash", hash,
			"error", err,
		)
		return
	}

	status := tempo.StatusConfirmed
	if !receipt.Success {
		status = tempo.StatusFailed
	}
	if err := t.ledger.UpdateStatus(hash, status); err != nil {
		t.logger.Error("failed to record transaction status",
			"hash", hash,
			"status", status,
			"error", err,
		)
		return
	}
	t.logger.Info("transaction finalized", "hash", hash, "status", status)
}
