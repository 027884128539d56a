// Package ledger keeps the persisted, append-only record of submitted
// transactions. Records are written the moment a submission is accepted,
// while still Pending, and flipped exactly once to Confirmed or Failed
// when the outcome is known. History is bounded: the retention cap is a
// resource policy, not a promise of permanent history.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tempoxyz/tempo-go"
	"github.com/tempoxyz/tempo-go/store"
)

// DefaultCap is the default retention cap, most-recent-first.
const DefaultCap = 50

// Ledger is the transaction history for one account. Entries are scoped to
// the account's store key and never visible to another account's session.
type Ledger struct {
	mu      sync.Mutex
	store   store.Store
	key     string
	cap     int
	records []tempo.TransactionRecord
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithCap overrides the retention cap.
func WithCap(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.cap = n
		}
	}
}

// Open loads (or starts) the history for an account.
func Open(s store.Store, account common.Address, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		store: s,
		key:   fmt.Sprintf("history/%s", account.Hex()),
		cap:   DefaultCap,
	}
	for _, opt := range opts {
		opt(l)
	}

	data, err := s.Get(l.key)
	if errors.Is(err, store.ErrNotFound) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if err := json.Unmarshal(data, &l.records); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return l, nil
}

// Record prepends a new entry and trims history to the cap, dropping the
// oldest entries. The mutation is persisted before Record returns.
func (l *Ledger) Record(rec tempo.TransactionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append([]tempo.TransactionRecord{rec}, l.records...)
	if len(l.records) > l.cap {
		l.records = l.records[:l.cap]
	}
	return l.persist()
}

// UpdateStatus applies the one-way status transition to every record with
// the given hash (a batch writes one record per transfer, all sharing the
// bundle hash). Records already at a terminal status are left unchanged,
// so repeating a terminal update is a no-op. An unknown hash is also a
// no-op: a status update racing a restart that trimmed the record is
// tolerable, not an error.
func (l *Ledger) UpdateStatus(hash string, status tempo.TxStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	changed := false
	for i := range l.records {
		if l.records[i].Hash != hash || l.records[i].Status.Terminal() {
			continue
		}
		l.records[i].Status = status
		changed = true
	}
	if !changed {
		return nil
	}
	return l.persist()
}

// Records returns the history, most recent first.
func (l *Ledger) Records() []tempo.TransactionRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]tempo.TransactionRecord, len(l.records))
	copy(out, l.records)
	return out
}

// persist flushes the history; callers hold the lock.
func (l *Ledger) persist() error {
	data, err := json.Marshal(l.records)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := l.store.Set(l.key, data); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	return nil
}
