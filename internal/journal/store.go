// Package journal owns the recorded transaction list and bridges it to the
// external key-value store. The persisted value is shared with other writers
// without coordination: the poll loop replaces the in-memory list wholesale
// whenever the external value changes (last writer wins, no merge).
package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tally/internal/core"
	"tally/internal/kv"
)

const (
	// DefaultKey is the storage key holding the serialized transaction list.
	DefaultKey = "pos_transactions"

	// DefaultPollInterval bounds how stale an externally written list can be.
	DefaultPollInterval = 400 * time.Millisecond

	saveTimeout = 5 * time.Second
)

type Store struct {
	kv       kv.Store
	key      string
	interval time.Duration

	mu      sync.Mutex
	loaded  bool
	txs     []core.Transaction
	lastRaw string // last blob written or observed, for change detection
	saveSeq uint64

	saveMu     sync.Mutex
	flushedSeq uint64

	subMu sync.Mutex
	subs  []chan struct{}
}

func New(store kv.Store, key string, pollInterval time.Duration) *Store {
	if key == "" {
		key = DefaultKey
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Store{kv: store, key: key, interval: pollInterval}
}

// Load reads the persisted list. It fails soft: an absent key, a read error
// or a malformed blob all leave the store usable with an empty list. Safe to
// call more than once.
func (s *Store) Load(ctx context.Context) {
	raw, ok, err := s.kv.Get(ctx, s.key)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true

	if err != nil {
		slog.ErrorContext(ctx, "Journal load failed, starting empty", "key", s.key, "error", err)
		s.txs, s.lastRaw = nil, ""
		return
	}
	if !ok {
		s.txs, s.lastRaw = nil, ""
		return
	}

	txs, derr := decode(raw)
	if derr != nil {
		slog.WarnContext(ctx, "Malformed journal blob, starting empty", "key", s.key, "error", derr)
		// Remember the bad blob so the poll loop does not re-log it every tick.
		s.txs, s.lastRaw = nil, string(raw)
		return
	}
	s.txs = txs
	s.lastRaw = string(raw)
	slog.InfoContext(ctx, "Journal loaded", "key", s.key, "count", len(txs))
}

// List returns a copy of the current transaction list, newest first.
func (s *Store) List() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.txs))
	copy(out, s.txs)
	return out
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.txs)
}

// Append prepends the transaction (newest-first convention) and schedules a
// save. The save is fire-and-forget so the caller is never blocked on the
// external store.
func (s *Store) Append(ctx context.Context, tx core.Transaction) {
	s.mu.Lock()
	s.txs = append([]core.Transaction{tx}, s.txs...)
	s.scheduleSave()
	s.mu.Unlock()

	s.notify()
	slog.InfoContext(ctx, "Transaction recorded",
		"transaction_id", tx.ID,
		"item_name", tx.ItemName,
		"qty", tx.Qty,
		"total", tx.Total)
}

// Remove filters out the transaction with the given id and schedules a save.
// An unknown id is a no-op, not an error.
func (s *Store) Remove(ctx context.Context, id string) bool {
	s.mu.Lock()
	kept := make([]core.Transaction, 0, len(s.txs))
	removed := false
	for _, t := range s.txs {
		if t.ID == id {
			removed = true
			continue
		}
		kept = append(kept, t)
	}
	s.txs = kept
	s.scheduleSave()
	s.mu.Unlock()

	if removed {
		s.notify()
		slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id)
	} else {
		slog.DebugContext(ctx, "Delete of unknown transaction id ignored", "transaction_id", id)
	}
	return removed
}

// scheduleSave snapshots the list and writes it out on a goroutine. Must be
// called with s.mu held. Saves are skipped until the initial Load has run so
// a startup race cannot overwrite persisted data with an empty list.
func (s *Store) scheduleSave() {
	if !s.loaded {
		slog.Warn("Skipping journal save before initial load", "key", s.key)
		return
	}
	raw, err := encode(s.txs)
	if err != nil {
		slog.Error("Encode journal failed", "key", s.key, "error", err)
		return
	}
	s.lastRaw = string(raw)
	s.saveSeq++
	go s.flush(raw, s.saveSeq)
}

func (s *Store) flush(raw []byte, seq uint64) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if seq <= s.flushedSeq {
		// A newer snapshot already made it out.
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.kv.Set(ctx, s.key, raw); err != nil {
		slog.Error("Journal save failed", "key", s.key, "error", err)
	}
	// Advance even on failure: flushedSeq tracks attempted saves, and the
	// poll loop holds off only while one is in flight.
	s.flushedSeq = seq
}

// savePending reports whether a scheduled save has not yet hit the external
// store. While one is in flight the externally read value lags lastRaw and
// must not be treated as a foreign write.
func (s *Store) savePending() bool {
	s.saveMu.Lock()
	flushed := s.flushedSeq
	s.saveMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveSeq != flushed
}

// Run polls the external store until ctx is cancelled so that writes from
// other processes sharing the key are eventually observed.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

func (s *Store) pollOnce(ctx context.Context) {
	if s.savePending() {
		// Our own write is still on its way out. Comparing against the
		// external value now would transiently revert the local change.
		return
	}
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		slog.WarnContext(ctx, "Journal poll read failed", "key", s.key, "error", err)
		return
	}
	var rawStr string
	if ok {
		rawStr = string(raw)
	}

	s.mu.Lock()
	if s.loaded && rawStr == s.lastRaw {
		s.mu.Unlock()
		return
	}
	txs, derr := decode(raw)
	if derr != nil {
		slog.WarnContext(ctx, "Malformed journal blob observed, degrading to empty list", "key", s.key, "error", derr)
		txs = nil
	}
	count := len(txs)
	s.txs = txs
	s.lastRaw = rawStr
	s.loaded = true
	s.mu.Unlock()

	s.notify()
	slog.DebugContext(ctx, "Journal replaced from external write", "key", s.key, "count", count)
}

// Subscribe returns a channel that receives a signal whenever the in-memory
// list changes, either through local mutation or an observed external write.
// Notifications are coalesced; slow consumers never block the store.
func (s *Store) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	s.subs = append(s.subs, ch)
	s.subMu.Unlock()
	return ch
}

func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
