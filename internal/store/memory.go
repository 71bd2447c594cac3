package store

import (
	"context"
	"sync"
	"time"

	"quote-tracker/internal/market"
)

// MemoryLatest is an in-process Latest Store.
type MemoryLatest struct {
	mu      sync.RWMutex
	records map[string]market.Quote
	lastRun time.Time
}

func NewMemoryLatest() *MemoryLatest {
	return &MemoryLatest{records: make(map[string]market.Quote)}
}

func (m *MemoryLatest) PutLatest(_ context.Context, q market.Quote) error {
	if q.Symbol == "" {
		return ErrEmptySymbol
	}
	m.mu.Lock()
	m.records[q.Symbol] = q.Clone()
	m.mu.Unlock()
	return nil
}

func (m *MemoryLatest) GetLatest(_ context.Context, symbol string) (market.Quote, bool, error) {
	m.mu.RLock()
	q, ok := m.records[symbol]
	m.mu.RUnlock()
	if !ok {
		return market.Quote{}, false, nil
	}
	return q.Clone(), true, nil
}

func (m *MemoryLatest) LastRun(_ context.Context) (time.Time, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRun, !m.lastRun.IsZero(), nil
}

func (m *MemoryLatest) MarkRun(_ context.Context, at time.Time) error {
	m.mu.Lock()
	m.lastRun = at
	m.mu.Unlock()
	return nil
}

type memoryEntry struct {
	partition string
	quote     market.Quote
}

// MemoryHistory is an in-process History Store using the same partitioning as SQLiteHistory.
type MemoryHistory struct {
	part Partitioner

	mu      sync.RWMutex
	entries map[string][]memoryEntry
}

func NewMemoryHistory(part Partitioner) *MemoryHistory {
	return &MemoryHistory{part: part, entries: make(map[string][]memoryEntry)}
}

func (m *MemoryHistory) Append(_ context.Context, q market.Quote) error {
	if q.Symbol == "" {
		return ErrEmptySymbol
	}
	e := memoryEntry{partition: m.part.Key(q.TS), quote: q.Clone()}
	m.mu.Lock()
	m.entries[q.Symbol] = append(m.entries[q.Symbol], e)
	m.mu.Unlock()
	return nil
}

func (m *MemoryHistory) Query(_ context.Context, symbol, date string) ([]market.Quote, error) {
	var keys map[string]struct{}
	if date != "" {
		list, err := m.part.KeysForDate(date)
		if err != nil {
			return nil, err
		}
		keys = make(map[string]struct{}, len(list))
		for _, k := range list {
			keys[k] = struct{}{}
		}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []market.Quote{}
	for _, e := range m.entries[symbol] {
		if keys != nil {
			if _, ok := keys[e.partition]; !ok {
				continue
			}
		}
		out = append(out, e.quote.Clone())
	}
	return out, nil
}
