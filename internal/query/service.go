package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"quote-tracker/internal/market"
	"quote-tracker/internal/store"
)

//go:generate mockgen -destination=mock_readers_test.go -package=query_test . LatestReader,HistoryReader

const DefaultHistoryCap = 50

// historyQueryTimeout bounds a shared history query once it is detached from
// the caller that started it.
const historyQueryTimeout = 10 * time.Second

// ErrInvalidDate marks a malformed date filter.
var ErrInvalidDate = store.ErrInvalidDate

type LatestReader interface {
	GetLatest(ctx context.Context, symbol string) (market.Quote, bool, error)
}

type HistoryReader interface {
	Query(ctx context.Context, symbol, date string) ([]market.Quote, error)
}

// QueryError is a backing store failure, distinct from "no data".
type QueryError struct {
	Op     string
	Symbol string
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Symbol, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

type Service struct {
	latest  LatestReader
	history HistoryReader
	cap     int
	group   singleflight.Group
}

func NewService(latest LatestReader, history HistoryReader, historyCap int) *Service {
	if historyCap <= 0 {
		historyCap = DefaultHistoryCap
	}
	return &Service{latest: latest, history: history, cap: historyCap}
}

// GetLatest returns the stored record for symbol; ok is false when none
// exists or the stored record has no price.
func (s *Service) GetLatest(ctx context.Context, symbol string) (market.Quote, bool, error) {
	q, ok, err := s.latest.GetLatest(ctx, symbol)
	if err != nil {
		return market.Quote{}, false, &QueryError{Op: "get latest", Symbol: symbol, Err: err}
	}
	if !ok || !q.HasPrice() {
		return market.Quote{}, false, nil
	}
	return q, true, nil
}

// GetHistory returns at most limit records, most recent ts first. A limit
// outside (0, cap] falls back to the cap. Unknown symbols yield an empty slice.
func (s *Service) GetHistory(ctx context.Context, symbol, date string, limit int) ([]market.Quote, error) {
	if err := store.ValidateDate(date); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.cap {
		limit = s.cap
	}

	// The shared query outlives any single caller; each caller still stops
	// waiting when its own context is done.
	ch := s.group.DoChan(symbol+"|"+date, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyQueryTimeout)
		defer cancel()
		return s.history.Query(flightCtx, symbol, date)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, &QueryError{Op: "get history", Symbol: symbol, Err: ctx.Err()}
	case res = <-ch:
	}
	v, err := res.Val, res.Err
	if err != nil {
		if errors.Is(err, store.ErrInvalidDate) {
			return nil, err
		}
		return nil, &QueryError{Op: "get history", Symbol: symbol, Err: err}
	}

	records := v.([]market.Quote)
	// Callers sharing a flight share the slice; sort a copy.
	out := make([]market.Quote, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TS > out[j].TS
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
