package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"quote-tracker/internal/market"
)

//go:generate mockgen -destination=mock_stores_test.go -package=ingest_test . LatestWriter,HistoryAppender,RunMarker,Reporter

type LatestWriter interface {
	PutLatest(ctx context.Context, q market.Quote) error
}

type HistoryAppender interface {
	Append(ctx context.Context, q market.Quote) error
}

// RunMarker records when the last cycle completed.
type RunMarker interface {
	LastRun(ctx context.Context) (time.Time, bool, error)
	MarkRun(ctx context.Context, at time.Time) error
}

// Reporter receives every finished CycleReport. Errors are logged only.
type Reporter interface {
	Report(ctx context.Context, report CycleReport) error
}

type Options struct {
	Concurrency  int
	FetchTimeout time.Duration
	CycleTimeout time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Cooldown     time.Duration
}

type Runner struct {
	provider  market.QuoteProvider
	latest    LatestWriter
	history   HistoryAppender
	marker    RunMarker
	reporters []Reporter
	opts      Options
	log       *zap.Logger
	now       func() time.Time
}

type Option func(*Runner)

func WithRunMarker(m RunMarker) Option {
	return func(r *Runner) { r.marker = m }
}

func WithReporters(reps ...Reporter) Option {
	return func(r *Runner) { r.reporters = append(r.reporters, reps...) }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRunner(provider market.QuoteProvider, latest LatestWriter, history HistoryAppender, opts Options, options ...Option) *Runner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 15 * time.Second
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 500 * time.Millisecond
	}
	r := &Runner{
		provider: provider,
		latest:   latest,
		history:  history,
		opts:     opts,
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// RunCycle fetches and persists every symbol independently. A failure for
// one symbol is recorded in the report and never stops the others.
func (r *Runner) RunCycle(ctx context.Context, symbols []string) CycleReport {
	report := CycleReport{StartedAt: r.now(), Results: []SymbolResult{}}

	if reason, skip := r.cooldownActive(ctx, report.StartedAt); skip {
		report.Skipped = true
		report.SkipReason = reason
		report.FinishedAt = r.now()
		r.log.Info("ingest cycle skipped", zap.String("reason", reason))
		r.publish(ctx, report)
		return report
	}

	cycleCtx := ctx
	if r.opts.CycleTimeout > 0 {
		var cancel context.CancelFunc
		cycleCtx, cancel = context.WithTimeout(ctx, r.opts.CycleTimeout)
		defer cancel()
	}

	results := make([]SymbolResult, len(symbols))
	var g errgroup.Group
	g.SetLimit(r.opts.Concurrency)
	for i, sym := range symbols {
		g.Go(func() error {
			if err := cycleCtx.Err(); err != nil {
				results[i] = r.cycleExpired(sym, err)
				return nil
			}
			results[i] = r.processSymbol(cycleCtx, sym)
			return nil
		})
	}
	_ = g.Wait()

	report.Results = results
	report.FinishedAt = r.now()

	counts := report.Counts()
	r.log.Info("ingest cycle finished",
		zap.Int("symbols", len(symbols)),
		zap.Int("written", counts[OutcomeWritten]),
		zap.Int("fetch_failed", counts[OutcomeFetchFailed]),
		zap.Int("store_write_failed", counts[OutcomeStoreWriteFailed]),
		zap.Duration("duration", report.Duration()),
	)

	if r.marker != nil && counts[OutcomeFetchFailed] < len(symbols) {
		if err := r.marker.MarkRun(ctx, report.FinishedAt); err != nil {
			r.log.Warn("mark run failed", zap.Error(err))
		}
	}
	r.publish(ctx, report)
	return report
}

func (r *Runner) cooldownActive(ctx context.Context, now time.Time) (string, bool) {
	if r.marker == nil || r.opts.Cooldown <= 0 {
		return "", false
	}
	last, ok, err := r.marker.LastRun(ctx)
	if err != nil {
		r.log.Warn("read last run failed, running cycle", zap.Error(err))
		return "", false
	}
	if !ok {
		return "", false
	}
	elapsed := now.Sub(last)
	if elapsed >= r.opts.Cooldown {
		return "", false
	}
	remaining := int((r.opts.Cooldown - elapsed).Seconds())
	return fmt.Sprintf("cooldown active; %ds remaining", remaining), true
}

// cycleExpired reports a symbol that was never started because the cycle
// deadline had already passed.
func (r *Runner) cycleExpired(symbol string, err error) SymbolResult {
	fe := &market.FetchError{Symbol: symbol, Kind: market.KindTimeout, Err: fmt.Errorf("cycle deadline reached before fetch: %w", err)}
	r.log.Warn("symbol skipped, cycle deadline reached", zap.String("symbol", symbol))
	return SymbolResult{
		Symbol:    symbol,
		Outcome:   OutcomeFetchFailed,
		ErrorKind: string(fe.Kind),
		Error:     fe.Error(),
	}
}

func (r *Runner) processSymbol(ctx context.Context, symbol string) SymbolResult {
	res := SymbolResult{Symbol: symbol}

	q, err := r.fetch(ctx, symbol)
	if err != nil {
		fe := market.AsFetchError(symbol, err)
		res.Outcome = OutcomeFetchFailed
		res.ErrorKind = string(fe.Kind)
		res.Error = fe.Error()
		r.log.Warn("fetch quote failed",
			zap.String("symbol", symbol),
			zap.String("kind", string(fe.Kind)),
			zap.Error(fe.Err),
		)
		return res
	}
	if q.Symbol == "" {
		q.Symbol = symbol
	}
	res.TS = q.TS

	// Both stores are always attempted; there is no transaction across them.
	var errs []error
	if err := r.latest.PutLatest(ctx, q.Clone()); err != nil {
		errs = append(errs, &StoreWriteError{Symbol: symbol, Store: StoreLatest, Err: err})
		res.FailedStores = append(res.FailedStores, StoreLatest)
	}
	if err := r.history.Append(ctx, q.Clone()); err != nil {
		errs = append(errs, &StoreWriteError{Symbol: symbol, Store: StoreHistory, Err: err})
		res.FailedStores = append(res.FailedStores, StoreHistory)
	}
	if len(errs) > 0 {
		joined := errors.Join(errs...)
		res.Outcome = OutcomeStoreWriteFailed
		res.Error = joined.Error()
		r.log.Warn("store write failed",
			zap.String("symbol", symbol),
			zap.Strings("stores", res.FailedStores),
			zap.Error(joined),
		)
		return res
	}
	res.Outcome = OutcomeWritten
	return res
}

// fetch performs one provider call per attempt, each bounded by FetchTimeout.
// Only transport and timeout failures are retried.
func (r *Runner) fetch(ctx context.Context, symbol string) (market.Quote, error) {
	if r.opts.MaxRetries <= 0 {
		return r.attempt(ctx, symbol)
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.opts.RetryBackoff
	b.MaxInterval = 8 * r.opts.RetryBackoff
	op := func() (market.Quote, error) {
		q, err := r.attempt(ctx, symbol)
		if err == nil {
			return q, nil
		}
		fe := market.AsFetchError(symbol, err)
		if !fe.Transient() {
			return market.Quote{}, backoff.Permanent(fe)
		}
		r.log.Debug("retrying fetch", zap.String("symbol", symbol), zap.Error(fe))
		return market.Quote{}, fe
	}
	q, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(r.opts.MaxRetries+1)),
	)
	if err != nil {
		return market.Quote{}, market.AsFetchError(symbol, err)
	}
	return q, nil
}

func (r *Runner) attempt(ctx context.Context, symbol string) (market.Quote, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.opts.FetchTimeout)
	defer cancel()
	q, err := r.provider.FetchQuote(fetchCtx, symbol)
	if err != nil {
		if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
			return market.Quote{}, &market.FetchError{Symbol: symbol, Kind: market.KindTimeout, Err: err}
		}
		return market.Quote{}, err
	}
	return q, nil
}

func (r *Runner) publish(ctx context.Context, report CycleReport) {
	for _, rep := range r.reporters {
		if err := rep.Report(ctx, report); err != nil {
			r.log.Warn("cycle reporter failed", zap.Error(err))
		}
	}
}
