package alert

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"quote-tracker/internal/ingest"
)

//go:generate mockgen -destination=mock_sender_test.go -package=alert_test . Sender

// Sender delivers a markdown notification. *dingtalk.Client satisfies it.
type Sender interface {
	SendMarkdown(ctx context.Context, title, markdown string) error
}

type Priority string

const (
	PriorityHigh Priority = "high"
	PriorityMed  Priority = "med"
)

type Status string

const (
	StatusSent        Status = "sent"
	StatusSuppressed  Status = "suppressed"
	StatusRateLimited Status = "rate_limited"
	StatusNoFailures  Status = "no_failures"
	StatusFailed      Status = "failed"
)

type Config struct {
	PerMinute   int
	Burst       int
	DedupWindow time.Duration
	// MinFailures is the number of failed symbols needed before a partial
	// failure is reported. A cycle where every symbol failed is always reported.
	MinFailures int
}

// Notifier turns failed ingestion cycles into notifications.
type Notifier struct {
	sender  Sender
	cfg     Config
	limiter *rate.Limiter
	log     *zap.Logger
	now     func() time.Time

	dedupMu sync.Mutex
	dedup   map[string]time.Time
}

func NewNotifier(sender Sender, cfg Config, log *zap.Logger) *Notifier {
	if cfg.MinFailures <= 0 {
		cfg.MinFailures = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	limit := rate.Inf
	if cfg.PerMinute > 0 {
		limit = rate.Limit(float64(cfg.PerMinute) / 60.0)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = max(cfg.PerMinute, 1)
	}
	return &Notifier{
		sender:  sender,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, burst),
		log:     log,
		now:     time.Now,
		dedup:   make(map[string]time.Time),
	}
}

// Report implements ingest.Reporter.
func (n *Notifier) Report(ctx context.Context, report ingest.CycleReport) error {
	status, err := n.Handle(ctx, report)
	if err != nil {
		return err
	}
	if status != StatusNoFailures {
		n.log.Debug("cycle alert handled", zap.String("status", string(status)))
	}
	return nil
}

func (n *Notifier) Handle(ctx context.Context, report ingest.CycleReport) (Status, error) {
	failures := report.Failures()
	if report.Skipped || len(failures) == 0 {
		return StatusNoFailures, nil
	}
	priority := PriorityMed
	if report.AllFailed() {
		priority = PriorityHigh
	} else if len(failures) < n.cfg.MinFailures {
		return StatusNoFailures, nil
	}

	key := dedupKey(failures)
	if n.isDeduped(key) {
		return StatusSuppressed, nil
	}
	if !n.limiter.Allow() {
		n.log.Warn("alert rate limited", zap.Int("failures", len(failures)))
		return StatusRateLimited, nil
	}

	title := fmt.Sprintf("Quote ingest: %d/%d symbols failed", len(failures), len(report.Results))
	if err := n.sender.SendMarkdown(ctx, title, buildMarkdown(priority, report, failures)); err != nil {
		return StatusFailed, fmt.Errorf("send alert: %w", err)
	}
	n.markSent(key)
	return StatusSent, nil
}

// isDeduped reports whether key was delivered within the dedup window.
func (n *Notifier) isDeduped(key string) bool {
	if n.cfg.DedupWindow <= 0 {
		return false
	}
	n.dedupMu.Lock()
	defer n.dedupMu.Unlock()
	last, ok := n.dedup[key]
	return ok && n.now().Sub(last) <= n.cfg.DedupWindow
}

func (n *Notifier) markSent(key string) {
	if n.cfg.DedupWindow <= 0 {
		return
	}
	n.dedupMu.Lock()
	n.dedup[key] = n.now()
	n.dedupMu.Unlock()
}

// dedupKey identifies a failure pattern: the same symbols failing the same way.
func dedupKey(failures []ingest.SymbolResult) string {
	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		kind := f.ErrorKind
		if f.Outcome == ingest.OutcomeStoreWriteFailed {
			kind = "store:" + strings.Join(f.FailedStores, "+")
		}
		parts = append(parts, f.Symbol+"="+kind)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func buildMarkdown(p Priority, report ingest.CycleReport, failures []ingest.SymbolResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### Quote ingest failures (%s)\n", p)
	fmt.Fprintf(&b, "cycle %s, took %s\n\n", report.StartedAt.UTC().Format(time.RFC3339), report.Duration().Round(time.Millisecond))
	for _, f := range failures {
		b.WriteString("- **")
		b.WriteString(f.Symbol)
		b.WriteString("** ")
		b.WriteString(string(f.Outcome))
		if f.ErrorKind != "" {
			b.WriteString(" (")
			b.WriteString(f.ErrorKind)
			b.WriteString(")")
		}
		if len(f.FailedStores) > 0 {
			b.WriteString(" stores: ")
			b.WriteString(strings.Join(f.FailedStores, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}
