package ingest

import (
	"fmt"
	"time"
)

type Outcome string

const (
	OutcomeWritten          Outcome = "written"
	OutcomeFetchFailed      Outcome = "fetch_failed"
	OutcomeStoreWriteFailed Outcome = "store_write_failed"
)

const (
	StoreLatest  = "latest"
	StoreHistory = "history"
)

// SymbolResult is the per-symbol outcome of one cycle.
type SymbolResult struct {
	Symbol       string   `json:"symbol"`
	Outcome      Outcome  `json:"outcome"`
	FailedStores []string `json:"failed_stores,omitempty"`
	ErrorKind    string   `json:"error_kind,omitempty"`
	Error        string   `json:"error,omitempty"`
	TS           int64    `json:"ts,omitempty"`
}

// CycleReport summarizes one ingestion cycle. It is observability only;
// nothing reads it back to decide what to persist.
type CycleReport struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Skipped    bool           `json:"skipped,omitempty"`
	SkipReason string         `json:"skip_reason,omitempty"`
	Results    []SymbolResult `json:"results"`
}

func (r CycleReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Counts returns the number of results per outcome.
func (r CycleReport) Counts() map[Outcome]int {
	out := make(map[Outcome]int, 3)
	for _, res := range r.Results {
		out[res.Outcome]++
	}
	return out
}

// AllFailed reports whether a cycle ran and no symbol was fully written.
func (r CycleReport) AllFailed() bool {
	if r.Skipped || len(r.Results) == 0 {
		return false
	}
	for _, res := range r.Results {
		if res.Outcome == OutcomeWritten {
			return false
		}
	}
	return true
}

// Failures returns the results that did not end as written.
func (r CycleReport) Failures() []SymbolResult {
	var out []SymbolResult
	for _, res := range r.Results {
		if res.Outcome != OutcomeWritten {
			out = append(out, res)
		}
	}
	return out
}

// StoreWriteError is scoped to one symbol and one store.
type StoreWriteError struct {
	Symbol string
	Store  string
	Err    error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("write %s to %s store: %v", e.Symbol, e.Store, e.Err)
}

func (e *StoreWriteError) Unwrap() error {
	return e.Err
}
