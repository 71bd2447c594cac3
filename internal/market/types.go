package market

import (
	"context"
	"errors"
	"fmt"
	"maps"
)

// Quote is the canonical record written to both stores. Price, Change and
// ChangePct are nil when the provider did not supply them.
type Quote struct {
	Symbol    string         `json:"symbol"`
	Price     *float64       `json:"price"`
	Change    *float64       `json:"change,omitempty"`
	ChangePct *float64       `json:"change_pct,omitempty"`
	TS        int64          `json:"ts"`
	Source    string         `json:"source"`
	Currency  string         `json:"currency,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// HasPrice reports whether the record carries a usable price.
func (q Quote) HasPrice() bool {
	return q.Price != nil
}

// Clone returns a copy that shares no pointers with q.
func (q Quote) Clone() Quote {
	out := q
	out.Price = cloneFloat(q.Price)
	out.Change = cloneFloat(q.Change)
	out.ChangePct = cloneFloat(q.ChangePct)
	if q.Meta != nil {
		out.Meta = maps.Clone(q.Meta)
	}
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// QuoteProvider fetches a single symbol from an upstream source.
// Implementations perform one outbound request per call and never retry.
type QuoteProvider interface {
	FetchQuote(ctx context.Context, symbol string) (Quote, error)
}

// QuoteProviderFunc adapts a function to QuoteProvider.
type QuoteProviderFunc func(ctx context.Context, symbol string) (Quote, error)

func (f QuoteProviderFunc) FetchQuote(ctx context.Context, symbol string) (Quote, error) {
	return f(ctx, symbol)
}

type ErrorKind string

const (
	KindTransport    ErrorKind = "transport"
	KindStatus       ErrorKind = "status"
	KindMalformed    ErrorKind = "malformed"
	KindMissingField ErrorKind = "missing_field"
	KindTimeout      ErrorKind = "timeout"
	KindConfig       ErrorKind = "config"
)

// FetchError is scoped to one symbol and never aborts a cycle.
type FetchError struct {
	Symbol string
	Kind   ErrorKind
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.Symbol, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Transient reports whether a caller-side retry may succeed.
func (e *FetchError) Transient() bool {
	return e.Kind == KindTransport || e.Kind == KindTimeout
}

// AsFetchError classifies err, wrapping unknown errors as transport failures
// and context deadlines as timeouts.
func AsFetchError(symbol string, err error) *FetchError {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{Symbol: symbol, Kind: KindTimeout, Err: err}
	}
	return &FetchError{Symbol: symbol, Kind: KindTransport, Err: err}
}
