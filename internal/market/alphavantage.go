package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=mock_httpclient_test.go -package=market_test . HTTPClient,QuoteProvider

const (
	defaultAlphaVantageURL = "https://www.alphavantage.co/query"
	SourceAlphaVantage     = "alphavantage"
)

// HTTPClient is the subset of *http.Client used by providers.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type AlphaVantage struct {
	baseURL string
	apiKey  string
	client  HTTPClient
	now     func() time.Time
}

type AlphaVantageOption func(*AlphaVantage)

func WithBaseURL(u string) AlphaVantageOption {
	return func(p *AlphaVantage) {
		if u != "" {
			p.baseURL = u
		}
	}
}

func WithHTTPClient(c HTTPClient) AlphaVantageOption {
	return func(p *AlphaVantage) {
		if c != nil {
			p.client = c
		}
	}
}

func WithClock(now func() time.Time) AlphaVantageOption {
	return func(p *AlphaVantage) {
		if now != nil {
			p.now = now
		}
	}
}

func NewAlphaVantage(apiKey string, timeout time.Duration, opts ...AlphaVantageOption) *AlphaVantage {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	p := &AlphaVantage{
		baseURL: defaultAlphaVantageURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type globalQuoteResp struct {
	GlobalQuote  *globalQuote `json:"Global Quote"`
	Note         string       `json:"Note"`
	Information  string       `json:"Information"`
	ErrorMessage string       `json:"Error Message"`
}

type globalQuote struct {
	Symbol           string `json:"01. symbol"`
	LatestTradingDay string `json:"07. latest trading day"`
	PreviousClose    string `json:"08. previous close"`
	Price            string `json:"05. price"`
	Change           string `json:"09. change"`
	ChangePercent    string `json:"10. change percent"`
}

func (p *AlphaVantage) FetchQuote(ctx context.Context, symbol string) (Quote, error) {
	if strings.TrimSpace(symbol) == "" {
		return Quote{}, &FetchError{Symbol: symbol, Kind: KindMalformed, Err: errors.New("empty symbol")}
	}
	if p.apiKey == "" {
		return Quote{}, &FetchError{Symbol: symbol, Kind: KindConfig, Err: errors.New("ALPHAVANTAGE_API_KEY not set")}
	}

	u, err := url.Parse(p.baseURL)
	if err != nil {
		return Quote{}, &FetchError{Symbol: symbol, Kind: KindConfig, Err: fmt.Errorf("invalid base url: %w", err)}
	}
	q := u.Query()
	q.Set("function", "GLOBAL_QUOTE")
	q.Set("symbol", symbol)
	q.Set("apikey", p.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Quote{}, &FetchError{Symbol: symbol, Kind: KindTransport, Err: fmt.Errorf("build request: %w", err)}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Quote{}, &FetchError{Symbol: symbol, Kind: transportKind(ctx, err), Err: fmt.Errorf("request alphavantage: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Quote{}, &FetchError{Symbol: symbol, Kind: KindStatus, Err: fmt.Errorf("http %d", resp.StatusCode)}
	}

	var payload globalQuoteResp
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if kind := transportKind(ctx, err); kind == KindTimeout {
			return Quote{}, &FetchError{Symbol: symbol, Kind: kind, Err: fmt.Errorf("read alphavantage: %w", err)}
		}
		return Quote{}, &FetchError{Symbol: symbol, Kind: KindMalformed, Err: fmt.Errorf("decode alphavantage: %w", err)}
	}
	received := p.now()

	switch {
	case payload.ErrorMessage != "":
		return Quote{}, &FetchError{Symbol: symbol, Kind: KindStatus, Err: errors.New(payload.ErrorMessage)}
	case payload.Note != "":
		return Quote{}, &FetchError{Symbol: symbol, Kind: KindStatus, Err: errors.New(payload.Note)}
	case payload.Information != "":
		return Quote{}, &FetchError{Symbol: symbol, Kind: KindStatus, Err: errors.New(payload.Information)}
	case payload.GlobalQuote == nil:
		return Quote{}, &FetchError{Symbol: symbol, Kind: KindMalformed, Err: errors.New("missing Global Quote object")}
	}
	return p.toQuote(symbol, payload.GlobalQuote, received)
}

func (p *AlphaVantage) toQuote(symbol string, gq *globalQuote, received time.Time) (Quote, error) {
	price, ok := parseDecimal(gq.Price)
	if !ok {
		return Quote{}, &FetchError{Symbol: symbol, Kind: KindMissingField, Err: errors.New("price not present")}
	}
	change, hasChange := parseDecimal(gq.Change)
	changePct, hasPct := parseDecimal(strings.TrimSuffix(strings.TrimSpace(gq.ChangePercent), "%"))
	prev, hasPrev := parseDecimal(gq.PreviousClose)

	if !hasChange && hasPrev {
		change = price.Sub(prev)
		hasChange = true
	}
	if !hasPct && hasChange && hasPrev && !prev.IsZero() {
		changePct = change.Div(prev).Mul(decimal.NewFromInt(100))
		hasPct = true
	}

	out := Quote{
		Symbol: symbol,
		Price:  Float(price.InexactFloat64()),
		TS:     received.Unix(),
		Source: SourceAlphaVantage,
	}
	if hasChange {
		out.Change = Float(change.InexactFloat64())
	}
	if hasPct {
		out.ChangePct = Float(changePct.Round(4).InexactFloat64())
	}
	// Meta stays nil when empty so the record reads back identically from every store.
	meta := map[string]any{}
	if gq.Symbol != "" {
		meta["provider_symbol"] = gq.Symbol
	}
	if gq.LatestTradingDay != "" {
		meta["latest_trading_day"] = gq.LatestTradingDay
	}
	if hasPrev {
		meta["previous_close"] = prev.InexactFloat64()
	}
	if len(meta) > 0 {
		out.Meta = meta
	}
	return out, nil
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func transportKind(ctx context.Context, err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindTransport
}
