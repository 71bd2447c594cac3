package market

import (
	"context"
	"errors"
)

// NamedProvider tags a provider with the source name recorded on quotes it serves.
type NamedProvider struct {
	Name     string
	Provider QuoteProvider
}

// MultiProvider tries providers in order and returns the first success.
type MultiProvider struct {
	providers []NamedProvider
}

func NewMultiProvider(providers ...NamedProvider) *MultiProvider {
	return &MultiProvider{providers: providers}
}

func (m *MultiProvider) FetchQuote(ctx context.Context, symbol string) (Quote, error) {
	if len(m.providers) == 0 {
		return Quote{}, &FetchError{Symbol: symbol, Kind: KindConfig, Err: errors.New("no quote providers configured")}
	}
	var lastErr error
	for _, p := range m.providers {
		q, err := p.Provider.FetchQuote(ctx, symbol)
		if err == nil {
			if p.Name != "" {
				q.Source = p.Name
			}
			return q, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return Quote{}, AsFetchError(symbol, lastErr)
}
