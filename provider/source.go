package provider

import (
	"context"
	"errors"
	"time"

	"github.com/robotomize/gocyconv/label"
)

// ErrMalformedResponse means the provider answered, but not with the expected payload
var ErrMalformedResponse = errors.New("malformed provider response")

// Source is an interface for getting data from the exchange rate provider. Source takes care of
// building requests, talking HTTP and decoding the provider payload
//
//go:generate mockgen -source source.go -destination mock_source.go -package provider
type Source interface {
	// FetchLatest obtains the latest exchange rates relative to the source base
	FetchLatest(ctx context.Context) (Rates, error)

	// FetchHistorical obtains the end of day rates for date, optionally limited to symbols
	FetchHistorical(ctx context.Context, date time.Time, symbols ...label.Symbol) (Rates, error)

	// FetchCurrencies returns currency names keyed by symbol
	FetchCurrencies(ctx context.Context) (map[label.Symbol]string, error)
}

// Rates is a decoded rates payload. Rates holds the value of one unit of Base in each currency
type Rates struct {
	Base       label.Symbol
	Time       time.Time
	Disclaimer string
	License    string
	Rates      map[label.Symbol]float64
}
