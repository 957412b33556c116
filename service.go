package gocyconv

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/robotomize/gocyconv/label"
)

// MaxTrendDays is the longest range Trend accepts
const MaxTrendDays = 14

// trendConcurrency limits the historical requests Trend keeps in flight
const trendConcurrency = 4

// HistoricalRate is the rate of Symbol against Base at the end of Date
type HistoricalRate struct {
	Date   time.Time
	Base   label.Symbol
	Symbol label.Symbol
	Rate   float64
}

func (h HistoricalRate) String() string {
	return fmt.Sprintf("%s: 1 %s = %v %s", h.Date.Format(DateLayout), h.Base, h.Rate, h.Symbol)
}

// Conversion is the result of converting Value units of From into To
type Conversion struct {
	From   label.Symbol
	To     label.Symbol
	Value  float64
	Rate   float64
	Amount float64
	// Date is the fetch time of the snapshot the conversion used
	Date time.Time
}

func (c Conversion) String() string {
	return fmt.Sprintf("%v %s = %v %s", c.Value, c.From, c.Amount, c.To)
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Service converts amounts using the snapshots of a Store
type Service struct {
	store *Store
}

// ConvertFromBase converts amount of the base currency into target
func (s *Service) ConvertFromBase(ctx context.Context, amount float64, target label.Symbol) (Conversion, error) {
	if err := validateAmount(amount); err != nil {
		return Conversion{}, err
	}

	snap, err := s.store.Latest(ctx)
	if err != nil {
		return Conversion{}, fmt.Errorf("convert: %w", err)
	}

	rate, err := lookupRate(snap, target)
	if err != nil {
		return Conversion{}, fmt.Errorf("convert: %w", err)
	}

	return Conversion{
		From:   snap.Base,
		To:     target,
		Value:  amount,
		Rate:   rate,
		Amount: amount * rate,
		Date:   snap.FetchedAt,
	}, nil
}

// ConvertAny converts amount of from into to through the base currency
func (s *Service) ConvertAny(ctx context.Context, from, to label.Symbol, amount float64) (Conversion, error) {
	if err := validateAmount(amount); err != nil {
		return Conversion{}, err
	}

	snap, err := s.store.Latest(ctx)
	if err != nil {
		return Conversion{}, fmt.Errorf("convert: %w", err)
	}

	fromRate, err := lookupRate(snap, from)
	if err != nil {
		return Conversion{}, fmt.Errorf("convert: %w", err)
	}

	toRate, err := lookupRate(snap, to)
	if err != nil {
		return Conversion{}, fmt.Errorf("convert: %w", err)
	}

	return Conversion{
		From:   from,
		To:     to,
		Value:  amount,
		Rate:   toRate / fromRate,
		Amount: amount / fromRate * toRate,
		Date:   snap.FetchedAt,
	}, nil
}

// Trend returns the rate of sym for startDate and each of the following days,
// days+1 points in date order. Any failed day fails the whole call
func (s *Service) Trend(ctx context.Context, sym label.Symbol, startDate string, days int) ([]HistoricalRate, error) {
	start, err := ParseDate(startDate)
	if err != nil {
		return nil, err
	}

	if days < 1 || days > MaxTrendDays {
		return nil, fmt.Errorf("%w: days must be between 1 and %d, got %d", ErrValidation, MaxTrendDays, days)
	}

	if end := start.AddDate(0, 0, days); end.After(s.store.now()) {
		return nil, fmt.Errorf("%w: %d days from %s end after today", ErrValidation, days, start.Format(DateLayout))
	}

	snap, err := s.store.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("trend: %w", err)
	}

	if _, err := lookupRate(snap, sym); err != nil {
		return nil, fmt.Errorf("trend: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	points := make([]HistoricalRate, days+1)
	sem := make(chan struct{}, trendConcurrency)

	var g multierror.Group
	for i := range points {
		i := i
		date := start.AddDate(0, 0, i)
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			point, err := s.store.historicalRate(ctx, date, sym)
			if err != nil {
				cancel()
				return err
			}

			points[i] = point

			return nil
		})
	}

	if err := g.Wait().ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("trend %s: %w", sym, err)
	}

	return points, nil
}

// HistoricalRate returns the rate of sym at the end of date (YYYY-MM-DD)
func (s *Service) HistoricalRate(ctx context.Context, sym label.Symbol, date string) (HistoricalRate, error) {
	d, err := ParseDate(date)
	if err != nil {
		return HistoricalRate{}, err
	}

	snap, err := s.store.Latest(ctx)
	if err != nil {
		return HistoricalRate{}, fmt.Errorf("historical rate: %w", err)
	}

	if _, err := lookupRate(snap, sym); err != nil {
		return HistoricalRate{}, fmt.Errorf("historical rate: %w", err)
	}

	return s.store.historicalRate(ctx, d, sym)
}

// ListCurrencies returns every currency known to the provider
func (s *Service) ListCurrencies(ctx context.Context) ([]label.Currency, error) {
	return s.store.ListCurrencies(ctx)
}

// Refresh fetches the latest rates regardless of the age of the current snapshot
func (s *Service) Refresh(ctx context.Context) (Snapshot, error) {
	return s.store.Fetch(ctx)
}

// Export persists the current snapshot, fetching one first if there is none or it is stale
func (s *Service) Export(ctx context.Context) (Snapshot, error) {
	snap, err := s.store.Latest(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("export: %w", err)
	}

	if err := s.store.Export(snap); err != nil {
		return Snapshot{}, err
	}

	return snap, nil
}

// Rates returns the current snapshot, loading or fetching it when needed
func (s *Service) Rates(ctx context.Context) (Snapshot, error) {
	return s.store.Latest(ctx)
}

func validateAmount(amount float64) error {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("%w: amount %v must be a non-negative number", ErrValidation, amount)
	}

	return nil
}

func lookupRate(snap Snapshot, sym label.Symbol) (float64, error) {
	rate, ok := snap.Rate(sym)
	if !ok {
		return 0, fmt.Errorf("%w: %s is not in the %s snapshot", ErrValidation, sym, snap.Base)
	}

	return rate, nil
}
