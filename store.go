package gocyconv

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robotomize/gocyconv/internal/fsutil"
	"github.com/robotomize/gocyconv/internal/strutil"
	"github.com/robotomize/gocyconv/label"
	"github.com/robotomize/gocyconv/provider"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultSnapshotPath = "currency_log.json"
	DefaultMaxAge       = time.Hour
)

type StoreOption func(*Store)

type StoreOptions struct {
	SnapshotPath string
	MaxAge       time.Duration
	Base         label.Symbol
}

// WithSnapshotPath sets the file used by Load and Export
func WithSnapshotPath(path string) StoreOption {
	return func(s *Store) {
		s.opts.SnapshotPath = path
	}
}

// WithMaxAge sets how long a snapshot stays fresh
func WithMaxAge(d time.Duration) StoreOption {
	return func(s *Store) {
		s.opts.MaxAge = d
	}
}

// WithBase sets the currency all rates are expressed against
func WithBase(base label.Symbol) StoreOption {
	return func(s *Store) {
		s.opts.Base = base
	}
}

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore returns a Store without a current snapshot. Nothing is fetched until the first request
func NewStore(source provider.Source, opts ...StoreOption) *Store {
	s := &Store{
		source: source,
		now:    time.Now,
		opts: StoreOptions{
			SnapshotPath: DefaultSnapshotPath,
			MaxAge:       DefaultMaxAge,
			Base:         label.USD,
		},
	}

	for _, o := range opts {
		o(s)
	}

	return s
}

// Store owns the current snapshot of latest rates. It fetches, persists and reloads it
type Store struct {
	source provider.Source
	opts   StoreOptions
	now    func() time.Time

	mtx     sync.RWMutex
	current *Snapshot

	// refreshing collapses concurrent Latest calls on a stale snapshot into one Load
	refreshing singleflight.Group
}

func (s *Store) Options() StoreOptions {
	return s.opts
}

// Current returns a copy of the current snapshot, if any
func (s *Store) Current() (Snapshot, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if s.current == nil {
		return Snapshot{}, false
	}

	return s.current.clone(), true
}

// IsStale reports whether snap is older than maxAge, a nil snapshot is stale
func (s *Store) IsStale(snap *Snapshot, maxAge time.Duration) bool {
	return IsStale(snap, maxAge, s.now())
}

// Stale reports whether the current snapshot is missing or older than the configured max age
func (s *Store) Stale() bool {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.IsStale(s.current, s.opts.MaxAge)
}

// Fetch requests the latest rates from the provider and makes them the current snapshot
func (s *Store) Fetch(ctx context.Context) (Snapshot, error) {
	rates, err := s.source.FetchLatest(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: fetch latest: %w", kindOf(err), err)
	}

	if rates.Base != s.opts.Base {
		return Snapshot{}, fmt.Errorf("%w: fetch latest: base %s, expected %s", ErrProtocol, rates.Base, s.opts.Base)
	}

	snap := Snapshot{
		Base:         rates.Base,
		Rates:        rates.Rates,
		FetchedAt:    s.now(),
		ProviderTime: rates.Time,
		Disclaimer:   rates.Disclaimer,
		License:      rates.License,
	}

	if err := snap.Validate(); err != nil {
		return Snapshot{}, fmt.Errorf("%w: fetch latest: %w", ErrProtocol, err)
	}

	s.replace(snap)

	return snap.clone(), nil
}

// Load restores the snapshot from the snapshot file. When the file is missing, unreadable or stale,
// Load falls back to Fetch
func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	snap, err := s.readSnapshot()
	if err != nil || s.IsStale(&snap, s.opts.MaxAge) {
		return s.Fetch(ctx)
	}

	s.replace(snap)

	return snap.clone(), nil
}

// Latest returns the current snapshot while it is fresh, otherwise it goes through Load.
// Concurrent callers share one Load, which is not canceled with any of them. A caller whose
// context ends first gets ErrConnectivity, the others keep waiting
func (s *Store) Latest(ctx context.Context) (Snapshot, error) {
	if snap, ok := s.fresh(); ok {
		return snap, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := s.refreshing.DoChan("latest", func() (interface{}, error) {
		if snap, ok := s.fresh(); ok {
			return snap, nil
		}

		return s.Load(loadCtx)
	})

	select {
	case <-ctx.Done():
		return Snapshot{}, fmt.Errorf("%w: latest: %w", ErrConnectivity, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}

		return res.Val.(Snapshot).clone(), nil
	}
}

func (s *Store) fresh() (Snapshot, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if s.IsStale(s.current, s.opts.MaxAge) {
		return Snapshot{}, false
	}

	return s.current.clone(), true
}

// Export writes snap to the snapshot file with the current time as its timestamp.
// The current snapshot stays untouched
func (s *Store) Export(snap Snapshot) error {
	if len(snap.Rates) == 0 {
		return fmt.Errorf("%w: export: %w", ErrValidation, errEmptyRates)
	}

	b, err := encodeSnapshot(snap, s.now())
	if err != nil {
		return fmt.Errorf("%w: export: %w", ErrPersistence, err)
	}

	if err := fsutil.WriteFile(s.opts.SnapshotPath, b); err != nil {
		return fmt.Errorf("%w: export: %w", ErrPersistence, err)
	}

	return nil
}

// ListCurrencies returns every currency the provider knows, ordered by symbol
func (s *Store) ListCurrencies(ctx context.Context) ([]label.Currency, error) {
	names, err := s.source.FetchCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch currencies: %w", kindOf(err), err)
	}

	currencies := make([]label.Currency, 0, len(names))
	for sym, name := range names {
		currencies = append(currencies, label.Currency{Symbol: sym, Name: strutil.RemoveExtraSpaces(name)})
	}

	sort.Slice(currencies, func(i, j int) bool {
		return currencies[i].Symbol < currencies[j].Symbol
	})

	return currencies, nil
}

// HistoricalRate returns the rate of sym against the base at the end of date (YYYY-MM-DD)
func (s *Store) HistoricalRate(ctx context.Context, date string, sym label.Symbol) (HistoricalRate, error) {
	d, err := ParseDate(date)
	if err != nil {
		return HistoricalRate{}, err
	}

	return s.historicalRate(ctx, d, sym)
}

func (s *Store) historicalRate(ctx context.Context, date time.Time, sym label.Symbol) (HistoricalRate, error) {
	if !sym.Valid() {
		return HistoricalRate{}, fmt.Errorf("%w: %w: %q", ErrValidation, label.ErrInvalidSymbol, sym)
	}

	if date.After(s.now()) {
		return HistoricalRate{}, fmt.Errorf("%w: date %s is in the future", ErrValidation, date.Format(DateLayout))
	}

	rates, err := s.source.FetchHistorical(ctx, date, sym)
	if err != nil {
		return HistoricalRate{}, fmt.Errorf("%w: fetch historical %s: %w", kindOf(err), date.Format(DateLayout), err)
	}

	rate, ok := rates.Rates[sym]
	if !ok {
		return HistoricalRate{}, fmt.Errorf("%w: fetch historical %s: no rate for %s", ErrProtocol, date.Format(DateLayout), sym)
	}

	if !validRate(rate) {
		return HistoricalRate{}, fmt.Errorf("%w: fetch historical %s: %s=%v: %w", ErrProtocol, date.Format(DateLayout), sym, rate, errRateNotValid)
	}

	return HistoricalRate{Date: date, Base: rates.Base, Symbol: sym, Rate: rate}, nil
}

func (s *Store) readSnapshot() (Snapshot, error) {
	b, err := fsutil.ReadPath(s.opts.SnapshotPath)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	snap, err := decodeSnapshot(b)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: decode %s: %w", ErrPersistence, s.opts.SnapshotPath, err)
	}

	if snap.Base != s.opts.Base {
		return Snapshot{}, fmt.Errorf("%w: %s has base %s", ErrPersistence, s.opts.SnapshotPath, snap.Base)
	}

	return snap, nil
}

func (s *Store) replace(snap Snapshot) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.current = &snap
}
