package gocyconv

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/robotomize/gocyconv/label"
	"github.com/robotomize/gocyconv/provider"
	"github.com/robotomize/gocyconv/provider/httputil"
)

var testNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func testLatestRates() provider.Rates {
	return provider.Rates{
		Base:       label.USD,
		Time:       time.Date(2024, 1, 10, 11, 0, 0, 0, time.UTC),
		Disclaimer: "Usage subject to terms: https://openexchangerates.org/terms",
		License:    "https://openexchangerates.org/license",
		Rates:      map[label.Symbol]float64{"USD": 1, "EUR": 0.9, "GBP": 0.8, "SEK": 10.5},
	}
}

func newTestStore(t *testing.T, source provider.Source, opts ...StoreOption) *Store {
	t.Helper()

	defaults := []StoreOption{
		WithSnapshotPath(filepath.Join(t.TempDir(), DefaultSnapshotPath)),
		WithClock(func() time.Time { return testNow }),
	}

	return NewStore(source, append(defaults, opts...)...)
}

func TestStore_Fetch(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		rates provider.Rates
		err   error
		kind  error
	}{
		{
			name:  "test_fetch_ok",
			rates: testLatestRates(),
		},
		{
			name: "test_fetch_transport_failure",
			err:  fmt.Errorf("make HTTP request: %w", errors.New("connection refused")),
			kind: ErrConnectivity,
		},
		{
			name: "test_fetch_deadline",
			err:  context.DeadlineExceeded,
			kind: ErrConnectivity,
		},
		{
			name: "test_fetch_server_unavailable",
			err:  &httputil.StatusError{Code: http.StatusServiceUnavailable},
			kind: ErrConnectivity,
		},
		{
			name: "test_fetch_rejected",
			err:  &httputil.StatusError{Code: http.StatusUnauthorized},
			kind: ErrProtocol,
		},
		{
			name: "test_fetch_malformed",
			err:  fmt.Errorf("decode latest: %w", provider.ErrMalformedResponse),
			kind: ErrProtocol,
		},
		{
			name:  "test_fetch_invalid_rates",
			rates: provider.Rates{Base: label.USD, Rates: map[label.Symbol]float64{"USD": 1, "EUR": -0.9}},
			kind:  ErrProtocol,
		},
		{
			name:  "test_fetch_unexpected_base",
			rates: provider.Rates{Base: "EUR", Rates: map[label.Symbol]float64{"EUR": 1, "USD": 1.1}},
			kind:  ErrProtocol,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			source := provider.NewMockSource(ctrl)
			source.EXPECT().FetchLatest(gomock.Any()).Return(tc.rates, tc.err)

			s := newTestStore(t, source)
			snap, err := s.Fetch(context.Background())
			if tc.kind != nil {
				if !errors.Is(err, tc.kind) {
					t.Fatalf("want error %v, got %v", tc.kind, err)
				}

				if _, ok := s.Current(); ok {
					t.Errorf("failed fetch replaced the current snapshot")
				}
				return
			}

			if err != nil {
				t.Fatalf("fetch: %v", err)
			}

			expected := Snapshot{
				Base:         label.USD,
				Rates:        tc.rates.Rates,
				FetchedAt:    testNow,
				ProviderTime: tc.rates.Time,
				Disclaimer:   tc.rates.Disclaimer,
				License:      tc.rates.License,
			}

			if diff := cmp.Diff(expected, snap); diff != "" {
				t.Errorf("mismatch (-want, +got):\n%s", diff)
			}

			current, ok := s.Current()
			if !ok {
				t.Fatal("current snapshot is missing")
			}

			if diff := cmp.Diff(expected, current); diff != "" {
				t.Errorf("mismatch (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestStore_Fetch_KeepsPreviousOnFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := provider.NewMockSource(ctrl)
	gomock.InOrder(
		source.EXPECT().FetchLatest(gomock.Any()).Return(testLatestRates(), nil),
		source.EXPECT().FetchLatest(gomock.Any()).Return(provider.Rates{}, context.DeadlineExceeded),
	)

	s := newTestStore(t, source)
	first, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if _, err := s.Fetch(context.Background()); !errors.Is(err, ErrConnectivity) {
		t.Fatalf("want ErrConnectivity, got %v", err)
	}

	current, _ := s.Current()
	if diff := cmp.Diff(first, current); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
}

func TestStore_Current_ReturnsCopy(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := provider.NewMockSource(ctrl)
	source.EXPECT().FetchLatest(gomock.Any()).Return(testLatestRates(), nil)

	s := newTestStore(t, source)
	snap, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	snap.Rates["EUR"] = 100

	current, _ := s.Current()
	if diff := cmp.Diff(0.9, current.Rates["EUR"]); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
}

func TestStore_Stale(t *testing.T) {
	t.Parallel()

	now := testNow
	ctrl := gomock.NewController(t)
	source := provider.NewMockSource(ctrl)
	source.EXPECT().FetchLatest(gomock.Any()).Return(testLatestRates(), nil)

	s := newTestStore(t, source, WithClock(func() time.Time { return now }))
	if !s.Stale() {
		t.Errorf("store without snapshot must be stale")
	}

	if _, err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if s.Stale() {
		t.Errorf("just fetched snapshot must be fresh")
	}

	now = now.Add(61 * time.Minute)
	if !s.Stale() {
		t.Errorf("61 minutes old snapshot must be stale")
	}
}

func TestStore_Latest(t *testing.T) {
	t.Parallel()

	now := testNow
	ctrl := gomock.NewController(t)
	source := provider.NewMockSource(ctrl)
	source.EXPECT().FetchLatest(gomock.Any()).Return(testLatestRates(), nil).Times(2)

	s := newTestStore(t, source, WithClock(func() time.Time { return now }))

	// no file and no snapshot: fetched once, then served from memory
	for i := 0; i < 3; i++ {
		if _, err := s.Latest(context.Background()); err != nil {
			t.Fatalf("latest: %v", err)
		}
	}

	now = now.Add(DefaultMaxAge + time.Minute)

	snap, err := s.Latest(context.Background())
	if err != nil {
		t.Fatalf("latest: %v", err)
	}

	if diff := cmp.Diff(now, snap.FetchedAt); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
}

func TestStore_Latest_Concurrent(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := provider.NewMockSource(ctrl)
	source.EXPECT().FetchLatest(gomock.Any()).Return(testLatestRates(), nil).Times(1)

	s := newTestStore(t, source)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Latest(context.Background())
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("latest: %v", err)
		}
	}
}

func TestStore_Latest_CallerCanceled(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})

	ctrl := gomock.NewController(t)
	source := provider.NewMockSource(ctrl)
	source.EXPECT().FetchLatest(gomock.Any()).DoAndReturn(func(ctx context.Context) (provider.Rates, error) {
		close(started)
		<-release

		if err := ctx.Err(); err != nil {
			return provider.Rates{}, err
		}

		return testLatestRates(), nil
	}).Times(1)

	s := newTestStore(t, source)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := s.Latest(ctx)
		first <- err
	}()

	<-started
	cancel()

	if err := <-first; !errors.Is(err, ErrConnectivity) || !errors.Is(err, context.Canceled) {
		t.Fatalf("want ErrConnectivity with context.Canceled, got %v", err)
	}

	second := make(chan error, 1)
	go func() {
		_, err := s.Latest(context.Background())
		second <- err
	}()

	close(release)

	if err := <-second; err != nil {
		t.Fatalf("latest after another caller gave up: %v", err)
	}

	if _, ok := s.Current(); !ok {
		t.Error("shared load did not set the current snapshot")
	}
}

func TestStore_ExportThenLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rates.json")

	ctrl := gomock.NewController(t)
	source := provider.NewMockSource(ctrl)
	source.EXPECT().FetchLatest(gomock.Any()).Return(testLatestRates(), nil)

	exporter := newTestStore(t, source, WithSnapshotPath(path))
	exported, err := exporter.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if err := exporter.Export(exported); err != nil {
		t.Fatalf("export: %v", err)
	}

	// no expectations: any request to the provider fails the test
	loader := newTestStore(t, provider.NewMockSource(gomock.NewController(t)), WithSnapshotPath(path))
	loaded, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if diff := cmp.Diff(exported, loaded); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}

	current, ok := loader.Current()
	if !ok {
		t.Fatal("loaded snapshot did not become current")
	}

	if diff := cmp.Diff(exported.Rates, current.Rates); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
}

func TestStore_Load_FallsBackToFetch(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		content string
	}{
		{
			name: "test_load_missing_file",
		},
		{
			name:    "test_load_malformed_file",
			content: `{"timestamp":`,
		},
		{
			name:    "test_load_stale_file",
			content: `{"timestamp":"2024-01-10T10:00:00Z","base":"USD","rates":{"USD":1,"EUR":0.5}}`,
		},
		{
			name:    "test_load_other_base",
			content: `{"timestamp":"2024-01-10T11:59:00Z","base":"EUR","rates":{"EUR":1,"USD":1.1}}`,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), DefaultSnapshotPath)
			if tc.content != "" {
				if err := os.WriteFile(path, []byte(tc.content), 0o600); err != nil {
					t.Fatalf("write file: %v", err)
				}
			}

			ctrl := gomock.NewController(t)
			source := provider.NewMockSource(ctrl)
			source.EXPECT().FetchLatest(gomock.Any()).Return(testLatestRates(), nil)

			s := newTestStore(t, source, WithSnapshotPath(path))
			snap, err := s.Load(context.Background())
			if err != nil {
				t.Fatalf("load: %v", err)
			}

			if diff := cmp.Diff(testLatestRates().Rates, snap.Rates); diff != "" {
				t.Errorf("mismatch (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestStore_Load_ZonelessTimestamp(t *testing.T) {
	t.Parallel()

	// written as local wall clock time, half an hour before testNow
	stamp := testNow.Add(-30 * time.Minute).In(time.Local).Format("2006-01-02T15:04:05.000000")

	path := filepath.Join(t.TempDir(), DefaultSnapshotPath)
	content := `{"timestamp":"` + stamp + `","base":"USD","rates":{"USD":1,"EUR":0.5}}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	s := newTestStore(t, provider.NewMockSource(gomock.NewController(t)), WithSnapshotPath(path))
	snap, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if diff := cmp.Diff(map[label.Symbol]float64{"USD": 1, "EUR": 0.5}, snap.Rates); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
}

func TestStore_Export(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		path func(dir string) string
		snap Snapshot
		err  error
	}{
		{
			name: "test_export_empty_snapshot",
			path: func(dir string) string { return filepath.Join(dir, DefaultSnapshotPath) },
			snap: Snapshot{Base: label.USD},
			err:  ErrValidation,
		},
		{
			name: "test_export_missing_directory",
			path: func(dir string) string { return filepath.Join(dir, "missing", DefaultSnapshotPath) },
			snap: Snapshot{Base: label.USD, Rates: map[label.Symbol]float64{"USD": 1}},
			err:  ErrPersistence,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := newTestStore(t, nil, WithSnapshotPath(tc.path(t.TempDir())))
			if err := s.Export(tc.snap); !errors.Is(err, tc.err) {
				t.Errorf("want error %v, got %v", tc.err, err)
			}
		})
	}
}

func TestStore_ListCurrencies(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := provider.NewMockSource(ctrl)
	source.EXPECT().FetchCurrencies(gomock.Any()).Return(map[label.Symbol]string{
		"USD": "United States Dollar",
		"EUR": "Euro",
		"SEK": "Swedish  Krona ",
	}, nil)

	got, err := newTestStore(t, source).ListCurrencies(context.Background())
	if err != nil {
		t.Fatalf("list currencies: %v", err)
	}

	expected := []label.Currency{
		{Symbol: "EUR", Name: "Euro"},
		{Symbol: "SEK", Name: "Swedish Krona"},
		{Symbol: "USD", Name: "United States Dollar"},
	}

	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
}

func TestStore_ListCurrencies_Failure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := provider.NewMockSource(ctrl)
	source.EXPECT().FetchCurrencies(gomock.Any()).Return(nil, context.DeadlineExceeded)

	if _, err := newTestStore(t, source).ListCurrencies(context.Background()); !errors.Is(err, ErrConnectivity) {
		t.Errorf("want ErrConnectivity, got %v", err)
	}
}

func TestStore_HistoricalRate(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		date     string
		symbol   label.Symbol
		setup    func(source *provider.MockSource)
		expected HistoricalRate
		err      error
	}{
		{
			name:   "test_historical_ok",
			date:   "2024-01-01",
			symbol: "SEK",
			setup: func(source *provider.MockSource) {
				source.EXPECT().FetchHistorical(gomock.Any(), day, label.Symbol("SEK")).
					Return(provider.Rates{Base: label.USD, Rates: map[label.Symbol]float64{"SEK": 10.2}}, nil)
			},
			expected: HistoricalRate{Date: day, Base: label.USD, Symbol: "SEK", Rate: 10.2},
		},
		{
			name:   "test_historical_bad_date",
			date:   "01/01/2024",
			symbol: "SEK",
			err:    ErrValidation,
		},
		{
			name:   "test_historical_future_date",
			date:   "2024-02-01",
			symbol: "SEK",
			err:    ErrValidation,
		},
		{
			name:   "test_historical_bad_symbol",
			date:   "2024-01-01",
			symbol: "sek",
			err:    ErrValidation,
		},
		{
			name:   "test_historical_symbol_missing",
			date:   "2024-01-01",
			symbol: "SEK",
			setup: func(source *provider.MockSource) {
				source.EXPECT().FetchHistorical(gomock.Any(), day, label.Symbol("SEK")).
					Return(provider.Rates{Base: label.USD, Rates: map[label.Symbol]float64{}}, nil)
			},
			err: ErrProtocol,
		},
		{
			name:   "test_historical_unreachable",
			date:   "2024-01-01",
			symbol: "SEK",
			setup: func(source *provider.MockSource) {
				source.EXPECT().FetchHistorical(gomock.Any(), day, label.Symbol("SEK")).
					Return(provider.Rates{}, &httputil.StatusError{Code: http.StatusBadGateway})
			},
			err: ErrConnectivity,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			source := provider.NewMockSource(ctrl)
			if tc.setup != nil {
				tc.setup(source)
			}

			got, err := newTestStore(t, source).HistoricalRate(context.Background(), tc.date, tc.symbol)
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("want error %v, got %v", tc.err, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("historical rate: %v", err)
			}

			if diff := cmp.Diff(tc.expected, got); diff != "" {
				t.Errorf("mismatch (-want, +got):\n%s", diff)
			}
		})
	}
}
