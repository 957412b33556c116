package oxr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/robotomize/gocyconv/label"
	"github.com/robotomize/gocyconv/provider"
	"github.com/robotomize/gocyconv/provider/httputil"
)

const hostname = "openexchangerates.org"

const (
	latestRawPath     = "latest.json"
	currenciesRawPath = "currencies.json"
	historicalRawPath = "historical"
)

const dateLayout = "2006-01-02"

var defaultBaseURL = url.URL{Scheme: "https", Host: hostname, Path: "/api"}

var _ provider.Source = (*source)(nil)

type Option func(*source)

// WithBaseURL points the source to another API root, e.g. a test server
func WithBaseURL(u url.URL) Option {
	return func(s *source) {
		s.baseURL = u
	}
}

// WithBase asks the provider for rates relative to base. Only paid plans accept anything but USD
func WithBase(base label.Symbol) Option {
	return func(s *source) {
		s.base = base
	}
}

// NewSource returns the openexchangerates.org source authorized by appID
func NewSource(client *http.Client, appID string, opts ...Option) *source {
	s := &source{
		appID:            appID,
		base:             label.USD,
		baseURL:          defaultBaseURL,
		SourceHTTPClient: httputil.NewHTTPClient(client),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type source struct {
	appID   string
	base    label.Symbol
	baseURL url.URL
	httputil.SourceHTTPClient
}

func (s *source) FetchLatest(ctx context.Context) (provider.Rates, error) {
	query := s.query()
	if s.base != label.USD {
		query.Set("base", s.base.String())
	}

	b, err := s.get(ctx, s.endpoint(latestRawPath), query)
	if err != nil {
		return provider.Rates{}, fmt.Errorf("fetching latest: %w", err)
	}

	rates, err := decodeRates(b, s.base)
	if err != nil {
		return provider.Rates{}, fmt.Errorf("decode latest: %w", err)
	}

	return rates, nil
}

func (s *source) FetchHistorical(ctx context.Context, date time.Time, symbols ...label.Symbol) (provider.Rates, error) {
	query := s.query()
	query.Set("base", s.base.String())
	if len(symbols) > 0 {
		list := make([]string, len(symbols))
		for i, sym := range symbols {
			list[i] = sym.String()
		}
		query.Set("symbols", strings.Join(list, ","))
	}

	endpoint := s.endpoint(historicalRawPath, date.Format(dateLayout)+".json")

	b, err := s.get(ctx, endpoint, query)
	if err != nil {
		return provider.Rates{}, fmt.Errorf("fetching historical %s: %w", date.Format(dateLayout), err)
	}

	rates, err := decodeRates(b, s.base)
	if err != nil {
		return provider.Rates{}, fmt.Errorf("decode historical: %w", err)
	}

	return rates, nil
}

func (s *source) FetchCurrencies(ctx context.Context) (map[label.Symbol]string, error) {
	query := s.query()
	query.Set("prettyprint", "false")
	query.Set("show_alternative", "false")
	query.Set("show_inactive", "false")

	b, err := s.get(ctx, s.endpoint(currenciesRawPath), query)
	if err != nil {
		return nil, fmt.Errorf("fetching currencies: %w", err)
	}

	names, err := decodeCurrencies(b)
	if err != nil {
		return nil, fmt.Errorf("decode currencies: %w", err)
	}

	return names, nil
}

func (s *source) query() url.Values {
	query := url.Values{}
	query.Set("app_id", s.appID)

	return query
}

func (s *source) endpoint(elem ...string) url.URL {
	u := s.baseURL
	u.Path = path.Join(append([]string{"/", u.Path}, elem...)...)

	return u
}

func (s *source) get(ctx context.Context, u url.URL, query url.Values) ([]byte, error) {
	u.RawQuery = query.Encode()

	b, err := s.Get(ctx, u)
	if err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) {
			if apiErr, ok := decodeAPIError(statusErr.Body); ok {
				return nil, fmt.Errorf("%s: %w", apiErr, err)
			}
		}

		return nil, err
	}

	return b, nil
}
