package oxr

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/robotomize/gocyconv/label"
	"github.com/robotomize/gocyconv/provider"
)

type ratesResponse struct {
	Disclaimer string             `json:"disclaimer"`
	License    string             `json:"license"`
	Timestamp  int64              `json:"timestamp"`
	Base       string             `json:"base"`
	Rates      map[string]float64 `json:"rates"`
}

// apiError is the body openexchangerates sends along with a 4xx/5xx status
type apiError struct {
	Failed      bool   `json:"error"`
	Status      int    `json:"status"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

func (e apiError) String() string {
	if e.Description == "" {
		return e.Message
	}

	return e.Message + ": " + e.Description
}

func decodeRates(b []byte, base label.Symbol) (provider.Rates, error) {
	var resp ratesResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		return provider.Rates{}, fmt.Errorf("%w: %v", provider.ErrMalformedResponse, err)
	}

	if resp.Rates == nil {
		return provider.Rates{}, fmt.Errorf("%w: missing rates field", provider.ErrMalformedResponse)
	}

	if resp.Base != "" {
		sym, err := label.ParseSymbol(resp.Base)
		if err != nil {
			return provider.Rates{}, fmt.Errorf("%w: base: %v", provider.ErrMalformedResponse, err)
		}
		base = sym
	}

	rates := provider.Rates{
		Base:       base,
		Disclaimer: resp.Disclaimer,
		License:    resp.License,
		Rates:      make(map[label.Symbol]float64, len(resp.Rates)),
	}

	if resp.Timestamp > 0 {
		rates.Time = time.Unix(resp.Timestamp, 0).UTC()
	}

	for code, rate := range resp.Rates {
		sym := label.Symbol(code)
		if !sym.Valid() {
			continue
		}
		rates.Rates[sym] = rate
	}

	return rates, nil
}

func decodeCurrencies(b []byte) (map[label.Symbol]string, error) {
	var resp map[string]string
	if err := json.Unmarshal(b, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrMalformedResponse, err)
	}

	names := make(map[label.Symbol]string, len(resp))
	for code, name := range resp {
		sym := label.Symbol(code)
		if !sym.Valid() {
			continue
		}
		names[sym] = name
	}

	return names, nil
}

func decodeAPIError(b []byte) (apiError, bool) {
	var apiErr apiError
	if err := json.Unmarshal(b, &apiErr); err != nil {
		return apiErr, false
	}

	return apiErr, apiErr.Failed && apiErr.Message != ""
}
