package gocyconv

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/robotomize/gocyconv/label"
)

const DateLayout = "2006-01-02"

// zonelessLayout is an ISO-8601 timestamp without a zone offset, read as local time
const zonelessLayout = "2006-01-02T15:04:05.999999999"

var (
	errEmptyRates     = errors.New("rates are empty")
	errRateNotValid   = errors.New("rate is not a positive finite number")
	errBaseRateNotOne = errors.New("base rate is not 1")
)

// Snapshot is one fetched set of rates relative to Base, together with the moment it was fetched
type Snapshot struct {
	Base      label.Symbol
	Rates     map[label.Symbol]float64
	FetchedAt time.Time

	// ProviderTime is the publication time reported by the provider
	ProviderTime time.Time
	Disclaimer   string
	License      string
}

// Rate returns the amount of sym for one unit of Base
func (s Snapshot) Rate(sym label.Symbol) (float64, bool) {
	rate, ok := s.Rates[sym]
	return rate, ok
}

// Symbols returns all symbols of the snapshot in alphabetical order
func (s Snapshot) Symbols() []label.Symbol {
	list := make([]label.Symbol, 0, len(s.Rates))
	for sym := range s.Rates {
		list = append(list, sym)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i] < list[j]
	})

	return list
}

// Validate reports every rate that breaks the snapshot invariants
func (s Snapshot) Validate() error {
	if len(s.Rates) == 0 {
		return errEmptyRates
	}

	var merr *multierror.Error
	for _, sym := range s.Symbols() {
		rate := s.Rates[sym]
		if !validRate(rate) {
			merr = multierror.Append(merr, fmt.Errorf("%s=%v: %w", sym, rate, errRateNotValid))
			continue
		}

		if sym == s.Base && rate != 1 {
			merr = multierror.Append(merr, fmt.Errorf("%s=%v: %w", sym, rate, errBaseRateNotOne))
		}
	}

	return merr.ErrorOrNil()
}

func (s Snapshot) clone() Snapshot {
	c := s
	c.Rates = make(map[label.Symbol]float64, len(s.Rates))
	for sym, rate := range s.Rates {
		c.Rates[sym] = rate
	}

	return c
}

func validRate(rate float64) bool {
	return rate > 0 && !math.IsInf(rate, 0) && !math.IsNaN(rate)
}

// IsStale reports whether snap is older than maxAge at the moment now. A nil snapshot is always stale
func IsStale(snap *Snapshot, maxAge time.Duration, now time.Time) bool {
	if snap == nil {
		return true
	}

	return now.Sub(snap.FetchedAt) > maxAge
}

// ParseDate parses a calendar date in the YYYY-MM-DD form
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q is not in YYYY-MM-DD form", ErrValidation, s)
	}

	return t, nil
}

// snapshotFile is the persisted form: the provider payload with timestamp replaced by an ISO-8601 string
type snapshotFile struct {
	Disclaimer        string                   `json:"disclaimer,omitempty"`
	License           string                   `json:"license,omitempty"`
	Timestamp         string                   `json:"timestamp"`
	ProviderTimestamp int64                    `json:"provider_timestamp,omitempty"`
	Base              label.Symbol             `json:"base"`
	Rates             map[label.Symbol]float64 `json:"rates"`
}

func encodeSnapshot(snap Snapshot, stamp time.Time) ([]byte, error) {
	file := snapshotFile{
		Disclaimer: snap.Disclaimer,
		License:    snap.License,
		Timestamp:  stamp.UTC().Format(time.RFC3339Nano),
		Base:       snap.Base,
		Rates:      snap.Rates,
	}

	if !snap.ProviderTime.IsZero() {
		file.ProviderTimestamp = snap.ProviderTime.Unix()
	}

	b, err := json.MarshalIndent(file, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}

	return b, nil
}

func decodeSnapshot(b []byte) (Snapshot, error) {
	var file snapshotFile
	if err := json.Unmarshal(b, &file); err != nil {
		return Snapshot{}, fmt.Errorf("json unmarshal: %w", err)
	}

	if file.Timestamp == "" {
		return Snapshot{}, errors.New("missing timestamp field")
	}

	if file.Rates == nil {
		return Snapshot{}, errors.New("missing rates field")
	}

	fetchedAt, err := parseTimestamp(file.Timestamp)
	if err != nil {
		return Snapshot{}, err
	}

	base, err := label.ParseSymbol(string(file.Base))
	if err != nil {
		return Snapshot{}, fmt.Errorf("base: %w", err)
	}

	snap := Snapshot{
		Base:       base,
		Rates:      file.Rates,
		FetchedAt:  fetchedAt,
		Disclaimer: file.Disclaimer,
		License:    file.License,
	}

	if file.ProviderTimestamp > 0 {
		snap.ProviderTime = time.Unix(file.ProviderTimestamp, 0).UTC()
	}

	if err := snap.Validate(); err != nil {
		return Snapshot{}, fmt.Errorf("validate: %w", err)
	}

	return snap, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}

	t, err := time.ParseInLocation(zonelessLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q is not ISO-8601", s)
	}

	return t, nil
}
