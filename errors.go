package gocyconv

import (
	"errors"

	"github.com/robotomize/gocyconv/provider"
	"github.com/robotomize/gocyconv/provider/httputil"
)

// Every error returned by Store and Service wraps exactly one of these kinds, test with errors.Is
var (
	// ErrConnectivity the provider could not be reached: network failure, timeout, 5xx or 429
	ErrConnectivity = errors.New("provider is unreachable")
	// ErrValidation unknown currency, malformed date, negative amount or a day count out of range
	ErrValidation = errors.New("invalid input")
	// ErrPersistence the snapshot file could not be written or read
	ErrPersistence = errors.New("snapshot storage failed")
	// ErrProtocol the provider answered without the expected fields or with a rejection
	ErrProtocol = errors.New("unexpected provider response")
)

// kindOf maps a provider failure to one of the error kinds
func kindOf(err error) error {
	if errors.Is(err, provider.ErrMalformedResponse) {
		return ErrProtocol
	}

	var statusErr *httputil.StatusError
	if errors.As(err, &statusErr) && !statusErr.Temporary() {
		return ErrProtocol
	}

	return ErrConnectivity
}
