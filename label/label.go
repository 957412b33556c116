// Package label describes currency symbols and their human-readable names.
package label

import (
	"errors"
	"fmt"

	"github.com/robotomize/gocyconv/internal/strutil"
)

// symbolLen is the length of an ISO 4217 alphabetic code
const symbolLen = 3

// USD is the only base the free tier of openexchangerates allows
const USD Symbol = "USD"

var ErrInvalidSymbol = errors.New("currency symbol is not valid")

// Symbol is a 3-letter uppercase currency code, e.g. USD
type Symbol string

func (s Symbol) String() string {
	return string(s)
}

// Valid reports whether s is exactly three uppercase ASCII letters
func (s Symbol) Valid() bool {
	if len(s) != symbolLen {
		return false
	}

	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}

	return true
}

// ParseSymbol normalizes user input and validates the result
//
//	ParseSymbol(" eur ") // EUR, nil
//	ParseSymbol("euro")  // "", ErrInvalidSymbol
func ParseSymbol(s string) (Symbol, error) {
	sym := Symbol(strutil.NormalizeCode(s))
	if !sym.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
	}

	return sym, nil
}

// MustParseSymbol is like ParseSymbol but panics on invalid input
func MustParseSymbol(s string) Symbol {
	sym, err := ParseSymbol(s)
	if err != nil {
		panic(err)
	}

	return sym
}

// Currency is a symbol with its full name, e.g. {USD, United States Dollar}
type Currency struct {
	Symbol Symbol
	Name   string
}

func (c Currency) String() string {
	return fmt.Sprintf("%s: %s", c.Symbol, c.Name)
}
