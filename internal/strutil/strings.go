package strutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var nonLetterRe = regexp.MustCompile(`[^a-zA-Z]+`)

// RemoveNonLetters removes everything that is not an ASCII letter, spaces included
func RemoveNonLetters(s string) string {
	return nonLetterRe.ReplaceAllString(s, "")
}

// RemoveExtraSpaces removes unnecessary spaces in the string
// For example RemoveExtraSpaces("hello  world  ") return "hello world"
func RemoveExtraSpaces(s string) string {
	idx := 0

	return strings.Trim(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			idx++
			if idx > 1 {
				return -1
			}
			return ' '
		} else if idx > 0 {
			idx = 0
		}

		return r
	}, s), " \t")
}

// Upper returns s in upper case using language neutral rules
func Upper(s string) string {
	// a Caser keeps state, so it is never shared
	return cases.Upper(language.Und).String(s)
}

// NormalizeCode turns user input like " usd\n" into "USD"
func NormalizeCode(s string) string {
	return Upper(RemoveNonLetters(s))
}
