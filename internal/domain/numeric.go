package domain

import (
	"strconv"
	"strings"
)

// NumericStatus classifies the outcome of parsing one raw cell token.
type NumericStatus int

const (
	// NumericValue means the token parsed to a usable float.
	NumericValue NumericStatus = iota

	// NumericMissing means the token was empty or all whitespace — the well
	// was not measured. Not an error and not worth a diagnostic.
	NumericMissing

	// NumericMalformed means a non-empty token failed float conversion.
	// Callers report it through the diagnostics collector and move on.
	NumericMalformed
)

// ParseNumeric converts a raw cell token to a float. It never returns an
// error: malformed input degrades to a status the caller can act on, so a
// single bad token can never abort a run.
func ParseNumeric(token string) (float64, NumericStatus) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, NumericMissing
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, NumericMalformed
	}
	return v, NumericValue
}
