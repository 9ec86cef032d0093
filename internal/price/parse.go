package price

import (
	"regexp"
	"strconv"
	"strings"

	apperr "pricedrop/priceworker/pkg/errors"
)

var (
	stripPattern = regexp.MustCompile(`[^0-9.,]`)
	decimalForm  = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)
)

// Parse canonicalizes raw page text into a numeric price.
//
// Everything that is not a digit or separator is stripped (currency symbols,
// whitespace), thousands separators are removed, and the remainder must be a
// single well-formed decimal. Text like "Free", an empty match, or a string
// with multiple decimal points yields a parse error rather than a truncated
// number.
func Parse(raw string) (float64, error) {
	cleaned := stripPattern.ReplaceAllString(raw, "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	if cleaned == "" {
		return 0, apperr.NewParse("", "no price in text")
	}
	if !decimalForm.MatchString(cleaned) {
		return 0, apperr.NewParse("", "malformed price text: "+cleaned)
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, apperr.NewParse("", "unparseable price text: "+cleaned)
	}
	return value, nil
}
