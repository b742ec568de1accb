package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CurrencyLabel prefixes rendered amounts.
const CurrencyLabel = "RM"

// Minor is an amount in minor currency units (cents).
type Minor int64

// String renders m divided by 100 with two decimals, e.g. "RM 3.00".
func (m Minor) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s %s%d.%02d", CurrencyLabel, sign, v/100, v%100)
}

// ParseMinor parses a major-unit decimal such as "12.5" or "RM 12.50" into minor units.
func ParseMinor(s string) (Minor, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), CurrencyLabel))
	if s == "" {
		return 0, errors.New("empty amount")
	}
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	if s == "" || s == "." {
		return 0, errors.New("empty amount")
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if hasFrac && (len(frac) == 0 || len(frac) > 2) {
		return 0, fmt.Errorf("bad amount %q: at most two decimals", s)
	}
	if !digits(whole) || (hasFrac && !digits(frac)) {
		return 0, fmt.Errorf("bad amount %q: digits only", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad amount %q: %w", s, err)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad amount %q: %w", s, err)
	}
	v := w*100 + f
	if neg {
		v = -v
	}
	return Minor(v), nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
