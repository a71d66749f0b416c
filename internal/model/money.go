package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseCents converts decimal string amounts (dollars) to cents (int64).
// Handles edge cases: empty strings, missing decimals, currency prefixes.
// Examples: "99.00" → 9900, "1234.56" → 123456, "$9.99" → 999, "" → 0
func ParseCents(s string) int64 {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$€£")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return ToCents(f)
}

// ToCents rounds a major-unit amount to minor units.
// math.Round handles both positive and negative numbers correctly.
func ToCents(f float64) int64 {
	return int64(math.Round(f * 100))
}

// FromCents converts minor units back to a major-unit amount.
func FromCents(c int64) float64 {
	return float64(c) / 100
}

// Price is a unit price in major currency units.
// Product payloads carry prices as numbers ("price": 9.99) or formatted
// strings ("price": "9.99"); both decode to the same value.
type Price float64

// Cents returns the price in minor units.
func (p Price) Cents() int64 { return ToCents(float64(p)) }

// UnmarshalJSON accepts a JSON number, numeric string, or null.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Price(FromCents(ParseCents(s)))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*p = Price(f)
	return nil
}
