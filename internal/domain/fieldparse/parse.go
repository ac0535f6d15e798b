// Package fieldparse coerces string-encoded response fields. Every parser
// returns ok == false for empty or unparsable input instead of an error.
package fieldparse

import (
	"math"
	"strconv"
	"strings"
)

var byteUnits = map[string]float64{
	"":   1,
	"b":  1,
	"kb": 1 << 10,
	"mb": 1 << 20,
	"gb": 1 << 30,
	"tb": 1 << 40,
}

// ParseNumber parses a decimal number such as "12345" or "1.5".
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseBytes parses a byte count, optionally followed by a binary unit
// ("5435", "12 KB", "1.5MB"). Negative sizes are rejected.
func ParseBytes(raw string) (int64, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, false
	}

	split := len(s)
	for i, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != '-' && r != '+' {
			split = i
			break
		}
	}

	multiplier, ok := byteUnits[strings.TrimSpace(s[split:])]
	if !ok {
		return 0, false
	}
	v, ok := ParseNumber(s[:split])
	if !ok || v < 0 {
		return 0, false
	}

	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	size := v * multiplier
	if size >= 1<<63 {
		return 0, false
	}
	return int64(math.Round(size)), true
}
