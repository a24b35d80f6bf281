// Package sanitize converts the heterogeneous numeric tokens the source
// providers emit into plain float64s. Everything downstream of the adapters
// works with the sanitized form only.
package sanitize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

var suffixMultipliers = map[byte]float64{
	'T': 1e12,
	'B': 1e9,
	'M': 1e6,
	'k': 1e3,
	'K': 1e3,
}

// placeholder tokens sources use for an empty cell. By convention these
// sanitize to numeric zero, not to "absent" - absence is signaled by the
// field never arriving.
var zeroTokens = map[string]bool{
	"":    true,
	"-":   true,
	"--":  true,
	"—":   true,
	"–":   true,
	"N/A": true,
	"n/a": true,
}

// Sanitize converts a raw scalar into a finite number. Numbers pass through
// (non-finite coerced to 0), strings are parsed per the documented token
// rules, and anything unparseable yields 0. It never panics.
func Sanitize(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return finite(t)
	case float32:
		return finite(float64(t))
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return sanitizeString(t.String())
		}
		return finite(f)
	case string:
		return sanitizeString(t)
	}
	return 0
}

func sanitizeString(s string) float64 {
	s = strings.TrimSpace(s)
	if zeroTokens[s] {
		return 0
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = strings.TrimPrefix(s, "-")
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)
	if zeroTokens[s] {
		return 0
	}

	multiplier := 1.0
	if last := s[len(s)-1]; last < '0' || last > '9' {
		if m, ok := suffixMultipliers[last]; ok {
			multiplier = m
			s = s[:len(s)-1]
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	f *= multiplier
	if negative {
		f = -f
	}
	return finite(f)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// RawValue is a statement value as it arrives on the wire: a bare number, a
// {raw, formatted} pair, or a formatted string. Past the adapters nobody
// handles this dual shape again; Float collapses it through Sanitize.
type RawValue struct {
	value any
	set   bool
}

type rawFormattedPair struct {
	Raw *json.RawMessage `json:"raw"`
	Fmt *string          `json:"fmt"`
}

func (r *RawValue) UnmarshalJSON(b []byte) error {
	r.set = true

	var pair rawFormattedPair
	if err := json.Unmarshal(b, &pair); err == nil && (pair.Raw != nil || pair.Fmt != nil) {
		if pair.Raw != nil {
			var inner any
			if err := json.Unmarshal(*pair.Raw, &inner); err == nil {
				r.value = inner
				return nil
			}
		}
		if pair.Fmt != nil {
			r.value = *pair.Fmt
		}
		return nil
	}

	var scalar any
	if err := json.Unmarshal(b, &scalar); err != nil {
		// leave as absent-shaped zero rather than failing the statement
		r.value = nil
		return nil
	}
	r.value = scalar
	return nil
}

// IsSet reports whether the field appeared in the source payload at all.
// This is the only place "genuinely missing" and "sanitized zero" are
// distinguishable.
func (r RawValue) IsSet() bool {
	return r.set
}

// Float returns the sanitized numeric value.
func (r RawValue) Float() float64 {
	return Sanitize(r.value)
}
