package modeling

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

var (
	truthyTokens = map[string]bool{"1": true, "y": true, "yes": true, "true": true, "t": true, "예": true, "네": true}
	falsyTokens  = map[string]bool{"0": true, "n": true, "no": true, "false": true, "f": true, "아니오": true, "아니요": true}

	maleTokens = map[string]bool{"m": true, "male": true, "남": true, "남자": true}
)

// ToFloat parses the longest numeric prefix of c ("12.5kg" is 12.5).
// Cells with no numeric prefix, or that parse to NaN or an infinity,
// yield fallback.
func ToFloat(c Cell, fallback float64) float64 {
	prefix := numericPrefix(strings.TrimLeftFunc(string(c), unicode.IsSpace))
	if prefix == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// ToOptionalFloat returns nil for a blank cell and ToFloat(c, 0) otherwise.
// Blank means "not measured", which differs from a measured zero.
func ToOptionalFloat(c Cell) *float64 {
	if c.Blank() {
		return nil
	}
	v := ToFloat(c, 0)
	return &v
}

// numericPrefix returns the longest prefix of s shaped like a decimal
// literal: sign, digits, optional fraction, optional exponent.
func numericPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}

	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits > 0 || frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return ""
	}

	end := i
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		start := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > start {
			end = j
		}
	}
	return s[:end]
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// ToIntFlag maps yes/no style tokens to 1 or 0. Unrecognised input yields
// 1 if fallback is non-zero, else 0.
func ToIntFlag(c Cell, fallback int) int {
	token := normalizeToken(string(c))
	switch {
	case truthyTokens[token]:
		return 1
	case falsyTokens[token]:
		return 0
	case fallback != 0:
		return 1
	default:
		return 0
	}
}

// ToBool is ToIntFlag as a boolean.
func ToBool(c Cell, fallback bool) bool {
	fb := 0
	if fallback {
		fb = 1
	}
	return ToIntFlag(c, fb) == 1
}

// ToText trims c, returning fallback when nothing is left.
func ToText(c Cell, fallback string) string {
	if s := trimField(string(c)); s != "" {
		return s
	}
	return fallback
}

// ResolveResidentID takes resident_id, then id, and finally a synthesized
// "row-N" where N is the 1-based data row number.
func ResolveResidentID(row Row, index int) string {
	c := row.Get("resident_id")
	if c.Blank() {
		c = row.Get("id")
	}
	return ToText(c, fmt.Sprintf("row-%d", index+1))
}

// NormalizeSex maps m, male, 남 and 남자 to "M". Anything else, female
// tokens and blanks included, is "F".
func NormalizeSex(c Cell) string {
	if maleTokens[normalizeToken(ToText(c, "F"))] {
		return "M"
	}
	return "F"
}
