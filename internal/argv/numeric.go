package argv

import (
	"math"
	"strconv"
	"strings"
)

// parseCInt reads an integer prefix the way strtol does: leading whitespace, an optional
// sign, then digits in base (0 picks 16 for "0x", 8 for a leading "0", else 10). Parsing
// stops at the first character that is not a digit. ok is false when no digit was read.
// Out of range values saturate.
func parseCInt(s string, base int) (n int64, ok bool) {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}

	hasHexPrefix := i+2 < len(s) && s[i] == '0' && lowerASCII(s[i+1]) == 'x' && digitValue(s[i+2]) < 16
	switch {
	case (base == 0 || base == 16) && hasHexPrefix:
		base = 16
		i += 2
	case base == 0 && i < len(s) && s[i] == '0':
		base = 8
	case base == 0:
		base = 10
	}

	var acc uint64
	overflow := false
	start := i
	for ; i < len(s); i++ {
		d := digitValue(s[i])
		if d >= base {
			break
		}
		if !overflow {
			if acc > (math.MaxUint64-uint64(d))/uint64(base) {
				overflow = true
			} else {
				acc = acc*uint64(base) + uint64(d)
			}
		}
	}
	if i == start {
		return 0, false
	}

	if neg {
		if overflow || acc > 1<<63 {
			return math.MinInt64, true
		}
		return -int64(acc), true
	}
	if overflow || acc > math.MaxInt64 {
		return math.MaxInt64, true
	}
	return int64(acc), true
}

// parseCFloat reads a floating point prefix the way strtod does: decimal and hexadecimal
// literals with optional exponents, "inf", "infinity" and "nan". ok is false when no
// number could be read.
func parseCFloat(s string) (f float64, ok bool) {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	sign := s[start:i]
	rest := strings.ToLower(s[i:])

	switch {
	case strings.HasPrefix(rest, "infinity"), strings.HasPrefix(rest, "inf"):
		if sign == "-" {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	case strings.HasPrefix(rest, "nan"):
		return math.NaN(), true
	}

	var literal string
	if len(rest) > 2 && rest[0] == '0' && rest[1] == 'x' {
		if end, exp := scanMantissa(s[i+2:], 16); end > 0 {
			literal = sign + s[i:i+2+end]
			if !exp {
				literal += "p0"
			}
		}
	}
	if literal == "" {
		end, _ := scanMantissa(s[i:], 10)
		if end == 0 {
			return 0, false
		}
		literal = sign + s[i:i+end]
	}

	f, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		if ne, isNumErr := err.(*strconv.NumError); isNumErr && ne.Err == strconv.ErrRange {
			return f, true
		}
		return 0, false
	}
	return f, true
}

// scanMantissa returns the length of the longest prefix of s forming digits with an
// optional fraction and exponent (e for decimal, p for hex), and whether an exponent was
// included. A length of 0 means no digits were found.
func scanMantissa(s string, base int) (int, bool) {
	i, digits := 0, 0
	for i < len(s) && digitValue(s[i]) < base {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && digitValue(s[i]) < base {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}

	expChar := byte('e')
	if base == 16 {
		expChar = 'p'
	}
	if i < len(s) && lowerASCII(s[i]) == expChar {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expStart := j
		for j < len(s) && digitValue(s[j]) < 10 {
			j++
		}
		if j > expStart {
			return j, true
		}
	}
	return i, false
}

func digitValue(c byte) int {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0')
	case 'a' <= c && c <= 'z':
		return int(c-'a') + 10
	case 'A' <= c && c <= 'Z':
		return int(c-'A') + 10
	}
	return 99
}
