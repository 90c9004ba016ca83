// Package normalizer canonicalizes raw identifier and amount values into the
// primitive keys the matcher compares.
//
// Normalization is lenient by design: a missing identifier becomes the empty
// string and an unparsable amount becomes zero. Nothing here returns an
// error; the Unparsable flag on Value lets callers count bad amounts.
package normalizer

import (
	"strconv"
	"strings"
	"time"

	"github.com/eshaffer321/ledger-reconciler/internal/domain/record"
)

// Value is the normalized view of a record.
type Value struct {
	Identifier string
	Amount     float64
	// Unparsable is true when the amount column held text that did not
	// parse as a number. Amount is zero in that case.
	Unparsable bool
}

// Normalize computes the normalized view of fields. An empty column name
// means that side was not requested and is left at its zero value.
func Normalize(fields record.Fields, identifierColumn, amountColumn string) Value {
	var v Value
	if identifierColumn != "" {
		v.Identifier = Identifier(fields[identifierColumn])
	}
	if amountColumn != "" {
		amount, ok := Amount(fields[amountColumn])
		v.Amount = amount
		v.Unparsable = !ok
	}
	return v
}

// NormalizeRecord is Normalize applied with a column mapping.
func NormalizeRecord(r record.Record, cols record.ColumnMapping) Value {
	return Normalize(r.Fields, cols.Identifier, cols.Amount)
}

// Identifier keeps only the decimal digits of v. Falsy values (nil, empty
// string, zero, false) yield the empty string.
func Identifier(v any) string {
	if isFalsy(v) {
		return ""
	}
	return digitsOnly(text(v))
}

// Amount returns v as a number. Numeric values pass through unchanged. Text
// is stripped down to digits and separators and then parsed; the boolean is
// false when that fails, in which case the amount is zero.
func Amount(v any) (float64, bool) {
	if n, ok := numeric(v); ok {
		return n, true
	}
	s := "0"
	if !isFalsy(v) {
		s = text(v)
	}
	return parseAmountText(s)
}

func parseAmountText(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := normalizeSeparators(b.String())
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// normalizeSeparators rewrites s so that at most one '.' remains, acting as
// the decimal point.
//
//	1.234,50 -> 1234.50   (both kinds: the last one is decimal)
//	1,234.50 -> 1234.50
//	1,5      -> 1.5       (one kind, once: decimal)
//	1.234.567 -> 1234567  (one kind, repeated: grouping)
func normalizeSeparators(s string) string {
	lastComma := strings.LastIndexByte(s, ',')
	lastDot := strings.LastIndexByte(s, '.')

	switch {
	case lastComma >= 0 && lastDot >= 0:
		decimal := max(lastComma, lastDot)
		var b strings.Builder
		for i := 0; i < len(s); i++ {
			switch {
			case i == decimal:
				b.WriteByte('.')
			case s[i] == ',' || s[i] == '.':
			default:
				b.WriteByte(s[i])
			}
		}
		return b.String()
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case lastDot >= 0 && strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func isFalsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	}
	if n, ok := numeric(v); ok {
		return n == 0 || n != n
	}
	return false
}

// text renders v the way a spreadsheet cell would read as plain text.
// Floats never use exponent notation so long identifiers keep their digits.
func text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	}
	if n, ok := numeric(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return ""
}
