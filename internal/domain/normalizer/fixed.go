package normalizer

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

var half = big.NewFloat(0.5)

// FixedCents formats x with exactly two decimals, rounding the exact binary
// value of x half away from zero. This is the comparison key for amounts, so
// 1.005 (stored as 1.00499...) gives "1.00" and 0.125 gives "0.13".
// Negative values keep their sign even when they round to zero ("-0.00").
func FixedCents(x float64) string {
	switch {
	case math.IsNaN(x):
		return "NaN"
	case math.IsInf(x, 1):
		return "Infinity"
	case math.IsInf(x, -1):
		return "-Infinity"
	case math.Abs(x) >= 1e21:
		return strconv.FormatFloat(x, 'g', -1, 64)
	}

	sign := ""
	if x < 0 {
		sign = "-"
		x = -x
	}

	// 256 bits hold x*100 exactly for every finite float64 below 1e21.
	scaled := new(big.Float).SetPrec(256).SetFloat64(x)
	scaled.Mul(scaled, big.NewFloat(100))

	whole, _ := scaled.Int(nil)
	frac := new(big.Float).SetPrec(256).Sub(scaled, new(big.Float).SetPrec(256).SetInt(whole))
	if frac.Cmp(half) >= 0 {
		whole.Add(whole, big.NewInt(1))
	}

	digits := whole.String()
	if len(digits) < 3 {
		digits = strings.Repeat("0", 3-len(digits)) + digits
	}
	return sign + digits[:len(digits)-2] + "." + digits[len(digits)-2:]
}
