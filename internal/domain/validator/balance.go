// Package validator provides validation logic for reconciliation actions.
//
// The balance validator checks that the amounts selected on each side of a
// manual match net to zero before the group is committed. The quality
// assessment counts records whose key values fell back to defaults during
// normalization.
package validator

import (
	"fmt"
	"math"
)

// BalanceTolerance is the largest absolute difference, exclusive, at which
// two selections are considered balanced.
const BalanceTolerance = 0.01

// BalanceValidation contains the result of comparing two selections.
type BalanceValidation struct {
	// Valid is true if the sums differ by less than BalanceTolerance
	Valid bool

	// SumA is the sum of the source-A amounts
	SumA float64

	// SumB is the sum of the source-B amounts
	SumB float64

	// Difference is SumA - SumB
	Difference float64

	// Reason explains why validation failed (empty if valid)
	Reason string
}

// ValidateBalance sums both sides and compares them. Sums are not rounded
// before the comparison.
func ValidateBalance(amountsA, amountsB []float64) *BalanceValidation {
	sumA := Sum(amountsA)
	sumB := Sum(amountsB)
	diff := sumA - sumB

	result := &BalanceValidation{
		SumA:       sumA,
		SumB:       sumB,
		Difference: diff,
	}

	if math.Abs(diff) < BalanceTolerance {
		result.Valid = true
		return result
	}

	if diff > 0 {
		result.Reason = fmt.Sprintf("source A (%.2f) exceeds source B (%.2f) by %.2f",
			sumA, sumB, diff)
	} else {
		result.Reason = fmt.Sprintf("source B (%.2f) exceeds source A (%.2f) by %.2f",
			sumB, sumA, -diff)
	}
	return result
}

// Sum adds amounts in the order given.
func Sum(amounts []float64) float64 {
	var total float64
	for _, a := range amounts {
		total += a
	}
	return total
}
