package validator

import "github.com/eshaffer321/ledger-reconciler/internal/domain/normalizer"

// Quality counts records whose normalized values are suspicious.
type Quality struct {
	Records           int `json:"records"`
	EmptyIdentifiers  int `json:"empty_identifiers"`
	ZeroAmounts       int `json:"zero_amounts"`
	UnparsableAmounts int `json:"unparsable_amounts"`
}

// Clean reports whether no record was flagged.
func (q Quality) Clean() bool {
	return q.EmptyIdentifiers == 0 && q.ZeroAmounts == 0 && q.UnparsableAmounts == 0
}

// AssessQuality tallies the data-quality flags of a collection. An
// unparsable amount is also counted as a zero amount.
func AssessQuality(values []normalizer.Value) Quality {
	q := Quality{Records: len(values)}
	for _, v := range values {
		if v.Identifier == "" {
			q.EmptyIdentifiers++
		}
		if v.Amount == 0 {
			q.ZeroAmounts++
		}
		if v.Unparsable {
			q.UnparsableAmounts++
		}
	}
	return q
}
