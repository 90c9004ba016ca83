package matcher

// Config holds matcher configuration
type Config struct {
	// IDPrefix is prepended to the 1-based pair number to build match ids.
	IDPrefix string // Default: "auto_"
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		IDPrefix: "auto_",
	}
}

// Pair links one source-A record to one source-B record by original index.
type Pair struct {
	A       int
	B       int
	MatchID string
}

// Result contains the pairs produced by one automatic pass, in the order
// the source-A records were visited.
type Result struct {
	Pairs []Pair
}

// MatchCount returns the number of pairs found.
func (r *Result) MatchCount() int {
	if r == nil {
		return 0
	}
	return len(r.Pairs)
}
