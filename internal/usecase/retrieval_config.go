package usecase

import "fmt"

// SizingPolicy maps the answer mode to how many chunks are fetched per search
// term and how much of each chunk reaches the prompt.
type SizingPolicy struct {
	DetailedMinTopK  int
	DetailedMaxChars int
	ConciseMaxTopK   int
	ConciseMaxChars  int
}

// DefaultSizingPolicy returns the production sizing: detailed answers fetch at
// least 4 chunks of up to 500 characters, concise answers at most 2 of 250.
func DefaultSizingPolicy() SizingPolicy {
	return SizingPolicy{
		DetailedMinTopK:  4,
		DetailedMaxChars: 500,
		ConciseMaxTopK:   2,
		ConciseMaxChars:  250,
	}
}

// Effective returns the per-term result count and the per-chunk character cap.
func (p SizingPolicy) Effective(topK int, detailed bool) (effectiveTopK, maxChars int) {
	if detailed {
		return max(topK, p.DetailedMinTopK), p.DetailedMaxChars
	}
	return min(topK, p.ConciseMaxTopK), p.ConciseMaxChars
}

// Validate checks if the sizing policy is valid.
func (p SizingPolicy) Validate() error {
	if p.DetailedMinTopK <= 0 {
		return fmt.Errorf("detailed min topK must be positive, got %d", p.DetailedMinTopK)
	}
	if p.ConciseMaxTopK <= 0 {
		return fmt.Errorf("concise max topK must be positive, got %d", p.ConciseMaxTopK)
	}
	if p.DetailedMaxChars <= 0 || p.ConciseMaxChars <= 0 {
		return fmt.Errorf("max chars per chunk must be positive, got detailed=%d concise=%d", p.DetailedMaxChars, p.ConciseMaxChars)
	}
	return nil
}
