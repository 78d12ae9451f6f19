package retrieval

import "site-rag/internal/domain"

// MergeFirstSeen concatenates the per-term lists in order, keeping only the
// first occurrence of each chunk id. Results are never re-sorted by distance.
func MergeFirstSeen(lists [][]domain.RetrievedChunk) []domain.RetrievedChunk {
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	merged := make([]domain.RetrievedChunk, 0, total)
	seen := make(map[string]struct{}, total)
	for _, l := range lists {
		for _, c := range l {
			if _, ok := seen[c.ID]; ok {
				continue
			}
			seen[c.ID] = struct{}{}
			merged = append(merged, c)
		}
	}
	return merged
}
