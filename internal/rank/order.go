package rank

import (
	"fmt"
	"sort"
)

// ScoredResult pairs a document identifier with its similarity score.
type ScoredResult struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Order pairs ids with scores and sorts by descending score. Equal scores
// keep upload order.
func Order(ids []string, scores []float64) ([]ScoredResult, error) {
	if len(ids) != len(scores) {
		return nil, fmt.Errorf("rank: %d ids but %d scores", len(ids), len(scores))
	}

	results := make([]ScoredResult, len(ids))
	for i := range ids {
		results[i] = ScoredResult{ID: ids[i], Score: scores[i]}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}
