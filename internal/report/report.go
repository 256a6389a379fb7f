// Package report renders ranked results as a text table, a CSV export and
// a JSON-friendly projection.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/muhammadolammi/jobrank/internal/rank"
)

// Entry is one row of a ranking as exposed to clients.
type Entry struct {
	Rank       int     `json:"rank"`
	Candidate  string  `json:"candidate"`
	Score      float64 `json:"score"`
	Percentage float64 `json:"percentage"`
}

// Entries projects ordered results into 1-based ranked entries.
func Entries(results []rank.ScoredResult) []Entry {
	entries := make([]Entry, len(results))
	for i, r := range results {
		entries[i] = Entry{
			Rank:       i + 1,
			Candidate:  r.ID,
			Score:      r.Score,
			Percentage: Percentage(r.Score),
		}
	}
	return entries
}

// Percentage converts a [0,1] score to a percentage rounded to two decimals.
func Percentage(score float64) float64 {
	return math.Round(score*100*100) / 100
}

// WriteCSV writes the export with columns Rank, Candidate, Score (percent).
func WriteCSV(w io.Writer, results []rank.ScoredResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Rank", "Candidate", "Score"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range Entries(results) {
		row := []string{
			strconv.Itoa(e.Rank),
			e.Candidate,
			strconv.FormatFloat(e.Percentage, 'f', 2, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", e.Rank, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable writes one human-readable line per ranked candidate.
func WriteTable(w io.Writer, results []rank.ScoredResult) error {
	for _, e := range Entries(results) {
		if _, err := fmt.Fprintf(w, "%d. %s - Similarity Score: %.2f\n", e.Rank, e.Candidate, e.Score); err != nil {
			return err
		}
	}
	return nil
}
