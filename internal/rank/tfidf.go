// Package rank scores normalized resumes against a normalized job
// description with TF-IDF cosine similarity.
package rank

import (
	"math"
	"regexp"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// termPattern matches runs of two or more word characters.
var termPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Scores returns the cosine similarity between jobDescription and each
// resume, index i for resumes[i]. The vocabulary and IDF weights are built
// from this corpus alone. Documents with no known terms score 0.
func Scores(jobDescription string, resumes []string) []float64 {
	scores := make([]float64, len(resumes))
	if len(resumes) == 0 {
		return scores
	}

	corpus := make([][]string, 0, len(resumes)+1)
	corpus = append(corpus, terms(jobDescription))
	for _, r := range resumes {
		corpus = append(corpus, terms(r))
	}

	m := tfidfMatrix(corpus)
	if m == nil {
		return scores
	}

	query := m.RawRowView(0)
	if floats.Norm(query, 2) == 0 {
		return scores
	}
	for i := range resumes {
		scores[i] = clamp(floats.Dot(query, m.RawRowView(i+1)))
	}
	return scores
}

func terms(doc string) []string {
	return termPattern.FindAllString(doc, -1)
}

// tfidfMatrix builds the L2-normalized document-term matrix with smoothed
// IDF, idf(t) = ln((1+n)/(1+df(t))) + 1. Returns nil for an empty vocabulary.
func tfidfMatrix(corpus [][]string) *mat.Dense {
	df := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]struct{}, len(doc))
		for _, t := range doc {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}
	if len(df) == 0 {
		return nil
	}

	vocab := make([]string, 0, len(df))
	for t := range df {
		vocab = append(vocab, t)
	}
	sort.Strings(vocab)
	index := make(map[string]int, len(vocab))
	for i, t := range vocab {
		index[t] = i
	}

	n := float64(len(corpus))
	idf := make([]float64, len(vocab))
	for i, t := range vocab {
		idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	m := mat.NewDense(len(corpus), len(vocab), nil)
	for row, doc := range corpus {
		vec := m.RawRowView(row)
		for _, t := range doc {
			vec[index[t]]++
		}
		floats.Mul(vec, idf)
		if norm := floats.Norm(vec, 2); norm > 0 {
			floats.Scale(1/norm, vec)
		}
	}
	return m
}

func clamp(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
