package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScores_LengthAndRange(t *testing.T) {
	resumes := []string{"python developer", "go developer kubernetes", "", "designer", "python python python"}
	scores := Scores("senior python developer", resumes)

	require.Len(t, scores, len(resumes))
	for i, s := range scores {
		assert.GreaterOrEqual(t, s, 0.0, "score %d", i)
		assert.LessOrEqual(t, s, 1.0, "score %d", i)
	}
}

func TestScores_SelfMatch(t *testing.T) {
	jd := "senior python developer machine learn experience"
	scores := Scores(jd, []string{jd})
	require.Len(t, scores, 1)
	assert.InDelta(t, 1.0, scores[0], 1e-9)
}

func TestScores_DisjointVocabulary(t *testing.T) {
	scores := Scores("python developer", []string{"graphic designer"})
	assert.Equal(t, []float64{0}, scores)
}

func TestScores_EmptyDocuments(t *testing.T) {
	t.Run("empty resume", func(t *testing.T) {
		scores := Scores("python developer", []string{"", "python"})
		assert.Equal(t, 0.0, scores[0])
		assert.Greater(t, scores[1], 0.0)
	})

	t.Run("empty job description", func(t *testing.T) {
		assert.Equal(t, []float64{0, 0}, Scores("", []string{"python", "go"}))
	})

	t.Run("empty corpus", func(t *testing.T) {
		assert.Equal(t, []float64{0, 0}, Scores("", []string{"", ""}))
	})

	t.Run("no resumes", func(t *testing.T) {
		assert.Empty(t, Scores("python", nil))
	})
}

func TestScores_SingleCharacterTermsIgnored(t *testing.T) {
	// "5" and "c" are below the two-character term length
	assert.Equal(t, []float64{0}, Scores("c 5", []string{"c 5"}))
}

func TestScores_OrderPreserving(t *testing.T) {
	jd := "python developer machine learn"
	a := "python developer year ml project"
	b := "graphic designer programming"
	c := "machine learn research"

	forward := Scores(jd, []string{a, b, c})
	permuted := Scores(jd, []string{c, a, b})

	assert.InDelta(t, forward[0], permuted[1], 1e-12)
	assert.InDelta(t, forward[1], permuted[2], 1e-12)
	assert.InDelta(t, forward[2], permuted[0], 1e-12)
}

func TestScores_Deterministic(t *testing.T) {
	jd := "go kubernetes aws"
	resumes := []string{"go aws", "kubernetes", "java spring"}
	assert.Equal(t, Scores(jd, resumes), Scores(jd, resumes))
}

func TestScores_MoreOverlapScoresHigher(t *testing.T) {
	scores := Scores("python developer machine learn", []string{
		"python developer",
		"python",
	})
	assert.Greater(t, scores[0], scores[1])
}

func TestOrder_DescendingStable(t *testing.T) {
	ids := []string{"a.pdf", "b.pdf", "c.docx", "d.pdf"}
	scores := []float64{0.2, 0.9, 0.2, 0.5}

	got, err := Order(ids, scores)
	require.NoError(t, err)
	assert.Equal(t, []ScoredResult{
		{ID: "b.pdf", Score: 0.9},
		{ID: "d.pdf", Score: 0.5},
		{ID: "a.pdf", Score: 0.2},
		{ID: "c.docx", Score: 0.2},
	}, got)
}

func TestOrder_LengthMismatch(t *testing.T) {
	_, err := Order([]string{"a"}, nil)
	assert.Error(t, err)
}
