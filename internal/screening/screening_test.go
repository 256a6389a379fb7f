package screening

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhammadolammi/jobrank/internal/extract"
	"github.com/muhammadolammi/jobrank/internal/extract/extracttest"
	"github.com/muhammadolammi/jobrank/internal/nlp"
)

// lowerNormalizer lowercases text; enough for pipeline plumbing tests.
type lowerNormalizer struct {
	err error
}

func (n lowerNormalizer) Normalize(text string) (string, error) {
	if n.err != nil {
		return "", n.err
	}
	return strings.ToLower(strings.TrimSpace(text)), nil
}

func docx(id string, paragraphs ...string) Document {
	return Document{ID: id, Content: extracttest.DOCX(paragraphs...), Format: extract.FormatDOCX}
}

func corrupt(id string) Document {
	return Document{ID: id, Content: []byte("garbage"), Format: extract.FormatDOCX}
}

func TestValidate(t *testing.T) {
	ok := Request{JobDescription: "go developer", Documents: []Document{docx("a.docx", "go")}}
	assert.NoError(t, Validate(ok))

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"empty job description", Request{JobDescription: "  ", Documents: ok.Documents}, ErrEmptyJobDescription},
		{"no documents", Request{JobDescription: "go"}, ErrNoDocuments},
		{"duplicate ids", Request{JobDescription: "go", Documents: []Document{docx("a", "x"), docx("a", "y")}}, ErrDuplicateDocument},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.req)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRank_OneResultPerDocument(t *testing.T) {
	s := New(lowerNormalizer{}, nil)
	out, err := s.Rank(context.Background(), Request{
		JobDescription: "golang kubernetes",
		Documents: []Document{
			docx("a.docx", "java spring"),
			docx("b.docx", "golang kubernetes"),
			docx("c.docx", "golang"),
		},
	})
	require.NoError(t, err)
	require.Len(t, out.Results, 3)
	assert.Empty(t, out.Failures)
	assert.Equal(t, "b.docx", out.Results[0].ID)
	assert.Equal(t, "c.docx", out.Results[1].ID)
	assert.Equal(t, "a.docx", out.Results[2].ID)
	assert.Equal(t, 0.0, out.Results[2].Score)
}

func TestRank_TiesKeepUploadOrder(t *testing.T) {
	s := New(lowerNormalizer{}, nil)
	out, err := s.Rank(context.Background(), Request{
		JobDescription: "rust",
		Documents:      []Document{docx("first", "cobol"), docx("second", "fortran"), docx("third", "pascal")},
	})
	require.NoError(t, err)
	ids := []string{out.Results[0].ID, out.Results[1].ID, out.Results[2].ID}
	assert.Equal(t, []string{"first", "second", "third"}, ids)
}

func TestRank_AbortOnUnreadableDocument(t *testing.T) {
	s := New(lowerNormalizer{}, nil)
	_, err := s.Rank(context.Background(), Request{
		JobDescription: "go",
		Documents:      []Document{docx("ok.docx", "go"), corrupt("bad.docx")},
	})
	require.Error(t, err)

	var docErr *DocumentError
	require.True(t, errors.As(err, &docErr))
	assert.Equal(t, "bad.docx", docErr.ID)
	assert.ErrorIs(t, err, extract.ErrExtraction)
}

func TestRank_SkipUnreadableDocument(t *testing.T) {
	s := New(lowerNormalizer{}, nil).WithPolicy(PolicySkip)
	out, err := s.Rank(context.Background(), Request{
		JobDescription: "go",
		Documents:      []Document{corrupt("bad.docx"), docx("ok.docx", "go")},
	})
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "ok.docx", out.Results[0].ID)
	require.Len(t, out.Failures, 1)
	assert.Equal(t, "bad.docx", out.Failures[0].ID)
}

func TestRank_SkipStillFailsUnsupportedFormat(t *testing.T) {
	s := New(lowerNormalizer{}, nil).WithPolicy(PolicySkip)
	_, err := s.Rank(context.Background(), Request{
		JobDescription: "go",
		Documents:      []Document{{ID: "x.txt", Content: []byte("go"), Format: extract.Format("txt")}},
	})
	assert.ErrorIs(t, err, extract.ErrUnsupportedFormat)
}

func TestRank_ValidationError(t *testing.T) {
	_, err := New(lowerNormalizer{}, nil).Rank(context.Background(), Request{JobDescription: "go"})
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestRank_NormalizerError(t *testing.T) {
	boom := errors.New("boom")
	_, err := New(lowerNormalizer{err: boom}, nil).Rank(context.Background(), Request{
		JobDescription: "go",
		Documents:      []Document{docx("a", "go")},
	})
	assert.ErrorIs(t, err, boom)
}

func TestRank_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(lowerNormalizer{}, nil).Rank(ctx, Request{
		JobDescription: "go",
		Documents:      []Document{docx("a", "go")},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRank_EndToEnd(t *testing.T) {
	model, err := nlp.Default()
	require.NoError(t, err)
	s := New(model, nil)

	out, err := s.Rank(context.Background(), Request{
		JobDescription: "Senior Python developer with machine learning experience",
		Documents: []Document{
			docx("python.docx", "Python developer, 5 years, ML projects"),
			docx("designer.docx", "Graphic designer, no programming"),
			{ID: "empty.pdf", Content: nil, Format: extract.FormatPDF},
		},
	})
	require.NoError(t, err)
	require.Len(t, out.Results, 3)

	scores := map[string]float64{}
	for _, r := range out.Results {
		scores[r.ID] = r.Score
	}
	assert.Equal(t, "python.docx", out.Results[0].ID)
	assert.Greater(t, scores["python.docx"], scores["designer.docx"])
	assert.InDelta(t, 0.0, scores["designer.docx"], 1e-9)
	assert.Equal(t, 0.0, scores["empty.pdf"])
}

func TestRank_SelfMatch(t *testing.T) {
	model, err := nlp.Default()
	require.NoError(t, err)

	jd := "Backend engineer building payment APIs in Go"
	out, err := New(model, nil).Rank(context.Background(), Request{
		JobDescription: jd,
		Documents:      []Document{docx("self.docx", jd)},
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, out.Results[0].Score, 1e-9)
}
