// Package screening runs the ranking pipeline for one request: extract the
// text of every uploaded resume, normalize it alongside the job
// description and score it with TF-IDF cosine similarity.
package screening

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muhammadolammi/jobrank/internal/extract"
	"github.com/muhammadolammi/jobrank/internal/metrics"
	"github.com/muhammadolammi/jobrank/internal/rank"
)

// Document is one uploaded resume. ID must be unique within a request.
type Document struct {
	ID      string
	Content []byte
	Format  extract.Format
}

// Request is a job description plus resumes in upload order.
type Request struct {
	JobDescription string
	Documents      []Document
}

// FailurePolicy decides what an unreadable document does to the request.
type FailurePolicy int

const (
	// PolicyAbort fails the whole request on the first unreadable document.
	PolicyAbort FailurePolicy = iota
	// PolicySkip ranks the readable documents and reports the rest as failures.
	PolicySkip
)

// Failure is a document left out of the ranking under PolicySkip.
type Failure struct {
	ID    string `json:"candidate"`
	Error string `json:"error"`
}

// Outcome is the result of a ranking request.
type Outcome struct {
	Results  []rank.ScoredResult
	Failures []Failure
}

// Normalizer turns raw text into space-joined lemmas.
type Normalizer interface {
	Normalize(text string) (string, error)
}

// Screener ranks requests. It holds no per-request state.
type Screener struct {
	normalizer Normalizer
	policy     FailurePolicy
	logger     *zap.Logger
}

// New creates a Screener with PolicyAbort.
func New(normalizer Normalizer, logger *zap.Logger) *Screener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Screener{normalizer: normalizer, policy: PolicyAbort, logger: logger}
}

// WithPolicy sets the failure policy.
func (s *Screener) WithPolicy(p FailurePolicy) *Screener {
	s.policy = p
	return s
}

// Validate rejects requests the pipeline must never see.
func Validate(req Request) error {
	if strings.TrimSpace(req.JobDescription) == "" {
		return ErrEmptyJobDescription
	}
	if len(req.Documents) == 0 {
		return ErrNoDocuments
	}
	seen := make(map[string]struct{}, len(req.Documents))
	for _, d := range req.Documents {
		if _, ok := seen[d.ID]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateDocument, d.ID)
		}
		seen[d.ID] = struct{}{}
	}
	return nil
}

// Rank runs the pipeline. Documents are processed sequentially in upload
// order; ctx is checked between documents.
func (s *Screener) Rank(ctx context.Context, req Request) (Outcome, error) {
	start := time.Now()
	out, err := s.rank(ctx, req)

	status := "ok"
	if err != nil {
		status = "failed"
	}
	metrics.RankingsTotal.WithLabelValues(status).Inc()
	metrics.RankingDuration.Observe(time.Since(start).Seconds())
	return out, err
}

func (s *Screener) rank(ctx context.Context, req Request) (Outcome, error) {
	if err := Validate(req); err != nil {
		return Outcome{}, err
	}

	jobDesc, err := s.normalizer.Normalize(req.JobDescription)
	if err != nil {
		return Outcome{}, fmt.Errorf("normalize job description: %w", err)
	}

	var out Outcome
	ids := make([]string, 0, len(req.Documents))
	texts := make([]string, 0, len(req.Documents))
	for _, doc := range req.Documents {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}

		raw, err := extract.Text(doc.Format, doc.Content)
		if err != nil {
			metrics.DocumentsTotal.WithLabelValues(string(doc.Format), "failed").Inc()
			docErr := &DocumentError{ID: doc.ID, Err: err}
			if s.policy == PolicyAbort || !errors.Is(err, extract.ErrExtraction) {
				return Outcome{}, docErr
			}
			s.logger.Warn("skipping unreadable resume", zap.String("document", doc.ID), zap.Error(err))
			out.Failures = append(out.Failures, Failure{ID: doc.ID, Error: err.Error()})
			continue
		}
		metrics.DocumentsTotal.WithLabelValues(string(doc.Format), "ok").Inc()

		text, err := s.normalizer.Normalize(raw)
		if err != nil {
			return Outcome{}, fmt.Errorf("normalize %q: %w", doc.ID, err)
		}
		if text == "" {
			s.logger.Debug("resume has no content terms", zap.String("document", doc.ID))
		}
		ids = append(ids, doc.ID)
		texts = append(texts, text)
	}

	out.Results, err = rank.Order(ids, rank.Scores(jobDesc, texts))
	if err != nil {
		return Outcome{}, err
	}
	return out, nil
}
