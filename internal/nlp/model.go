// Package nlp normalizes free text into space-joined lemmas using a fixed
// English language model.
package nlp

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/jdkato/prose/v2"
)

// ErrModelUnavailable is returned when the language model cannot be loaded.
var ErrModelUnavailable = errors.New("language model unavailable")

// Model is the read-only English language model: prose tokenizer and
// tagger, golem lemma dictionary and the stopword table. It is never
// mutated after LoadModel returns, so it is safe for concurrent use.
type Model struct {
	tagger     *prose.Model
	lemmatizer *golem.Lemmatizer
	stopWords  map[string]struct{}
}

// LoadModel builds a language model. Callers serving requests should use
// Default instead, which loads it once per process.
func LoadModel() (*Model, error) {
	lemmatizer, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("%w: load lemma dictionary: %v", ErrModelUnavailable, err)
	}

	tagger, err := loadTagger()
	if err != nil {
		return nil, fmt.Errorf("%w: load tagger: %v", ErrModelUnavailable, err)
	}

	return &Model{
		tagger:     tagger,
		lemmatizer: lemmatizer,
		stopWords:  englishStopWords,
	}, nil
}

// loadTagger decodes the perceptron weights embedded in prose. prose panics
// on a decode failure instead of returning it.
func loadTagger() (tagger *prose.Model, err error) {
	defer func() {
		if r := recover(); r != nil {
			tagger, err = nil, fmt.Errorf("decode weights: %v", r)
		}
	}()

	doc, err := prose.NewDocument("warm up", prose.WithSegmentation(false), prose.WithExtraction(false))
	if err != nil {
		return nil, err
	}
	if doc.Model == nil {
		return nil, errors.New("no tagger model")
	}
	return doc.Model, nil
}

var (
	defaultOnce  sync.Once
	defaultModel *Model
	defaultErr   error
)

// Default returns the process-wide model, loading it on first use. A failed
// load is not retried; every later call returns the same error.
func Default() (*Model, error) {
	defaultOnce.Do(func() {
		defaultModel, defaultErr = LoadModel()
	})
	return defaultModel, defaultErr
}
