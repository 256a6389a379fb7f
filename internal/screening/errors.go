package screening

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the parent of every request validation failure.
	ErrValidation = errors.New("invalid ranking request")

	ErrEmptyJobDescription = fmt.Errorf("%w: job description is empty", ErrValidation)
	ErrNoDocuments         = fmt.Errorf("%w: no resumes uploaded", ErrValidation)
	ErrDuplicateDocument   = fmt.Errorf("%w: duplicate resume identifier", ErrValidation)
)

// DocumentError reports the document whose extraction failed.
type DocumentError struct {
	ID  string
	Err error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %q: %v", e.ID, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }
