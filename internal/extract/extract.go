// Package extract turns uploaded resume files into raw text.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format is the declared container format of an uploaded document.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	// ErrUnsupportedFormat is returned for anything that is neither PDF nor DOCX.
	ErrUnsupportedFormat = errors.New("unsupported file type")
	// ErrExtraction signals unreadable or corrupt content for the declared format.
	ErrExtraction = errors.New("text extraction failed")
)

// FormatFromMIME maps a MIME type to a supported format.
func FormatFromMIME(mime string) (Format, error) {
	// strip parameters such as "; charset=binary"
	base, _, _ := strings.Cut(mime, ";")
	switch strings.ToLower(strings.TrimSpace(base)) {
	case mimePDF:
		return FormatPDF, nil
	case mimeDOCX:
		return FormatDOCX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mime)
	}
}

// FormatFromFilename maps a file extension to a supported format.
func FormatFromFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// MIME returns the canonical MIME type of the format.
func (f Format) MIME() string {
	switch f {
	case FormatPDF:
		return mimePDF
	case FormatDOCX:
		return mimeDOCX
	default:
		return ""
	}
}

// Text extracts the raw text of data according to format.
// Empty content is not an error and yields an empty string.
func Text(format Format, data []byte) (string, error) {
	switch format {
	case FormatPDF:
		if len(data) == 0 {
			return "", nil
		}
		return pdfText(data)
	case FormatDOCX:
		if len(data) == 0 {
			return "", nil
		}
		return docxText(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
	}
}
