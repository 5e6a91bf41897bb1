package contracts

import "errors"

var (
	// ErrUnsupportedType is returned for file types other than PDF, DOCX
	// and plain text.
	ErrUnsupportedType = errors.New("contracts: unsupported file type")

	// ErrNotFound is returned when a stored document does not exist.
	ErrNotFound = errors.New("contracts: document not found")

	// ErrEmptyDocument is returned when no text could be extracted.
	ErrEmptyDocument = errors.New("contracts: document contains no extractable text")
)
