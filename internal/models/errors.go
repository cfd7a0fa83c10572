package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of ingestion and query resolution.
type ErrorKind string

const (
	// KindUnsupportedFormat: the file extension has no loader. Rejected before processing.
	KindUnsupportedFormat ErrorKind = "UNSUPPORTED_FORMAT"
	// KindLoadFailure: the loader failed or produced no text.
	KindLoadFailure ErrorKind = "LOAD_FAILURE"
	// KindIndexWriteFailure: embedding or writing chunks failed; the write may be partial.
	KindIndexWriteFailure ErrorKind = "INDEX_WRITE_FAILURE"
	// KindGenerationFailure: the answer generator failed or returned nothing.
	KindGenerationFailure ErrorKind = "GENERATION_FAILURE"
	// KindScopeMiss: a requested document had no matching chunk. Never fatal.
	KindScopeMiss ErrorKind = "SCOPE_MISS"
	// KindRetrievalFailure: embedding the question or reading the index failed.
	KindRetrievalFailure ErrorKind = "RETRIEVAL_FAILURE"
)

// Error is a tagged error carrying its kind and an optional cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, ErrLoadFailure) matches any load failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewError creates an Error of the given kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError creates an Error of the given kind with an underlying cause.
func WrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Sentinels for errors.Is.
var (
	ErrUnsupportedFormat = NewError(KindUnsupportedFormat, "unsupported file format")
	ErrLoadFailure       = NewError(KindLoadFailure, "document could not be loaded")
	ErrIndexWriteFailure = NewError(KindIndexWriteFailure, "vector index write failed")
	ErrGenerationFailure = NewError(KindGenerationFailure, "answer generation failed")
	ErrScopeMiss         = NewError(KindScopeMiss, "document not found in vector index")
	ErrRetrievalFailure  = NewError(KindRetrievalFailure, "context retrieval failed")
)

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRetryable reports whether err comes from a provider or the index (worth retrying
// by the caller) rather than from the input itself.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindIndexWriteFailure, KindGenerationFailure, KindRetrievalFailure:
		return true
	default:
		return false
	}
}
