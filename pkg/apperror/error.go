// Package apperror classifies failures the way the processing pipeline needs
// to react to them: retry, local-retry-then-give-up, skip, or abort.
package apperror

import (
	"errors"
	"fmt"
)

// Kind is an abstract failure category, not a concrete error type. Callers
// branch on Kind to decide retry/skip/abort behavior; they should not type-
// assert on *Error fields beyond Kind and Unwrap().
type Kind string

const (
	// KindTransient covers network blips, deadlocks, and serialization
	// failures. The job's transaction is rolled back, leaving the row
	// unclaimed for the next poll; there is no backoff and no attempt limit.
	KindTransient Kind = "transient"

	// KindConflict covers a version race on insert or a uniqueness collision
	// on node upsert. Callers retry locally a bounded number of times.
	KindConflict Kind = "conflict"

	// KindNotFound means the referenced transaction no longer exists (a
	// previous delete occurred). The job is finished and skipped.
	KindNotFound Kind = "not_found"

	// KindSchemaMismatch means the stored feature schema's major version
	// differs from the current extractor's. The transaction is reprocessed
	// end to end, overwriting features.
	KindSchemaMismatch Kind = "schema_mismatch"

	// KindExtractor covers a caller-supplied FeatureExtractor failing.
	// Logged and treated as fatal for the job: the job is marked finished
	// to avoid blocking the queue, with an empty features row recorded.
	KindExtractor Kind = "extractor_error"

	// KindScorer covers a caller-supplied Scorer failing. Same handling as
	// KindExtractor.
	KindScorer Kind = "scorer_error"

	// KindFatal covers the store being unreachable or configuration being
	// invalid. The worker logs the failure and keeps polling; it does not
	// exit on its own, so an operator must intervene.
	KindFatal Kind = "fatal"
)

// Error is a classified failure: a Kind plus a human message and, usually,
// the underlying cause.
type Error struct {
	Kind     Kind
	Message  string
	Internal error
}

func (e *Error) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Internal
}

// WithInternal returns a copy of e with an internal error attached.
func (e *Error) WithInternal(err error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Internal: err}
}

// WithMessage returns a copy of e with a replaced message.
func (e *Error) WithMessage(message string) *Error {
	return &Error{Kind: e.Kind, Message: message, Internal: e.Internal}
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Is reports whether err (or anything it wraps) is an *Error of kind k.
func Is(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}

// KindOf extracts the Kind of err, defaulting to KindFatal for errors that
// were never classified — an unclassified error is the worst case, since
// nothing downstream knows how to recover from it.
func KindOf(err error) Kind {
	if ae, ok := err.(*Error); ok {
		return ae.Kind
	}
	return KindFatal
}

// Common sentinel errors for the store layer.
var (
	ErrNotFound = New(KindNotFound, "record not found")
	ErrConflict = New(KindConflict, "conflicting concurrent write")
)

// Transient wraps err as a retryable failure.
func Transient(err error) *Error {
	return New(KindTransient, "transient failure").WithInternal(err)
}

// NotFound builds a not-found error naming the missing resource.
func NotFound(resource string, id any) *Error {
	return New(KindNotFound, fmt.Sprintf("%s %v not found", resource, id))
}

// Conflict builds a conflict error with a custom message.
func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// SchemaMismatch builds a schema-mismatch error naming the expected/actual majors.
func SchemaMismatch(expectedMajor, actualMajor int) *Error {
	return New(KindSchemaMismatch, fmt.Sprintf("feature schema major mismatch: have %d, want %d", actualMajor, expectedMajor))
}

// ExtractorError wraps a FeatureExtractor failure.
func ExtractorError(err error) *Error {
	return New(KindExtractor, "feature extraction failed").WithInternal(err)
}

// ScorerError wraps a Scorer failure.
func ScorerError(err error) *Error {
	return New(KindScorer, "scoring failed").WithInternal(err)
}

// Fatal wraps an unrecoverable infrastructure failure.
func Fatal(err error) *Error {
	return New(KindFatal, "fatal error").WithInternal(err)
}
