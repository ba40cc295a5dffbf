package apperror

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	e := New(KindConflict, "version race")
	assert.Equal(t, "conflict: version race", e.Error())

	wrapped := e.WithInternal(errors.New("boom"))
	assert.Contains(t, wrapped.Error(), "conflict: version race")
	assert.Contains(t, wrapped.Error(), "boom")
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	e := New(KindTransient, "retry me").WithInternal(cause)
	assert.Equal(t, cause, errors.Unwrap(e))
}

func TestError_WithMessage(t *testing.T) {
	e := New(KindNotFound, "original")
	updated := e.WithMessage("replaced")
	assert.Equal(t, "original", e.Message)
	assert.Equal(t, "replaced", updated.Message)
	assert.Equal(t, e.Kind, updated.Kind)
}

func TestIs(t *testing.T) {
	e := New(KindSchemaMismatch, "mismatch")
	assert.True(t, Is(e, KindSchemaMismatch))
	assert.False(t, Is(e, KindConflict))
	assert.False(t, Is(errors.New("plain"), KindSchemaMismatch))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(New(KindConflict, "x")))
	assert.Equal(t, KindFatal, KindOf(errors.New("unclassified")))
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, KindTransient, KindOf(Transient(errors.New("io"))))
	assert.Equal(t, KindNotFound, KindOf(NotFound("transaction", 42)))
	assert.Equal(t, KindConflict, KindOf(Conflict("race")))
	assert.Equal(t, KindSchemaMismatch, KindOf(SchemaMismatch(2, 1)))
	assert.Equal(t, KindExtractor, KindOf(ExtractorError(errors.New("bad payload"))))
	assert.Equal(t, KindScorer, KindOf(ScorerError(errors.New("bad rule"))))
	assert.Equal(t, KindFatal, KindOf(Fatal(errors.New("store down"))))
}

func TestNotFound_MessageIncludesResourceAndID(t *testing.T) {
	err := NotFound("transaction", int64(7))
	assert.Contains(t, err.Message, "transaction")
	assert.Contains(t, err.Message, "7")
}
