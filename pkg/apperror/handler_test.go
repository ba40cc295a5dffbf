package apperror

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:       http.StatusNotFound,
		KindConflict:       http.StatusConflict,
		KindSchemaMismatch: http.StatusUnprocessableEntity,
		KindExtractor:      http.StatusUnprocessableEntity,
		KindScorer:         http.StatusUnprocessableEntity,
		KindTransient:      http.StatusServiceUnavailable,
		KindFatal:          http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, httpStatus(kind), "kind %s", kind)
	}
}

func TestHTTPErrorHandler_ClassifiedError(t *testing.T) {
	handler := HTTPErrorHandler(discardLogger())
	c, rec := newTestContext()

	handler(NotFound("transaction", int64(9)), c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestHTTPErrorHandler_EchoHTTPError(t *testing.T) {
	handler := HTTPErrorHandler(discardLogger())
	c, rec := newTestContext()

	handler(echo.NewHTTPError(http.StatusBadRequest, "bad input"), c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad input")
}

func TestHTTPErrorHandler_UnclassifiedError(t *testing.T) {
	handler := HTTPErrorHandler(discardLogger())
	c, rec := newTestContext()

	handler(errors.New("something broke"), c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_error")
}

func TestHTTPErrorHandler_AlreadyCommitted_NoOverwrite(t *testing.T) {
	handler := HTTPErrorHandler(discardLogger())
	c, rec := newTestContext()

	require.NoError(t, c.String(http.StatusOK, "done"))
	handler(Fatal(errors.New("too late")), c)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHTTPErrorHandler_HeadRequest_NoBody(t *testing.T) {
	handler := HTTPErrorHandler(discardLogger())
	e := echo.New()
	req := httptest.NewRequest(http.MethodHead, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler(Conflict("version race"), c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, rec.Body.String())
}
