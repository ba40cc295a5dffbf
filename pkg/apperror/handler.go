package apperror

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// httpStatus maps a Kind to the status code used by the admin/health surface.
// The processing pipeline itself has no HTTP surface; this exists only for
// the operator-facing endpoints registered by the health and store packages.
func httpStatus(k Kind) int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindSchemaMismatch, KindExtractor, KindScorer:
		return http.StatusUnprocessableEntity
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HTTPErrorHandler returns an Echo error handler that renders classified
// errors and anything else as a uniform JSON error body.
func HTTPErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		errorObj := map[string]any{
			"code":    "internal_error",
			"message": "an internal error occurred",
		}

		if appErr, ok := err.(*Error); ok {
			code = httpStatus(appErr.Kind)
			errorObj["code"] = string(appErr.Kind)
			errorObj["message"] = appErr.Message
		} else if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				errorObj["message"] = msg
			}
		}

		if code >= 500 {
			log.Error("request error", slog.Int("status", code), slog.String("error", err.Error()))
		}

		response := map[string]any{"error": errorObj}

		if c.Request().Method == http.MethodHead {
			c.NoContent(code)
		} else {
			c.JSON(code, response)
		}
	}
}
