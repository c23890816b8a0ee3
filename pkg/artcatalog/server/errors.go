package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ukaji3/artcatalog-go/pkg/artcatalog"
	"github.com/ukaji3/artcatalog-go/pkg/artcatalog/graph"
)

// Error types in response bodies.
const (
	errTypeConfiguration = "configuration_error"
	errTypeNotFound      = "not_found_error"
	errTypeUpstream      = "upstream_error"
	errTypeInternal      = "internal_error"
)

// errorStatus classifies err. fallback prefixes the message of unexpected
// errors, e.g. "catalog generation failed".
func errorStatus(err error, fallback string) (int, string, string) {
	var cfgErr *artcatalog.ConfigError
	var notFound *artcatalog.NotFoundError
	var statusErr *graph.StatusError
	var transportErr *graph.TransportError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound, errTypeNotFound, notFound.Error()
	case errors.As(err, &cfgErr):
		return http.StatusServiceUnavailable, errTypeConfiguration, cfgErr.Error()
	case errors.As(err, &statusErr):
		return http.StatusBadGateway, errTypeUpstream, statusErr.Error()
	case errors.As(err, &transportErr):
		return http.StatusBadGateway, errTypeUpstream, transportErr.Error()
	default:
		return http.StatusInternalServerError, errTypeInternal, fallback + ": " + err.Error()
	}
}

// handleError writes the JSON error body for err.
func (h *Handler) handleError(c echo.Context, err error, fallback string) error {
	status, errType, message := errorStatus(err, fallback)
	if status >= http.StatusInternalServerError {
		h.logger.Error(fallback, "path", c.Request().URL.Path, "status", status, "error", err)
	}
	return c.JSON(status, map[string]any{
		"error": map[string]any{
			"type":    errType,
			"message": message,
		},
	})
}
