// Package server exposes the catalog service over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ukaji3/artcatalog-go/pkg/artcatalog"
	"github.com/ukaji3/artcatalog-go/pkg/artcatalog/graph"
)

// Header names used by the catalog and media endpoints.
const (
	HeaderCatalogCache = "X-Catalog-Cache"
	HeaderMediaCache   = "X-Media-Cache"
)

const immutableCacheControl = "public, max-age=31536000, immutable"

// CatalogService is the part of *artcatalog.Service the handlers need.
type CatalogService interface {
	Catalog(ctx context.Context, refresh bool) (*artcatalog.CatalogResult, error)
	MediaImage(ctx context.Context, category, filename string) (*artcatalog.MediaImage, error)
	CatalogTTL() time.Duration
	Mode() artcatalog.SourceMode
}

// GraphStatus reports Graph configuration without network access.
type GraphStatus interface {
	Status() graph.Status
}

// Handler holds the HTTP handlers.
type Handler struct {
	service CatalogService
	graph   GraphStatus
	metrics *Metrics
	logger  *slog.Logger
}

// NewHandler creates a handler. graphStatus and metrics may be nil.
func NewHandler(service CatalogService, graphStatus GraphStatus, metrics *Metrics, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, graph: graphStatus, metrics: metrics, logger: logger}
}

// Catalog handles GET /catalog
func (h *Handler) Catalog(c echo.Context) error {
	refresh := isTruthy(c.QueryParam("refresh"))

	result, err := h.service.Catalog(c.Request().Context(), refresh)
	if err != nil {
		return h.handleError(c, err, "catalog generation failed")
	}

	header := c.Response().Header()
	header.Set(HeaderCatalogCache, string(result.CacheStatus))
	if result.CacheStatus == artcatalog.CacheBypass {
		header.Set(echo.HeaderCacheControl, "no-store")
	} else {
		header.Set(echo.HeaderCacheControl, fmt.Sprintf("public, max-age=%d", int(h.service.CatalogTTL().Seconds())))
	}
	if h.metrics != nil {
		h.metrics.CatalogRequests.WithLabelValues(string(result.CacheStatus)).Inc()
	}

	return c.JSON(http.StatusOK, result.Response)
}

// Media handles GET /media/:category/:filename
func (h *Handler) Media(c echo.Context) error {
	img, err := h.service.MediaImage(c.Request().Context(), c.Param("category"), c.Param("filename"))
	if err != nil {
		return h.handleError(c, err, "media retrieval failed")
	}

	cacheStatus := "MISS"
	if img.CacheHit {
		cacheStatus = "HIT"
	}
	if h.metrics != nil {
		h.metrics.MediaRequests.WithLabelValues(cacheStatus).Inc()
	}

	header := c.Response().Header()
	header.Set(echo.HeaderCacheControl, immutableCacheControl)
	header.Set("ETag", img.ETag)
	header.Set(HeaderMediaCache, cacheStatus)

	if etagMatches(c.Request().Header.Get("If-None-Match"), img.ETag) {
		return c.NoContent(http.StatusNotModified)
	}
	return c.Blob(http.StatusOK, "image/png", img.Data)
}

// GraphHealth handles GET /health/graph
func (h *Handler) GraphHealth(c echo.Context) error {
	var status graph.Status
	if h.graph != nil {
		status = h.graph.Status()
	}
	if status.Missing == nil {
		status.Missing = []string{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"source_mode": string(h.service.Mode()),
		"configured":  status.Configured,
		"locator":     status.Locator,
		"missing":     status.Missing,
	})
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func isTruthy(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

// etagMatches implements weak If-None-Match comparison.
func etagMatches(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" || etag == "" {
		return false
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}
