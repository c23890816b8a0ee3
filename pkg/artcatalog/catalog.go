package artcatalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ukaji3/artcatalog-go/pkg/artcatalog/mediacache"
	"github.com/ukaji3/artcatalog-go/pkg/artcatalog/models"
	"github.com/ukaji3/artcatalog-go/pkg/artcatalog/parser"
	"github.com/ukaji3/artcatalog-go/pkg/artcatalog/respcache"
)

// DefaultGraphWorkbookFile is the file name used for downloaded workbooks.
const DefaultGraphWorkbookFile = "artwork_graph.xlsx"

// CacheStatus reports how a catalog request was served.
type CacheStatus string

const (
	CacheHit    CacheStatus = "HIT"
	CacheMiss   CacheStatus = "MISS"
	CacheBypass CacheStatus = "BYPASS"
)

// BuildResult is a built catalog plus the figures logged and exported as metrics.
type BuildResult struct {
	Categories    []models.Category      `json:"categories"`
	Source        string                 `json:"workbook_source"`
	Identity      string                 `json:"workbook_identity"`
	BuildID       string                 `json:"build_id"`
	ExtractionMs  int64                  `json:"extraction_ms"`
	TotalMs       int64                  `json:"total_ms"`
	TotalImages   int                    `json:"total_images"`
	Stats         []models.CategoryStats `json:"category_stats"`
	UnmappedMedia int                    `json:"unmapped_media"`
}

// CatalogResult is a catalog response and how it was obtained.
type CatalogResult struct {
	Response    models.CatalogResponse
	CacheStatus CacheStatus
	Identity    string
}

// Service builds catalogs and serves single images. It owns the catalog
// response cache and the build lock, so create one per process.
type Service struct {
	opts   Options
	logger *slog.Logger

	// buildMu serializes identity check and rebuild; cache hits skip it.
	buildMu sync.Mutex
}

// New creates a Service.
func New(opts Options) (*Service, error) {
	opts.applyDefaults()
	if opts.Media == nil {
		return nil, errors.New("media cache is required")
	}
	switch opts.Mode {
	case SourceLocal:
	case SourceGraph:
		if opts.GraphWorkbookPath == "" {
			opts.GraphWorkbookPath = filepath.Join(os.TempDir(), DefaultGraphWorkbookFile)
		}
	default:
		return nil, fmt.Errorf("unknown source mode %q", opts.Mode)
	}
	return &Service{opts: opts, logger: opts.Logger}, nil
}

// Mode returns the configured source mode.
func (s *Service) Mode() SourceMode {
	return s.opts.Mode
}

// CatalogTTL returns how long catalog responses are cached.
func (s *Service) CatalogTTL() time.Duration {
	return s.opts.CatalogTTL
}

// Catalog returns the catalog response, from the response cache when the
// workbook identity is unchanged and the entry has not expired. refresh
// forces a rebuild.
func (s *Service) Catalog(ctx context.Context, refresh bool) (*CatalogResult, error) {
	if !refresh {
		if result := s.cachedCatalog(ctx); result != nil {
			return result, nil
		}
	}

	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	status := CacheBypass
	if !refresh {
		// Another request may have rebuilt while we waited.
		if result := s.cachedCatalog(ctx); result != nil {
			return result, nil
		}
		status = CacheMiss
	}

	build, err := s.Build(ctx)
	if err != nil {
		return nil, err
	}

	response := models.CatalogResponse{Categories: build.Categories}
	entry := &respcache.Entry{
		Key:       respcache.Key(string(s.opts.Mode), build.Identity),
		Response:  response,
		ExpiresAt: s.opts.Now().Add(s.opts.CatalogTTL),
	}
	if err := s.opts.Responses.Set(ctx, entry); err != nil {
		s.logger.Warn("failed to store catalog response", "key", entry.Key, "error", err)
	}

	return &CatalogResult{Response: response, CacheStatus: status, Identity: build.Identity}, nil
}

func (s *Service) cachedCatalog(ctx context.Context) *CatalogResult {
	identity := s.PeekIdentity()
	key := respcache.Key(string(s.opts.Mode), identity)

	entry, err := s.opts.Responses.Get(ctx, key)
	if err != nil {
		s.logger.Warn("catalog response cache lookup failed", "key", key, "error", err)
		return nil
	}
	if entry == nil || entry.Expired(s.opts.Now()) {
		return nil
	}
	return &CatalogResult{Response: entry.Response, CacheStatus: CacheHit, Identity: identity}
}

// Build resolves the workbook, purges media cached under an older identity
// and extracts every worksheet's images into the media cache.
//
// Per-sheet and per-image problems are logged and reflected in the category
// diagnostics. Only failing to obtain the workbook fails the build.
func (s *Service) Build(ctx context.Context) (*BuildResult, error) {
	started := time.Now()
	buildID := uuid.NewString()
	logger := s.logger.With("build_id", buildID)

	src, err := s.resolveWorkbook(ctx)
	if err != nil {
		return nil, err
	}

	extractionStarted := time.Now()
	report, err := parser.AnalyzePackage(src.Data)
	if err != nil {
		logger.Warn("workbook package inspection failed", "error", err)
	}

	previous := s.opts.Media.LastBuiltIdentity()
	if _, err := s.opts.Media.InvalidateStale(previous, src.Identity); err != nil {
		logger.Warn("media cache invalidation failed", "error", err)
	}
	if err := s.opts.Media.StoreLastBuiltIdentity(src.Identity); err != nil {
		logger.Warn("failed to record workbook identity", "error", err)
	}

	wb, err := parser.OpenWorkbook(src.Data)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	result := &BuildResult{
		Categories:    []models.Category{},
		Source:        src.Path,
		Identity:      src.Identity,
		BuildID:       buildID,
		UnmappedMedia: report.UnmappedMedia,
	}

	sheets := wb.SheetNames()
	for _, sheet := range sheets {
		if s.opts.SkipSheet(sheet) {
			logger.Debug("skipping default worksheet", "sheet", sheet)
		}
	}

	for _, sc := range categoriesFor(sheets, s.opts.SkipSheet) {
		diagnostics, ok := report.Sheets[sc.Sheet]
		if !ok {
			diagnostics = &models.SheetDiagnostics{}
		}

		category, stats := s.buildCategory(logger, wb, sc, diagnostics, src.Identity)
		result.Categories = append(result.Categories, category)
		result.Stats = append(result.Stats, stats)
		result.TotalImages += category.ImagesCount
	}

	if report.UnmappedMedia > 0 {
		logger.Info("unmapped workbook media", "count", report.UnmappedMedia)
	}

	result.ExtractionMs = time.Since(extractionStarted).Milliseconds()
	result.TotalMs = time.Since(started).Milliseconds()

	logger.Info("catalog build complete",
		"source", result.Source,
		"identity", result.Identity,
		"categories", len(result.Categories),
		"total_images", result.TotalImages,
		"extraction_ms", result.ExtractionMs,
		"total_ms", result.TotalMs,
	)

	if s.opts.Observer != nil {
		s.opts.Observer.CatalogBuilt(result)
	}
	return result, nil
}

// buildCategory extracts one worksheet's images and derives its record.
func (s *Service) buildCategory(logger *slog.Logger, wb *parser.Workbook, sc sheetCategory, d *models.SheetDiagnostics, identity string) (models.Category, models.CategoryStats) {
	unknown, err := wb.UnknownErrorCells(sc.Sheet)
	if err != nil {
		logger.Warn("cell scan failed", "sheet", sc.Sheet, "error", err)
	}
	d.UnknownErrorCells = unknown

	pictures, err := wb.Pictures(sc.Sheet)
	if err != nil {
		// Pictures of readable cells are still extracted.
		d.ExtractionFailures += failureCount(err)
		logger.Warn("picture enumeration failed", "sheet", sc.Sheet, "error", err)
	}

	images := make([]string, 0, len(pictures))
	for i, pic := range pictures {
		if err := s.extractPicture(sc.Dir, len(images)+1, pic, identity); err != nil {
			d.ExtractionFailures++
			logger.Warn("image extraction failed", "error", NewExtractionError(sc.Sheet, i+1, err))
			continue
		}
		images = append(images, s.imageURL(sc.Dir, len(images)+1))
	}

	extracted := len(images)
	unsupported := d.UnsupportedCount(extracted)
	notes := buildNotes(extracted, d)

	logger.Info("catalog sheet",
		"sheet", sc.Sheet,
		"directory", sc.Dir,
		"extracted_images", extracted,
		"drawing_objects", d.DrawingObjects,
		"drawing_pictures", d.DrawingPictures,
		"charts", d.Charts,
		"unknown_error_cells", d.UnknownErrorCells,
		"extraction_failures", d.ExtractionFailures,
		"unsupported_detected", unsupported > 0,
		"note", notes,
	)

	stats := models.CategoryStats{
		Name:                       sc.Sheet,
		Directory:                  sc.Dir,
		ImagesCount:                extracted,
		UnsupportedObjectsDetected: unsupported > 0,
		UnsupportedCount:           unsupported,
		ChartTypes:                 d.ChartTypes,
	}
	return models.NewCategory(sc.Sheet, images, unsupported > 0, notes), stats
}

func (s *Service) extractPicture(dir string, index int, pic parser.Picture, identity string) error {
	data, err := parser.ToPNG(pic.Data)
	if err != nil {
		return err
	}
	_, err = s.opts.Media.Write(dir, mediacache.ImageFilename(index), data, identity)
	return err
}

func (s *Service) imageURL(dir string, index int) string {
	return fmt.Sprintf("%s/media/%s/%s", s.opts.URLPrefix, url.PathEscape(dir), mediacache.ImageFilename(index))
}

// failureCount returns how many failures a possibly joined error carries.
func failureCount(err error) int {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return len(joined.Unwrap())
	}
	return 1
}
