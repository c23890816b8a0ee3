// Package artcatalog builds a catalog of the images embedded in a workbook,
// one category per worksheet, and serves single images from a disk cache.
package artcatalog

import (
	"log/slog"
	"strings"
	"time"

	"github.com/ukaji3/artcatalog-go/pkg/artcatalog/mediacache"
	"github.com/ukaji3/artcatalog-go/pkg/artcatalog/respcache"
)

// SourceMode represents where the workbook comes from.
type SourceMode string

const (
	// SourceLocal reads the workbook from a local path.
	SourceLocal SourceMode = "local"
	// SourceGraph downloads the workbook through Microsoft Graph.
	SourceGraph SourceMode = "graph"
)

// DefaultCatalogTTL is how long a built catalog response is served from cache.
const DefaultCatalogTTL = 60 * time.Second

// Options configures a Service.
type Options struct {
	// Mode selects the workbook source.
	Mode SourceMode
	// LocalPath is the workbook path for SourceLocal.
	LocalPath string
	// GraphWorkbookPath is where downloaded workbooks are stored for SourceGraph.
	GraphWorkbookPath string
	// Fetcher downloads the workbook for SourceGraph.
	Fetcher Fetcher

	// Media is the disk image cache. Required.
	Media *mediacache.Cache
	// Responses stores built catalogs. Defaults to an in-memory store.
	Responses respcache.Store
	// CatalogTTL defaults to DefaultCatalogTTL.
	CatalogTTL time.Duration

	// URLPrefix is prepended to image URLs, e.g. "/api".
	URLPrefix string
	// SkipSheet reports placeholder worksheets. Defaults to IsDefaultSheetName.
	SkipSheet func(name string) bool

	// Now defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
	// Observer receives build and cache events. Optional.
	Observer Observer
}

// Observer is notified about catalog builds and cache outcomes.
type Observer interface {
	CatalogBuilt(result *BuildResult)
}

func (o *Options) applyDefaults() {
	if o.Mode == "" {
		o.Mode = SourceLocal
	}
	if o.CatalogTTL <= 0 {
		o.CatalogTTL = DefaultCatalogTTL
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.SkipSheet == nil {
		o.SkipSheet = IsDefaultSheetName
	}
	if o.Responses == nil {
		o.Responses = respcache.NewMemoryStore(o.Now)
	}
	o.URLPrefix = strings.TrimRight(o.URLPrefix, "/")
}
