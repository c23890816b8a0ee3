// Package respcache stores built catalog responses so unchanged workbooks are
// not re-parsed on every request. Supports an in-process store and Redis for
// multi-instance deployments.
package respcache

import (
	"context"
	"time"

	"github.com/ukaji3/artcatalog-go/pkg/artcatalog/models"
)

// Entry is a cached catalog response.
type Entry struct {
	// Key is "{source_mode}:{workbook identity}".
	Key       string                 `json:"key"`
	Response  models.CatalogResponse `json:"response"`
	ExpiresAt time.Time              `json:"expires_at"`
}

// Expired reports whether the entry is no longer servable at now.
func (e *Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Store defines catalog response storage.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the entry for key, or nil, nil when absent or expired.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set stores the entry under entry.Key until entry.ExpiresAt.
	Set(ctx context.Context, entry *Entry) error

	// Close releases any resources held by the store.
	Close() error
}

// Key builds the cache key for a source mode and workbook identity.
func Key(sourceMode, identity string) string {
	return sourceMode + ":" + identity
}
