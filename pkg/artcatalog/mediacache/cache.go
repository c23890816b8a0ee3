// Package mediacache stores extracted worksheet images on disk, tagged with
// the workbook identity they were produced under.
package mediacache

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// identityMarkerFile records the identity of the last completed build.
const identityMarkerFile = ".workbook_identity"

// ErrInvalidName is returned when a category or filename fails validation.
var ErrInvalidName = errors.New("invalid media cache name")

// Entry is a cached image valid for the identity it was read or written under.
type Entry struct {
	Data     []byte
	ETag     string
	Identity string
}

// InvalidationReport describes what a stale-entry purge removed.
type InvalidationReport struct {
	CleanedDirs   []string
	ImagesRemoved int
	MetaRemoved   int
}

// Cache is a disk-backed store of {category, img_N.png} -> PNG bytes. Each
// image has an img_N.meta sidecar holding the workbook identity.
//
// Writers are not serialised: the same category, index and identity always
// produce the same bytes, so racing writers are harmless.
type Cache struct {
	root   string
	logger *slog.Logger

	mu        sync.Mutex
	lastBuilt string
}

// New creates the cache root if needed.
func New(root string, logger *slog.Logger) (*Cache, error) {
	if root == "" {
		return nil, errors.New("media cache root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media cache root: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{root: root, logger: logger}, nil
}

// Root returns the cache root directory.
func (c *Cache) Root() string {
	return c.root
}

func (c *Cache) imagePath(category, filename string) (string, error) {
	if !ValidCategory(category) {
		return "", fmt.Errorf("%w: category %q", ErrInvalidName, category)
	}
	if _, ok := ParseImageFilename(filename); !ok {
		return "", fmt.Errorf("%w: filename %q", ErrInvalidName, filename)
	}
	return filepath.Join(c.root, category, filename), nil
}

func metaPath(imagePath string) string {
	return strings.TrimSuffix(imagePath, ".png") + ".meta"
}

// Read returns the cached image when its sidecar identity equals identity.
// Anything else, including a missing sidecar, is a miss.
func (c *Cache) Read(category, filename, identity string) (*Entry, bool, error) {
	path, err := c.imagePath(category, filename)
	if err != nil {
		return nil, false, err
	}

	stored, err := os.ReadFile(metaPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cache sidecar: %w", err)
	}
	storedIdentity := strings.TrimSpace(string(stored))
	if storedIdentity == "" || storedIdentity != identity {
		return nil, false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached image: %w", err)
	}

	etag, err := ETag(path, storedIdentity, filename)
	if err != nil {
		return nil, false, fmt.Errorf("failed to stat cached image: %w", err)
	}

	return &Entry{Data: data, ETag: etag, Identity: storedIdentity}, true, nil
}

// Write stores image bytes and then the identity sidecar. A reader racing the
// write sees either the old sidecar (a miss) or both new files.
func (c *Cache) Write(category, filename string, data []byte, identity string) (*Entry, error) {
	path, err := c.imagePath(category, filename)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create category directory: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return nil, fmt.Errorf("failed to write cached image: %w", err)
	}
	if err := writeFileAtomic(metaPath(path), []byte(identity)); err != nil {
		return nil, fmt.Errorf("failed to write cache sidecar: %w", err)
	}

	etag, err := ETag(path, identity, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to stat cached image: %w", err)
	}
	return &Entry{Data: data, ETag: etag, Identity: identity}, nil
}

// writeFileAtomic writes via temp file + rename in the target directory.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// InvalidateStale purges every cached image and sidecar when oldIdentity is
// set and differs from newIdentity. Category directories left empty are
// removed; directories still holding unrelated files are kept.
func (c *Cache) InvalidateStale(oldIdentity, newIdentity string) (InvalidationReport, error) {
	var report InvalidationReport
	if oldIdentity == "" || oldIdentity == newIdentity {
		return report, nil
	}

	entries, err := os.ReadDir(c.root)
	if err != nil {
		if os.IsNotExist(err) {
			return report, nil
		}
		return report, fmt.Errorf("failed to list media cache root: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() || !ValidCategory(entry.Name()) {
			continue
		}
		dir := filepath.Join(c.root, entry.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			c.logger.Warn("failed to list category cache directory", "dir", dir, "error", err)
			continue
		}

		removed := false
		for _, file := range files {
			if !file.Type().IsRegular() || !isCacheFile(file.Name()) {
				continue
			}
			if err := os.Remove(filepath.Join(dir, file.Name())); err != nil && !os.IsNotExist(err) {
				c.logger.Warn("failed to remove stale cache file", "file", file.Name(), "dir", dir, "error", err)
				continue
			}
			removed = true
			if strings.HasSuffix(file.Name(), ".png") {
				report.ImagesRemoved++
			} else {
				report.MetaRemoved++
			}
		}

		if removed {
			report.CleanedDirs = append(report.CleanedDirs, entry.Name())
			if rest, err := os.ReadDir(dir); err == nil && len(rest) == 0 {
				_ = os.Remove(dir)
			}
		}
	}

	c.logger.Info("media cache invalidation",
		"old_identity", oldIdentity,
		"new_identity", newIdentity,
		"cleaned_category_dirs", report.CleanedDirs,
		"images_removed", report.ImagesRemoved,
		"meta_removed", report.MetaRemoved,
	)
	return report, nil
}

// LastBuiltIdentity returns the identity of the last completed build, read
// from the marker file on first use. Empty when none was recorded.
func (c *Cache) LastBuiltIdentity() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastBuilt != "" {
		return c.lastBuilt
	}
	data, err := os.ReadFile(filepath.Join(c.root, identityMarkerFile))
	if err != nil {
		return ""
	}
	c.lastBuilt = strings.TrimSpace(string(data))
	return c.lastBuilt
}

// StoreLastBuiltIdentity records identity as the last built one.
func (c *Cache) StoreLastBuiltIdentity(identity string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastBuilt = identity
	if err := writeFileAtomic(filepath.Join(c.root, identityMarkerFile), []byte(identity)); err != nil {
		return fmt.Errorf("failed to write identity marker: %w", err)
	}
	return nil
}
