package artcatalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ukaji3/artcatalog-go/pkg/artcatalog/graph"
	"github.com/ukaji3/artcatalog-go/pkg/artcatalog/mediacache"
)

// Fetcher downloads the current workbook bytes from a remote source.
type Fetcher interface {
	Download(ctx context.Context) ([]byte, error)
}

// workbookSource is a resolved workbook: where it lives, its bytes and
// the identity computed after resolution.
type workbookSource struct {
	Path     string
	Data     []byte
	Identity string
}

// PeekIdentity computes the current workbook identity from file metadata
// only. In graph mode it reflects the last downloaded copy.
func (s *Service) PeekIdentity() string {
	if s.opts.Mode == SourceGraph {
		return mediacache.Identity(s.opts.GraphWorkbookPath, true)
	}
	if s.opts.LocalPath == "" {
		return mediacache.LocalMissingIdentity
	}
	return mediacache.Identity(s.opts.LocalPath, false)
}

// resolveWorkbook reads the local workbook or downloads the remote one.
func (s *Service) resolveWorkbook(ctx context.Context) (*workbookSource, error) {
	if s.opts.Mode == SourceGraph {
		return s.resolveGraphWorkbook(ctx)
	}

	if s.opts.LocalPath == "" {
		return nil, &ConfigError{Message: "No local workbook source configured. Set LOCAL_XLSX_PATH."}
	}

	info, err := os.Stat(s.opts.LocalPath)
	if err != nil || !info.Mode().IsRegular() {
		return nil, &ConfigError{
			Message: fmt.Sprintf("LOCAL_XLSX_PATH does not exist or is not a file: %s", s.opts.LocalPath),
			Err:     ErrWorkbookMissing,
		}
	}

	data, err := os.ReadFile(s.opts.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}

	return &workbookSource{
		Path:     s.opts.LocalPath,
		Data:     data,
		Identity: mediacache.Identity(s.opts.LocalPath, false),
	}, nil
}

func (s *Service) resolveGraphWorkbook(ctx context.Context) (*workbookSource, error) {
	if s.opts.Fetcher == nil {
		return nil, &ConfigError{Message: "Graph client is not configured."}
	}

	data, err := s.opts.Fetcher.Download(ctx)
	if err != nil {
		if errors.Is(err, graph.ErrNotConfigured) {
			return nil, &ConfigError{Message: "Graph source is not configured", Err: err}
		}
		return nil, err
	}

	path := s.opts.GraphWorkbookPath
	if err := writeIfChanged(path, data); err != nil {
		return nil, fmt.Errorf("failed to store downloaded workbook: %w", err)
	}

	return &workbookSource{
		Path:     path,
		Data:     data,
		Identity: mediacache.Identity(path, true),
	}, nil
}

// writeIfChanged replaces path with data unless it already holds the same
// bytes, so an unchanged download keeps its mtime and therefore its identity.
func writeIfChanged(path string, data []byte) error {
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, data) {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".workbook-*.tmp")
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
