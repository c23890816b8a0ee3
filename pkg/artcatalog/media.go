package artcatalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/ukaji3/artcatalog-go/pkg/artcatalog/mediacache"
	"github.com/ukaji3/artcatalog-go/pkg/artcatalog/parser"
)

// MediaImage is a single PNG served from the media cache or extracted on demand.
type MediaImage struct {
	Data     []byte
	ETag     string
	CacheHit bool
	Identity string
}

// MediaImage returns img_N.png of a category. The disk cache is consulted
// first; on a miss the workbook is loaded and the N-th decodable picture of
// the matching worksheet is extracted and written through to the cache.
func (s *Service) MediaImage(ctx context.Context, category, filename string) (*MediaImage, error) {
	if !mediacache.ValidCategory(category) {
		return nil, notFound(category, filename, "invalid media category")
	}
	index, ok := mediacache.ParseImageFilename(filename)
	if !ok {
		return nil, notFound(category, filename, "invalid media filename")
	}

	entry, hit, err := s.opts.Media.Read(category, filename, s.PeekIdentity())
	if err != nil {
		if errors.Is(err, mediacache.ErrInvalidName) {
			return nil, notFound(category, filename, err.Error())
		}
		return nil, err
	}
	if hit {
		return &MediaImage{Data: entry.Data, ETag: entry.ETag, CacheHit: true, Identity: entry.Identity}, nil
	}

	src, err := s.resolveWorkbook(ctx)
	if err != nil {
		return nil, err
	}

	wb, err := parser.OpenWorkbook(src.Data)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	sheet := ""
	for _, sc := range categoriesFor(wb.SheetNames(), s.opts.SkipSheet) {
		if sc.Dir == category {
			sheet = sc.Sheet
			break
		}
	}
	if sheet == "" {
		return nil, notFound(category, filename, "unknown media category")
	}

	pictures, listErr := wb.Pictures(sheet)
	data, err := pickPicture(category, filename, pictures, listErr, index)
	if err != nil {
		return nil, err
	}

	entry, err = s.opts.Media.Write(category, filename, data, src.Identity)
	if err != nil {
		return nil, err
	}
	return &MediaImage{Data: entry.Data, ETag: entry.ETag, CacheHit: false, Identity: entry.Identity}, nil
}

// pickPicture selects the index-th decodable picture. When the picture is
// missing and enumeration reported an error, the error wins: the picture may
// sit in a cell that could not be read.
func pickPicture(category, filename string, pictures []parser.Picture, listErr error, index int) ([]byte, error) {
	data, ok := nthDecodable(pictures, index)
	if ok {
		return data, nil
	}
	if listErr != nil {
		return nil, fmt.Errorf("image extraction failed for %s/%s: %w", category, filename, listErr)
	}
	return nil, notFound(category, filename, "image index out of range")
}

// nthDecodable returns the PNG of the index-th (1-based) picture that
// decodes, matching the numbering a build assigns.
func nthDecodable(pictures []parser.Picture, index int) ([]byte, bool) {
	n := 0
	for _, pic := range pictures {
		data, err := parser.ToPNG(pic.Data)
		if err != nil {
			continue
		}
		n++
		if n == index {
			return data, true
		}
	}
	return nil, false
}
