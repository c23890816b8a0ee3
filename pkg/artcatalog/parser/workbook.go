package parser

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Picture is an embedded image as stored in the workbook package.
type Picture struct {
	// Cell is the anchor cell reference (e.g. "B3").
	Cell string
	// Extension is the stored media extension including the dot.
	Extension string
	// Data holds the raw image blob.
	Data []byte
}

// Workbook is a workbook opened through excelize for live extraction.
type Workbook struct {
	f *excelize.File
}

// OpenWorkbook opens workbook bytes for extraction.
func OpenWorkbook(data []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return &Workbook{f: f}, nil
}

// Close releases the temporary resources held by excelize.
func (w *Workbook) Close() error {
	return w.f.Close()
}

// SheetNames returns sheet titles in workbook order.
func (w *Workbook) SheetNames() []string {
	return w.f.GetSheetList()
}

// UnknownErrorCells counts unknown-value marker cells on a sheet.
func (w *Workbook) UnknownErrorCells(sheetName string) (int, error) {
	return CountUnknownErrorCells(w.f, sheetName)
}

// pictureReader is the part of *excelize.File that enumerates pictures.
type pictureReader interface {
	GetPictureCells(sheet string) ([]string, error)
	GetPictures(sheet, cell string) ([]excelize.Picture, error)
}

// Pictures returns the embedded pictures of a sheet in extraction order:
// anchor cells in drawing order, pictures of the same cell in stored order.
// A cell that cannot be read is skipped; its error is joined into the
// returned error alongside the pictures that were read.
func (w *Workbook) Pictures(sheetName string) ([]Picture, error) {
	return collectPictures(w.f, sheetName)
}

func collectPictures(r pictureReader, sheetName string) ([]Picture, error) {
	cells, err := r.GetPictureCells(sheetName)
	if err != nil {
		return nil, err
	}

	var (
		result []Picture
		errs   []error
	)
	seen := make(map[string]struct{}, len(cells))
	for _, cell := range cells {
		if _, ok := seen[cell]; ok {
			continue
		}
		seen[cell] = struct{}{}

		pics, err := r.GetPictures(sheetName, cell)
		if err != nil {
			errs = append(errs, fmt.Errorf("read pictures at %s!%s: %w", sheetName, cell, err))
			continue
		}
		for _, pic := range pics {
			result = append(result, Picture{
				Cell:      cell,
				Extension: pic.Extension,
				Data:      pic.File,
			})
		}
	}

	return result, errors.Join(errs...)
}
