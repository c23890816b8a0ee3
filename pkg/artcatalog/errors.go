package artcatalog

import (
	"errors"
	"fmt"
)

// ErrWorkbookMissing indicates the local workbook path does not exist.
var ErrWorkbookMissing = errors.New("workbook file not found")

// ConfigError indicates the workbook source is missing a locator or credentials.
type ConfigError struct {
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NotFoundError indicates an unknown category, invalid filename or an image
// index outside the worksheet's image count.
type NotFoundError struct {
	Category string
	Filename string
	Reason   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("media %s/%s not found: %s", e.Category, e.Filename, e.Reason)
}

// ExtractionError represents a single image that could not be decoded or
// persisted. It is logged and counted, never returned from a build.
type ExtractionError struct {
	SheetName string
	Index     int
	Err       error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction error in sheet %q (image %d): %v", e.SheetName, e.Index, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewExtractionError creates a new ExtractionError.
func NewExtractionError(sheetName string, index int, err error) *ExtractionError {
	return &ExtractionError{
		SheetName: sheetName,
		Index:     index,
		Err:       err,
	}
}

func notFound(category, filename, reason string) error {
	return &NotFoundError{Category: category, Filename: filename, Reason: reason}
}
