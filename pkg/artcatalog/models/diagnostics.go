package models

// SheetDiagnostics holds per-worksheet counters gathered in two passes: a static
// pass over the package XML and a live pass over the loaded workbook.
type SheetDiagnostics struct {
	// DrawingRelationships is the number of drawing parts the sheet references.
	DrawingRelationships int `json:"drawing_relationships"`
	// DrawingObjects counts pictures, shapes, graphic frames, groups and
	// connectors, or anchors when none of those were found.
	DrawingObjects int `json:"drawing_objects"`
	// DrawingPictures counts picture elements only.
	DrawingPictures int `json:"drawing_pictures"`
	// EmbeddedImageRefs counts blip references to image blobs.
	EmbeddedImageRefs int `json:"embedded_image_refs"`
	// Charts counts drawing relationships that point at chart parts.
	Charts int `json:"charts,omitempty"`
	// ChartTypes lists the chart kinds found (e.g. Bar, Pie).
	ChartTypes []string `json:"chart_types,omitempty"`
	// UnknownErrorCells counts cells holding the #UNKNOWN! marker.
	UnknownErrorCells int `json:"unknown_error_cells"`
	// ExtractionFailures counts pictures that could not be decoded or saved.
	ExtractionFailures int `json:"extraction_failures"`
}

// UnsupportedCount combines the diagnostic heuristics into a single count of
// objects that were not delivered as standard images.
func (d SheetDiagnostics) UnsupportedCount(extracted int) int {
	missingPictures := max(0, d.DrawingPictures-extracted)
	nonPictureObjects := max(0, d.DrawingObjects-d.DrawingPictures)
	return missingPictures + nonPictureObjects + d.UnknownErrorCells + d.ExtractionFailures
}

// HasDrawingSignal reports whether the static pass saw any visual content.
func (d SheetDiagnostics) HasDrawingSignal() bool {
	return d.DrawingObjects > 0 || d.EmbeddedImageRefs > 0
}
