package models

// CategoryStats summarizes one category for logs and the CLI report.
type CategoryStats struct {
	Name                       string   `json:"name"`
	Directory                  string   `json:"directory"`
	ImagesCount                int      `json:"images_count"`
	UnsupportedObjectsDetected bool     `json:"unsupported_objects_detected"`
	UnsupportedCount           int      `json:"unsupported_count"`
	ChartTypes                 []string `json:"chart_types,omitempty"`
}

// PackageReport is the static inspection result for a workbook package.
type PackageReport struct {
	// Sheets maps worksheet title to its static diagnostics.
	Sheets map[string]*SheetDiagnostics `json:"sheets"`
	// SheetOrder lists worksheet titles in manifest order.
	SheetOrder []string `json:"sheet_order"`
	// UnmappedMedia counts media blobs not reachable from any drawing.
	UnmappedMedia int `json:"unmapped_media"`
}
