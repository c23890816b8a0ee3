// Package models defines data structures for the workbook image catalog.
package models

// Category represents one worksheet published as an image gallery.
type Category struct {
	// Name is the worksheet title as shown in the workbook.
	Name string `json:"name"`
	// Images lists media URLs in extraction order (img_1, img_2, ...).
	Images []string `json:"images"`
	// ImagesCount is always len(Images).
	ImagesCount int `json:"images_count"`
	// UnsupportedObjectsDetected reports drawing content that could not be
	// extracted as a standard picture.
	UnsupportedObjectsDetected bool `json:"unsupported_objects_detected"`
	// Notes is a human-readable diagnostic, nil when there is nothing to say.
	Notes *string `json:"notes"`
}

// CatalogResponse is the payload served for the catalog endpoint.
type CatalogResponse struct {
	// Categories holds one entry per non-placeholder worksheet, in workbook order.
	Categories []Category `json:"categories"`
}

// NewCategory builds a Category and keeps ImagesCount consistent with Images.
func NewCategory(name string, images []string, unsupported bool, notes string) Category {
	if images == nil {
		images = []string{}
	}
	c := Category{
		Name:                       name,
		Images:                     images,
		ImagesCount:                len(images),
		UnsupportedObjectsDetected: unsupported,
	}
	if notes != "" {
		n := notes
		c.Notes = &n
	}
	return c
}
