package parser

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"path"
	"strings"
)

// XML namespaces used in SpreadsheetML and DrawingML parts.
const (
	nsXDR = "http://schemas.openxmlformats.org/drawingml/2006/spreadsheetDrawing"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// relationship is a single <Relationship> entry of a .rels part.
type relationship struct {
	ID     string
	Type   string
	Target string
}

// sheetRef is a <sheet> entry of the workbook manifest.
type sheetRef struct {
	Name  string
	RelID string
}

// archive indexes a zip package by part name.
type archive struct {
	files map[string]*zip.File
	names []string
}

func newArchive(r *zip.Reader) *archive {
	a := &archive{files: make(map[string]*zip.File, len(r.File))}
	for _, f := range r.File {
		a.files[f.Name] = f
		a.names = append(a.names, f.Name)
	}
	return a
}

func (a *archive) has(name string) bool {
	_, ok := a.files[name]
	return ok
}

// read returns the part content, or nil when the part is absent or unreadable.
func (a *archive) read(name string) []byte {
	f, ok := a.files[name]
	if !ok {
		return nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil
	}
	return data
}

// resolveTarget resolves a relationship target against the part that declares it.
// Targets starting with "/" are package-absolute.
func resolveTarget(basePart, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimLeft(target, "/")
	}
	resolved := path.Clean(path.Join(path.Dir(basePart), target))
	return strings.TrimPrefix(resolved, "/")
}

// relsPartFor returns the conventional relationships part of a package part,
// e.g. xl/worksheets/sheet1.xml -> xl/worksheets/_rels/sheet1.xml.rels.
func relsPartFor(part string) string {
	return path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
}

func parseRelationships(data []byte) []relationship {
	var result []relationship
	decoder := xml.NewDecoder(strings.NewReader(string(data)))

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		se, ok := token.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var rel relationship
		for _, attr := range se.Attr {
			switch attr.Name.Local {
			case "Id":
				rel.ID = attr.Value
			case "Type":
				rel.Type = attr.Value
			case "Target":
				rel.Target = attr.Value
			}
		}
		if rel.ID != "" {
			result = append(result, rel)
		}
	}

	return result
}

func relationshipsByID(rels []relationship) map[string]relationship {
	result := make(map[string]relationship, len(rels))
	for _, rel := range rels {
		result[rel.ID] = rel
	}
	return result
}

// parseWorkbookSheets returns the worksheets declared in xl/workbook.xml in order.
func parseWorkbookSheets(data []byte) []sheetRef {
	var result []sheetRef
	decoder := xml.NewDecoder(strings.NewReader(string(data)))

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		se, ok := token.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		var ref sheetRef
		for _, attr := range se.Attr {
			switch {
			case attr.Name.Local == "name":
				ref.Name = attr.Value
			case attr.Name.Local == "id" && attr.Name.Space == nsR:
				ref.RelID = attr.Value
			}
		}
		if ref.Name != "" && ref.RelID != "" {
			result = append(result, ref)
		}
	}

	return result
}

// isDrawingRelationship matches DrawingML drawing parts. Legacy VML drawings
// (comments, form controls) live under drawings/ too but are not DrawingML.
func isDrawingRelationship(rel relationship) bool {
	if strings.HasSuffix(strings.ToLower(rel.Target), ".vml") {
		return false
	}
	return strings.HasSuffix(rel.Type, "/drawing") || strings.Contains(rel.Target, "drawings/")
}

func isImageRelationship(rel relationship) bool {
	return strings.Contains(rel.Type, "/image")
}

func isChartRelationship(rel relationship) bool {
	return strings.HasSuffix(rel.Type, "/chart")
}
