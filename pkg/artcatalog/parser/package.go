// Package parser reads xlsx workbooks: a static pass over the package XML
// and a live pass through excelize for picture extraction.
package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"github.com/ukaji3/artcatalog-go/pkg/artcatalog/models"
)

const (
	workbookPart     = "xl/workbook.xml"
	workbookRelsPart = "xl/_rels/workbook.xml.rels"
	mediaDir         = "xl/media/"
)

// AnalyzePackage statically inspects the parts of an xlsx package and counts,
// per worksheet, the drawing objects it declares and the image blobs they
// reference. It also counts media blobs that no analysed drawing maps to.
//
// Missing parts are not errors: the report holds whatever could be determined.
// Only bytes that are not a zip archive produce an error.
func AnalyzePackage(data []byte) (*models.PackageReport, error) {
	report := &models.PackageReport{Sheets: make(map[string]*models.SheetDiagnostics)}

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return report, fmt.Errorf("open workbook package: %w", err)
	}
	a := newArchive(r)

	if !a.has(workbookPart) || !a.has(workbookRelsPart) {
		return report, nil
	}

	sheets := parseWorkbookSheets(a.read(workbookPart))
	workbookRels := relationshipsByID(parseRelationships(a.read(workbookRelsPart)))
	mapped := make(map[string]struct{})

	for _, sheet := range sheets {
		rel, ok := workbookRels[sheet.RelID]
		if !ok {
			continue
		}

		diagnostics := &models.SheetDiagnostics{}
		report.Sheets[sheet.Name] = diagnostics
		report.SheetOrder = append(report.SheetOrder, sheet.Name)

		sheetPart := resolveTarget(workbookPart, rel.Target)
		sheetRelsPart := relsPartFor(sheetPart)
		if !a.has(sheetRelsPart) {
			continue
		}

		sheetRels := parseRelationships(a.read(sheetRelsPart))
		analyzeSheetDrawings(a, sheetPart, sheetRels, diagnostics, mapped)
	}

	for _, name := range a.names {
		if !strings.HasPrefix(name, mediaDir) || strings.HasSuffix(name, "/") {
			continue
		}
		if _, ok := mapped[name]; !ok {
			report.UnmappedMedia++
		}
	}

	return report, nil
}

// analyzeSheetDrawings accumulates counts of every drawing part referenced by
// a worksheet and records the media parts those drawings map to.
func analyzeSheetDrawings(a *archive, sheetPart string, sheetRels []relationship, diagnostics *models.SheetDiagnostics, mapped map[string]struct{}) {
	for _, rel := range sheetRels {
		if !isDrawingRelationship(rel) {
			continue
		}
		diagnostics.DrawingRelationships++

		drawingPart := resolveTarget(sheetPart, rel.Target)
		if !a.has(drawingPart) {
			continue
		}

		counts := countDrawingElements(a.read(drawingPart))
		diagnostics.DrawingObjects += counts.objects()
		diagnostics.DrawingPictures += counts.pictures
		diagnostics.EmbeddedImageRefs += counts.blips

		drawingRelsPart := relsPartFor(drawingPart)
		if !a.has(drawingRelsPart) {
			continue
		}

		for _, drawingRel := range parseRelationships(a.read(drawingRelsPart)) {
			target := resolveTarget(drawingPart, drawingRel.Target)
			switch {
			case isImageRelationship(drawingRel):
				mapped[target] = struct{}{}
			case isChartRelationship(drawingRel):
				diagnostics.Charts++
				if chart := a.read(target); chart != nil {
					diagnostics.ChartTypes = append(diagnostics.ChartTypes, parseChartKind(chart))
				}
			}
		}
	}
}
