package artcatalog

import "github.com/ukaji3/artcatalog-go/pkg/artcatalog/models"

const (
	noteUnknownValues      = "Worksheet contains #UNKNOWN! values; unsupported typed objects may not be extractable."
	noteNonStandardDrawing = "Worksheet has drawing content that is not available as standard embedded images."
	noteNoImages           = "No standard embedded images were found in this worksheet."
	notePartiallySupported = "Some worksheet objects are not standard embedded images."
)

// buildNotes picks the single most relevant note for a category, or "".
func buildNotes(extracted int, d *models.SheetDiagnostics) string {
	switch {
	case d.UnknownErrorCells > 0:
		return noteUnknownValues
	case extracted == 0 && d.HasDrawingSignal():
		return noteNonStandardDrawing
	case extracted == 0:
		return noteNoImages
	case d.UnsupportedCount(extracted) > 0:
		return notePartiallySupported
	default:
		return ""
	}
}
