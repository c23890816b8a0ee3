package parser

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// UnknownValueMarker is the cell value spreadsheet applications write for typed
// objects (linked data types, rich values) that the file format cannot express.
const UnknownValueMarker = "#UNKNOWN!"

// CountUnknownErrorCells counts the cells of a sheet whose raw value is the
// unknown-value marker, whether stored as an error cell or as a string.
func CountUnknownErrorCells(f *excelize.File, sheetName string) (int, error) {
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return 0, err
	}

	count := 0
	for _, row := range rows {
		for _, cellValue := range row {
			if cellValue == "" {
				continue
			}
			if isUnknownMarker(cellValue) {
				count++
			}
		}
	}

	return count, nil
}

func isUnknownMarker(value string) bool {
	return strings.ToUpper(strings.TrimSpace(value)) == UnknownValueMarker
}
