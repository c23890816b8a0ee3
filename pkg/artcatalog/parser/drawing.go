package parser

import (
	"encoding/xml"
	"strings"
)

// ChartTypeMap maps OOXML chart element tags to chart type names.
var ChartTypeMap = map[string]string{
	"lineChart":      "Line",
	"line3DChart":    "3DLine",
	"barChart":       "Bar",
	"bar3DChart":     "3DBar",
	"areaChart":      "Area",
	"area3DChart":    "3DArea",
	"pieChart":       "Pie",
	"pie3DChart":     "3DPie",
	"doughnutChart":  "Doughnut",
	"scatterChart":   "XYScatter",
	"bubbleChart":    "Bubble",
	"radarChart":     "Radar",
	"surfaceChart":   "Surface",
	"surface3DChart": "3DSurface",
	"stockChart":     "Stock",
	"ofPieChart":     "PieOfPie",
}

// drawingCounts holds element counts of one drawing part.
type drawingCounts struct {
	pictures   int
	shapes     int
	frames     int
	groups     int
	connectors int
	blips      int
	anchors    int
}

// objects returns the drawing-object count, falling back to anchors when no
// typed shape element was found.
func (c drawingCounts) objects() int {
	n := c.pictures + c.shapes + c.frames + c.groups + c.connectors
	if n == 0 && c.anchors > 0 {
		return c.anchors
	}
	return n
}

// countDrawingElements walks a drawing part and counts DrawingML elements at
// any depth. Malformed XML stops the walk and keeps what was counted so far.
func countDrawingElements(data []byte) drawingCounts {
	var counts drawingCounts

	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		se, ok := token.(xml.StartElement)
		if !ok {
			continue
		}

		switch se.Name.Space {
		case nsXDR:
			switch se.Name.Local {
			case "pic":
				counts.pictures++
			case "sp":
				counts.shapes++
			case "graphicFrame":
				counts.frames++
			case "grpSp":
				counts.groups++
			case "cxnSp":
				counts.connectors++
			case "oneCellAnchor", "twoCellAnchor", "absoluteAnchor":
				counts.anchors++
			}
		case nsA:
			if se.Name.Local == "blip" {
				counts.blips++
			}
		}
	}

	return counts
}

// parseChartKind returns the chart type of a chart part, "unknown" when the
// plot area holds no recognised chart element.
func parseChartKind(data []byte) string {
	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	inPlotArea := false

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "plotArea" {
				inPlotArea = true
				continue
			}
			if inPlotArea {
				if kind, ok := ChartTypeMap[t.Name.Local]; ok {
					return kind
				}
			}
		case xml.EndElement:
			if t.Name.Local == "plotArea" {
				inPlotArea = false
			}
		}
	}

	return "unknown"
}
