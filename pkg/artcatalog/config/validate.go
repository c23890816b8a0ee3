package config

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError describes a configuration that cannot locate a workbook.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks the workbook source settings. A local workbook path
// makes the Graph fields irrelevant.
func (c *Config) Validate() error {
	switch c.SourceMode {
	case SourceLocal, SourceGraph:
	default:
		return &ValidationError{Message: fmt.Sprintf("SOURCE_MODE must be %q or %q, got %q", SourceLocal, SourceGraph, c.SourceMode)}
	}

	if c.SourceMode == SourceLocal {
		if c.LocalXLSXPath == "" {
			return &ValidationError{Message: "SOURCE_MODE=local requires LOCAL_XLSX_PATH."}
		}
		return nil
	}

	g := c.Graph
	hasDrive := g.DriveID != "" && g.ItemID != ""
	hasSite := g.SiteID != "" && g.FilePath != ""

	var errs []error
	if (g.DriveID != "" || g.ItemID != "") && !hasDrive {
		errs = append(errs, &ValidationError{Message: "GRAPH_DRIVE_ID and GRAPH_ITEM_ID must both be set when using drive item mode."})
	}
	if (g.SiteID != "" || g.FilePath != "") && !hasSite {
		errs = append(errs, &ValidationError{Message: "GRAPH_SITE_ID and GRAPH_FILE_PATH must both be set when using site path mode."})
	}
	if (hasDrive || hasSite || g.FileURL != "") && !g.HasCredentials() {
		errs = append(errs, &ValidationError{Message: "Graph mode requires MS_TENANT_ID, MS_CLIENT_ID, and MS_CLIENT_SECRET."})
	}
	if g.BaseURL != "" && !strings.HasPrefix(g.BaseURL, "http") {
		errs = append(errs, &ValidationError{Message: fmt.Sprintf("GRAPH_BASE_URL must be an http(s) URL, got %q", g.BaseURL)})
	}

	return errors.Join(errs...)
}
