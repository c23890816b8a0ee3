package artcatalog

import (
	"regexp"
	"strconv"
	"strings"
)

// UntitledCategory replaces titles that sanitize to nothing usable.
const UntitledCategory = "UNTITLED"

var (
	defaultSheetPattern = regexp.MustCompile(`(?i)^sheet\d*$`)
	unsafeNameChars     = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// IsDefaultSheetName reports placeholder worksheet titles such as "Sheet1".
func IsDefaultSheetName(name string) bool {
	return defaultSheetPattern.MatchString(strings.TrimSpace(name))
}

// SafeDirName maps a worksheet title to a filesystem-safe directory name.
func SafeDirName(title string) string {
	name := unsafeNameChars.ReplaceAllString(strings.TrimSpace(title), "_")
	if strings.Trim(name, ".") == "" {
		return UntitledCategory
	}
	return name
}

// claimName returns base, or base_2, base_3, ... when base is already taken,
// and records the result in claimed.
func claimName(base string, claimed map[string]struct{}) string {
	name := base
	for n := 2; ; n++ {
		if _, taken := claimed[name]; !taken {
			break
		}
		name = base + "_" + strconv.Itoa(n)
	}
	claimed[name] = struct{}{}
	return name
}

// sheetCategory pairs a worksheet title with its unique directory name.
type sheetCategory struct {
	Sheet string
	Dir   string
}

// categoriesFor applies the skip rule and naming to worksheets in order.
// Both the build and single-image lookup use it so directory names agree.
func categoriesFor(sheets []string, skip func(string) bool) []sheetCategory {
	claimed := make(map[string]struct{}, len(sheets))
	result := make([]sheetCategory, 0, len(sheets))
	for _, sheet := range sheets {
		if skip(sheet) {
			continue
		}
		result = append(result, sheetCategory{
			Sheet: sheet,
			Dir:   claimName(SafeDirName(sheet), claimed),
		})
	}
	return result
}
