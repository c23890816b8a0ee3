package mediacache

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	safeCategoryPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
	imageFilePattern    = regexp.MustCompile(`^img_([1-9]\d*)\.png$`)
	cacheFilePattern    = regexp.MustCompile(`^img_\d+\.(png|meta)$`)
)

// ValidCategory reports whether name is a safe category directory name.
func ValidCategory(name string) bool {
	if !safeCategoryPattern.MatchString(name) {
		return false
	}
	return strings.Trim(name, ".") != ""
}

// ParseImageFilename returns the 1-based index of an img_<n>.png filename.
func ParseImageFilename(name string) (int, bool) {
	m := imageFilePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	index, err := strconv.Atoi(m[1])
	if err != nil || index < 1 {
		return 0, false
	}
	return index, true
}

// ImageFilename returns the cache filename of the image at a 1-based index.
func ImageFilename(index int) string {
	return fmt.Sprintf("img_%d.png", index)
}

func isCacheFile(name string) bool {
	return cacheFilePattern.MatchString(name)
}
