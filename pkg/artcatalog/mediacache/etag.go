package mediacache

import (
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
)

// ETag builds a weak validator for a cached image from the file's mtime and
// size and a short hash of identity and filename, without reading the bytes.
func ETag(path, identity, filename string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	seed := xxhash.Sum64String(identity + "|" + filename)
	return fmt.Sprintf(`W/"%x-%x-%016x"`, info.ModTime().UnixNano(), info.Size(), seed), nil
}
