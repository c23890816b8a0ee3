package mediacache

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// SignatureBytes is the workbook prefix length hashed into remote identities.
const SignatureBytes = 64 * 1024

// LocalMissingIdentity is reported when no local workbook path is configured.
const LocalMissingIdentity = "local:missing"

// Identity fingerprints a workbook file from its path, modification time and
// size. A missing file yields "<path>|missing" instead of an error. When
// withSignature is set, a hash of the first SignatureBytes is appended so that
// a rewritten file with a preserved mtime still changes identity.
func Identity(path string, withSignature bool) string {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return path + "|missing"
	}

	base := fmt.Sprintf("%s|%d|%d", path, info.ModTime().UnixNano(), info.Size())
	if !withSignature {
		return base
	}

	sig, err := ContentSignature(path)
	if err != nil {
		return base
	}
	return base + "|sig:" + sig
}

// ContentSignature returns a 16 hex digit xxhash64 of the file's first
// SignatureBytes bytes.
func ContentSignature(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.CopyN(h, f, SignatureBytes); err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}
