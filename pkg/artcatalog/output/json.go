// Package output serializes catalog results for the command line.
package output

import (
	"bytes"
	"encoding/json"
	"io"
)

// ToJSON serializes v to JSON, indented with two spaces when pretty is set.
// HTML characters are not escaped so image URLs stay readable.
func ToJSON(v any, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, v, pretty); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Write encodes v to w followed by a newline.
func Write(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
