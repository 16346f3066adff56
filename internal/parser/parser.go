// Package parser converts raw export files (chat exports, PDF, DOCX) into a
// uniform ordered sequence of messages.
package parser

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"chatquery/internal/models"
	"chatquery/internal/util"
)

type parseFunc func(path string) ([]models.Message, error)

// registry maps a file extension to its parser. Validated once at the upload
// boundary and again here before any file is touched.
var registry = map[string]parseFunc{
	".txt":  parseText,
	".pdf":  parsePDF,
	".docx": parseDOCX,
}

// Parse extracts messages from the file at path, dispatching on extension.
// An unsupported extension is the only hard error. A file that is readable by
// extension but unparseable in practice yields an empty message set: the
// failure is logged and the caller treats "nothing extracted" as non-fatal.
func Parse(path string) ([]models.Message, error) {
	ext := strings.ToLower(filepath.Ext(path))
	fn, ok := registry[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", util.ErrUnsupportedFormat, ext)
	}
	msgs, err := fn(path)
	if err != nil {
		log.Printf("parse %s: %v", filepath.Base(path), err)
		return nil, nil
	}
	return msgs, nil
}

// IsSupported reports whether the filename has a parseable extension.
func IsSupported(filename string) bool {
	_, ok := registry[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Supported returns the parseable extensions in stable order.
func Supported() []string {
	out := make([]string, 0, len(registry))
	for ext := range registry {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
