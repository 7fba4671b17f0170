// Package archivetest builds zip fixtures for tests.
package archivetest

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zip"
)

// File is one fixture member. A Name ending in "/" is written as a directory.
type File struct {
	Name string
	Body string
}

// Zip returns a zip archive holding files in order.
func Zip(t testing.TB, files ...File) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, f := range files {
		fw, err := w.Create(f.Name)
		if err != nil {
			t.Fatalf("create %s: %v", f.Name, err)
		}
		if f.Body == "" {
			continue
		}
		if _, err := fw.Write([]byte(f.Body)); err != nil {
			t.Fatalf("write %s: %v", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}
