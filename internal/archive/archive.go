// Package archive reads exported chat archives.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"
)

// DefaultMaxEntrySize caps a single decompressed entry (1 GB).
const DefaultMaxEntrySize = 1 << 30

// Entry is one archive member.
type Entry struct {
	Path string
	Dir  bool

	pos int
}

// Archive enumerates entries and reads their content.
type Archive interface {
	Entries() []Entry
	ReadText(e Entry) (string, error)
	ReadBlob(e Entry) ([]byte, error)
}

// Zip is an in-memory zip archive.
type Zip struct {
	r       *zip.Reader
	entries []Entry
	maxSize int64
}

// OpenZip parses data as a zip archive. maxEntrySize <= 0 selects
// DefaultMaxEntrySize.
func OpenZip(data []byte, maxEntrySize int64) (*Zip, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	if maxEntrySize <= 0 {
		maxEntrySize = DefaultMaxEntrySize
	}

	z := &Zip{r: r, maxSize: maxEntrySize}
	for i, f := range r.File {
		z.entries = append(z.entries, Entry{
			Path: f.Name,
			Dir:  f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/"),
			pos:  i,
		})
	}
	return z, nil
}

// Entries returns the members in archive order.
func (z *Zip) Entries() []Entry {
	return z.entries
}

func (z *Zip) ReadText(e Entry) (string, error) {
	b, err := z.ReadBlob(e)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadBlob decompresses one entry. Entries larger than the size cap are
// rejected rather than truncated. Safe for concurrent use.
func (z *Zip) ReadBlob(e Entry) ([]byte, error) {
	if e.pos < 0 || e.pos >= len(z.r.File) || z.r.File[e.pos].Name != e.Path {
		return nil, fmt.Errorf("entry %q not in archive", e.Path)
	}
	if e.Dir {
		return nil, fmt.Errorf("entry %q is a directory", e.Path)
	}

	rc, err := z.r.File[e.pos].Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", e.Path, err)
	}
	defer rc.Close()

	b, err := io.ReadAll(io.LimitReader(rc, z.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.Path, err)
	}
	if int64(len(b)) > z.maxSize {
		return nil, fmt.Errorf("entry %s exceeds %d bytes", e.Path, z.maxSize)
	}
	return b, nil
}
