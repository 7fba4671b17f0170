// Package media holds the attachments of an imported archive, keyed by
// basename, and classifies them by kind.
package media

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// Ref is an opaque handle to a blob held by an Index.
type Ref string

func newRef() Ref {
	return Ref("blob:" + uuid.NewString())
}

// Item is one attachment. Items are immutable once built.
type Item struct {
	Kind Kind   `json:"kind"`
	Ref  Ref    `json:"ref"`
	Name string `json:"name"`
	Size int    `json:"size"`
}

// Index maps basenames to items. It is read-only once built and safe for
// concurrent readers.
type Index struct {
	order  []string // basenames in first-seen archive order
	byName map[string]*Item
	blobs  map[Ref][]byte
}

func NewIndex() *Index {
	return &Index{
		byName: make(map[string]*Item),
		blobs:  make(map[Ref][]byte),
	}
}

// Basename returns the final component of an archive path.
func Basename(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	return path.Base(p)
}

// put stores data under the basename of p. A later put with the same basename
// replaces the earlier item but keeps its scan position.
func (x *Index) put(p string, data []byte) *Item {
	name := Basename(p)
	item := &Item{
		Kind: KindOf(name),
		Ref:  newRef(),
		Name: name,
		Size: len(data),
	}

	if old, ok := x.byName[name]; ok {
		delete(x.blobs, old.Ref)
	} else {
		x.order = append(x.order, name)
	}
	x.byName[name] = item
	x.blobs[item.Ref] = data
	return item
}

func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.order)
}

// Items returns the items in scan order.
func (x *Index) Items() []*Item {
	if x == nil {
		return nil
	}
	items := make([]*Item, 0, len(x.order))
	for _, name := range x.order {
		items = append(items, x.byName[name])
	}
	return items
}

func (x *Index) Lookup(name string) (*Item, bool) {
	if x == nil {
		return nil, false
	}
	item, ok := x.byName[name]
	return item, ok
}

// Find returns the first item, in scan order, whose name occurs in text.
func (x *Index) Find(text string) *Item {
	if x == nil || text == "" {
		return nil
	}
	for _, name := range x.order {
		if strings.Contains(text, name) {
			return x.byName[name]
		}
	}
	return nil
}

// ItemFor returns the item that owns ref.
func (x *Index) ItemFor(ref Ref) (*Item, bool) {
	if x == nil {
		return nil, false
	}
	for _, name := range x.order {
		if item := x.byName[name]; item.Ref == ref {
			return item, true
		}
	}
	return nil, false
}

// Resolve returns the blob behind ref.
func (x *Index) Resolve(ref Ref) ([]byte, bool) {
	if x == nil {
		return nil, false
	}
	b, ok := x.blobs[ref]
	return b, ok
}
