package search

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Zuo-Peng/chatview/internal/parse"
)

// MinQueryLen is the shortest query a Finder searches for, in runes.
const MinQueryLen = 2

// Finder walks the messages of one thread that contain a query. It starts at
// the last (most recent) hit and wraps around in both directions.
type Finder struct {
	query string
	hits  []int
	cur   int
}

// Find matches query, case-insensitively and literally, against the text of
// each authored message. text returns what the reader sees for a message; nil
// uses the raw body. Queries shorter than MinQueryLen match nothing.
func Find(msgs []parse.Message, query string, text func(*parse.Authored) string) *Finder {
	f := &Finder{query: strings.TrimSpace(query), cur: -1}
	if utf8.RuneCountInString(f.query) < MinQueryLen {
		return f
	}
	if text == nil {
		text = (*parse.Authored).Body
	}

	q := strings.ToLower(f.query)
	for i, m := range msgs {
		a, ok := m.(*parse.Authored)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(text(a)), q) {
			f.hits = append(f.hits, i)
		}
	}
	f.cur = len(f.hits) - 1
	return f
}

func (f *Finder) Query() string {
	return f.query
}

// Hits returns the matching message positions in thread order.
func (f *Finder) Hits() []int {
	return f.hits
}

func (f *Finder) Len() int {
	return len(f.hits)
}

// Current returns the message position of the current hit.
func (f *Finder) Current() (int, bool) {
	if f.cur < 0 {
		return -1, false
	}
	return f.hits[f.cur], true
}

// IsHit reports whether message i matched.
func (f *Finder) IsHit(i int) bool {
	for _, h := range f.hits {
		if h == i {
			return true
		}
	}
	return false
}

func (f *Finder) Next() (int, bool) {
	return f.move(1)
}

func (f *Finder) Prev() (int, bool) {
	return f.move(-1)
}

func (f *Finder) move(delta int) (int, bool) {
	n := len(f.hits)
	if n == 0 {
		return -1, false
	}
	f.cur = ((f.cur+delta)%n + n) % n
	return f.hits[f.cur], true
}

// Counter renders the position as "i/N", or "0/0" without hits.
func (f *Finder) Counter() string {
	if len(f.hits) == 0 {
		return "0/0"
	}
	return fmt.Sprintf("%d/%d", f.cur+1, len(f.hits))
}
