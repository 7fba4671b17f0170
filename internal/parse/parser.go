// Package parse turns an exported chat transcript into an ordered sequence of
// messages.
//
// Parsing is a left fold over tokenized lines. A header line opens an
// authored message; following lines that are not headers are continuation
// lines and extend it. Lines seen before any header become system messages
// when short enough and are dropped otherwise, so a garbled line never aborts
// the rest of the transcript.
package parse

import (
	"strings"
	"unicode/utf8"

	"github.com/Zuo-Peng/chatview/internal/media"
)

// DefaultOrphanMaxLen is the rune length from which an orphan line is dropped
// instead of kept as a system message. Browser viewers count UTF-16 units
// here, so lines of astral characters (emoji) are kept longer than there.
const DefaultOrphanMaxLen = 200

type Options struct {
	OrphanMaxLen int         // <= 0 selects DefaultOrphanMaxLen
	Markers      MarkerTable // zero value selects DefaultMarkers
	Locales      []string    // empty enables every locale in Markers
}

type Parser struct {
	media        *media.Index
	orphanMaxLen int
	ephemeral    []string
}

// New returns a parser that attaches media from idx. idx may be nil.
func New(idx *media.Index, opts Options) *Parser {
	if opts.OrphanMaxLen <= 0 {
		opts.OrphanMaxLen = DefaultOrphanMaxLen
	}
	if opts.Markers.Ephemeral == nil && opts.Markers.Attachment == nil {
		opts.Markers = DefaultMarkers()
	}
	return &Parser{
		media:        idx,
		orphanMaxLen: opts.OrphanMaxLen,
		ephemeral:    opts.Markers.EphemeralFor(opts.Locales),
	}
}

// State is the fold accumulator. Treat it as consumed once passed to Step or
// Finish.
type State struct {
	open    *Authored
	out     []Message
	dropped int
}

// Open returns the message currently being accumulated, if any.
func (s State) Open() *Authored {
	return s.open
}

// Step folds one tokenized line into s.
func (p *Parser) Step(s State, line string) State {
	if h, ok := matchHeader(line); ok {
		if s.open != nil {
			s.out = append(s.out, s.open)
		}
		s.open = &Authored{
			Date:      h.date,
			Time:      h.time,
			Author:    h.author,
			Content:   h.content,
			Media:     p.media.Find(h.content),
			Ephemeral: p.isEphemeral(h.content),
		}
		return s
	}

	if s.open != nil {
		s.open.Content += "\n" + line
		if s.open.Media == nil {
			s.open.Media = p.media.Find(s.open.Content)
		}
		return s
	}

	if utf8.RuneCountInString(line) < p.orphanMaxLen {
		s.out = append(s.out, &System{Content: line})
	} else {
		s.dropped++
	}
	return s
}

// Finish flushes the open message and returns the result.
func (p *Parser) Finish(s State) Result {
	if s.open != nil {
		s.out = append(s.out, s.open)
		s.open = nil
	}
	return Result{Messages: s.out, Dropped: s.dropped}
}

// Parse folds lines left to right.
func (p *Parser) Parse(lines []string) Result {
	var s State
	for _, line := range lines {
		s = p.Step(s, line)
	}
	return p.Finish(s)
}

// ParseText tokenizes and parses a whole transcript.
func (p *Parser) ParseText(text string) Result {
	return p.Parse(Tokenize(text))
}

func (p *Parser) isEphemeral(content string) bool {
	lower := strings.ToLower(content)
	for _, m := range p.ephemeral {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
