package parse

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// MarkerTable holds the locale-specific strings the parser and renderer look
// for, keyed by locale tag.
type MarkerTable struct {
	// Ephemeral are case-insensitive substrings flagging a view-once attachment.
	Ephemeral map[string][]string
	// Attachment are regular expressions for the attachment notes exports add
	// next to a filename. The renderer strips them; the parser keeps them.
	Attachment map[string][]string
}

// DefaultMarkers returns the built-in table.
func DefaultMarkers() MarkerTable {
	return MarkerTable{
		Ephemeral: map[string][]string{
			"pt": {"visualização única", "imagem ocultada"},
			"en": {"view once"},
		},
		Attachment: map[string][]string{
			"pt": {`<anexado:.*?>`, `\(arquivo anexado\)`},
			"en": {`<attached:.*?>`},
		},
	}
}

// Merge returns a copy of t with extra entries appended per locale.
func (t MarkerTable) Merge(ephemeral, attachment map[string][]string) MarkerTable {
	return MarkerTable{
		Ephemeral:  mergeLists(t.Ephemeral, ephemeral),
		Attachment: mergeLists(t.Attachment, attachment),
	}
}

// Locales lists every locale tag in the table, sorted.
func (t MarkerTable) Locales() []string {
	seen := make(map[string]bool)
	for loc := range t.Ephemeral {
		seen[loc] = true
	}
	for loc := range t.Attachment {
		seen[loc] = true
	}
	out := make([]string, 0, len(seen))
	for loc := range seen {
		out = append(out, loc)
	}
	sort.Strings(out)
	return out
}

// EphemeralFor returns the lowercased ephemeral markers of the given locales,
// or of every locale when none are given.
func (t MarkerTable) EphemeralFor(locales []string) []string {
	var out []string
	for _, loc := range t.pick(locales) {
		for _, m := range t.Ephemeral[loc] {
			out = append(out, strings.ToLower(m))
		}
	}
	return out
}

// AttachmentFor compiles the attachment patterns of the given locales (every
// locale when none are given) as case-insensitive expressions.
func (t MarkerTable) AttachmentFor(locales []string) ([]*regexp.Regexp, error) {
	var out []*regexp.Regexp
	for _, loc := range t.pick(locales) {
		for _, p := range t.Attachment[loc] {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("attachment marker %q (%s): %w", p, loc, err)
			}
			out = append(out, re)
		}
	}
	return out, nil
}

func (t MarkerTable) pick(locales []string) []string {
	if len(locales) == 0 {
		return t.Locales()
	}
	return locales
}

func mergeLists(base, extra map[string][]string) map[string][]string {
	out := make(map[string][]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = append([]string(nil), v...)
	}
	for k, v := range extra {
		out[k] = append(out[k], v...)
	}
	return out
}
