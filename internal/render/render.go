package render

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/chatview/internal/conversation"
	"github.com/Zuo-Peng/chatview/internal/media"
	"github.com/Zuo-Peng/chatview/internal/parse"
)

const (
	colorReset   = "\033[0m"
	colorOwn     = "\033[1;32m" // bold green
	colorDim     = "\033[2m"
	colorHit     = "\033[43m"   // yellow background
	colorBoldRed = "\033[1;31m" // bold red for keyword highlights
	colorCard    = "\033[1;36m" // bold cyan
)

type Options struct {
	Width int    // wrap width (0 = no wrap)
	Query string // highlighted in every message
	Hit   int    // message index drawn as the current hit, -1 for none
	// Attachment strips attachment notes from messages that carry media.
	// nil selects every built-in marker.
	Attachment []*regexp.Regexp
}

// Rendered is a thread ready for display.
type Rendered struct {
	Content string
	// Lines holds, per message, the 0-based line its block starts on.
	Lines   []int
	HitLine int
}

var defaultAttachment = func() []*regexp.Regexp {
	res, err := parse.DefaultMarkers().AttachmentFor(nil)
	if err != nil {
		panic(err)
	}
	return res
}()

// fts5Operators are FTS5 operators that should not be highlighted as keywords.
var fts5Operators = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "NEAR": true,
	"and": true, "or": true, "not": true, "near": true,
}

// highlightKeywords wraps case-insensitive matches of query terms in bold red ANSI codes.
func highlightKeywords(text, query string) string {
	if query == "" {
		return text
	}
	var filtered []string
	for _, t := range strings.Fields(query) {
		t = strings.TrimSuffix(t, "*")
		if t != "" && !fts5Operators[t] {
			filtered = append(filtered, t)
		}
	}
	for _, term := range filtered {
		lower := strings.ToLower(term)
		i := 0
		for i < len(text) {
			idx := strings.Index(strings.ToLower(text[i:]), lower)
			if idx < 0 {
				break
			}
			pos := i + idx
			end := pos + len(term)
			if end > len(text) || strings.ToLower(text[pos:end]) != lower {
				// case folding changed the byte length; leave this match alone
				break
			}
			replacement := colorBoldRed + text[pos:end] + colorReset
			text = text[:pos] + replacement + text[end:]
			i = pos + len(replacement)
		}
	}
	return text
}

// indentLines prepends each line of text with the given prefix.
func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// wrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, correctly skipping ANSI escape sequences when measuring width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// check for ANSI escape sequence: ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++ // include 'm'
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth && visW > 0 {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}

	if len(result) == 0 {
		return []string{""}
	}
	return result
}

// center pads s on the left so it sits in the middle of width columns.
func center(s string, width int) string {
	w := runewidth.StringWidth(s)
	if width <= w {
		return s
	}
	return strings.Repeat(" ", (width-w)/2) + s
}

// DisplayText is the text a reader sees for a message. Attachment notes and
// the media filename are removed only when the message carries media. A
// view-once message shows no text.
func DisplayText(m *parse.Authored, attachment []*regexp.Regexp) string {
	if m.Ephemeral {
		return ""
	}
	if m.Media == nil {
		return m.Content
	}
	if attachment == nil {
		attachment = defaultAttachment
	}
	text := strings.Replace(m.Content, m.Media.Name, "", 1)
	for _, re := range attachment {
		text = re.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

// mediaLabel is the placeholder drawn where the attachment would appear.
func mediaLabel(item *media.Item) string {
	icon := "📎"
	switch item.Kind {
	case media.KindImage:
		icon = "📷"
	case media.KindVideo:
		icon = "🎬"
	case media.KindAudio:
		icon = "🎤"
	}
	return fmt.Sprintf("[%s %s: %s]", icon, item.Kind, item.Name)
}

// RenderConversation renders a whole thread: date dividers, centered system
// lines, incoming messages under their author and outgoing ones indented
// without it.
func RenderConversation(conv *conversation.Conversation, opts Options) Rendered {
	out := Rendered{HitLine: -1, Lines: make([]int, len(conv.Messages))}

	var b strings.Builder
	lineCount := 0
	wrapW := opts.Width

	// helper to track line count; wraps long lines if Width is set
	writeLine := func(s string) {
		for _, wl := range wrapLine(s, wrapW) {
			b.WriteString(wl)
			b.WriteString("\n")
			lineCount++
		}
	}

	outIndent := "        "
	if opts.Width > 0 {
		outIndent = strings.Repeat(" ", opts.Width/4)
	}

	// header
	writeLine(fmt.Sprintf("%s--- %s (%d messages) ---%s", colorDim, conv.Name, len(conv.Messages), colorReset))
	if len(conv.Messages) == 0 {
		writeLine(colorDim + "(no messages)" + colorReset)
	}

	lastDate := ""
	for i, msg := range conv.Messages {
		isHit := i == opts.Hit

		if d := parse.DateOf(msg); d != parse.SystemDate && d != lastDate {
			writeLine("")
			writeLine(colorDim + center("── "+d+" ──", opts.Width) + colorReset)
			lastDate = d
		}

		out.Lines[i] = lineCount
		if isHit {
			out.HitLine = lineCount
		}

		switch m := msg.(type) {
		case *parse.System:
			text := highlightKeywords(m.Content, opts.Query)
			for _, l := range strings.Split(text, "\n") {
				writeLine(colorDim + center(l, opts.Width) + colorReset)
			}

		case *parse.Authored:
			own := conv.IsOutgoing(m.Author)
			indent := "  "
			if own {
				indent = outIndent
			}

			if !own {
				writeLine(AuthorStyle(m.Author).Render(m.Author))
			}
			if isHit {
				writeLine(fmt.Sprintf("%s%s>> %s <<%s", indent, colorHit, m.Time, colorReset))
			}

			switch {
			case m.Ephemeral:
				writeLine(indent + colorCard + "(1) view-once photo" + colorReset)
			case m.Media != nil:
				writeLine(indent + colorCard + mediaLabel(m.Media) + colorReset)
			}

			if text := DisplayText(m, opts.Attachment); text != "" {
				text = highlightKeywords(text, opts.Query)
				if own {
					text = colorOwn + text + colorReset
				}
				for _, l := range strings.Split(indentLines(text, indent), "\n") {
					writeLine(l)
				}
			}

			meta := m.Time
			if own {
				meta += " ✓✓"
			}
			writeLine(indent + colorDim + meta + colorReset)
		}
		writeLine("")
	}

	out.Content = b.String()
	return out
}
