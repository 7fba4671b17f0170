package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/chatview/internal/conversation"
	"github.com/Zuo-Peng/chatview/internal/parse"
)

var palette = []lipgloss.Color{
	"#e542a3", "#1f7aec", "#008069", "#d62d2d", "#a832a4",
	"#ff8f00", "#007aff", "#e67e22", "#2ecc71", "#34495e",
}

const noName = lipgloss.Color("#999999")

// previewLen is how many runes of the last message the chat list shows.
const previewLen = 30

// AuthorColor picks a stable palette color for name.
func AuthorColor(name string) lipgloss.Color {
	if name == "" {
		return noName
	}
	var hash int32
	for _, r := range name {
		hash = r + (hash << 5) - hash
	}
	h := int(hash)
	if h < 0 {
		h = -h
	}
	return palette[h%len(palette)]
}

func AuthorStyle(name string) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(AuthorColor(name))
}

// Preview summarizes a conversation for the chat list: a line describing
// the last message and that message's time.
func Preview(conv *conversation.Conversation) (text, at string) {
	switch m := conv.LastMessage().(type) {
	case nil:
		return "no messages", ""
	case *parse.System:
		return "system message", ""
	case *parse.Authored:
		if m.Media != nil {
			return "📷 " + string(m.Media.Kind), m.Time
		}
		r := []rune(m.Content)
		if len(r) > previewLen {
			r = r[:previewLen]
		}
		return string(r), m.Time
	}
	return "", ""
}
