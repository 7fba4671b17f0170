package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/chatview/internal/conversation"
	"github.com/Zuo-Peng/chatview/internal/render"
)

// linesPerItem is the number of terminal lines each conversation occupies.
const linesPerItem = 2

// renderList renders the left panel: the filtered conversations with scrolling.
func (m model) renderList(width, height int) string {
	if len(m.convs) == 0 {
		msg := "No conversations"
		if m.filterInput.Value() != "" {
			msg = "No matches"
		}
		return lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render(msg)
	}

	var lines []string
	for i, c := range m.convs {
		if i < m.listOffset {
			continue
		}
		if len(lines)+linesPerItem > height {
			break
		}
		lines = append(lines, formatConversation(c, width, i == m.cursor)...)
	}

	// Pad remaining lines
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}

	return strings.Join(lines, "\n")
}

// formatConversation formats one conversation as two lines:
//
//	line 1: [>] name            HH:MM
//	line 2:    last message preview (dimmed)
func formatConversation(c *conversation.Conversation, width int, selected bool) []string {
	preview, at := render.Preview(c)

	// Truncate name to fit width: leave room for prefix and time
	nameMax := width - 2 - 1 - runewidth.StringWidth(at)
	if nameMax < 0 {
		nameMax = 0
	}
	name := runewidth.Truncate(c.Name, nameMax, "…")
	pad := nameMax - runewidth.StringWidth(name)
	if pad < 0 {
		pad = 0
	}

	name = render.AuthorStyle(c.Name).Render(name)
	line1 := name + strings.Repeat(" ", pad+1) + styleListTime.Render(at)
	if selected {
		line1 = styleListSelected.Render("> ") + line1
	} else {
		line1 = "  " + line1
	}

	// Line 2: preview (dimmed, indented)
	preview = strings.ReplaceAll(preview, "\n", " ")
	preview = strings.ReplaceAll(preview, "\t", " ")
	previewMax := width - 4 // indent
	if previewMax < 0 {
		previewMax = 0
	}
	if runewidth.StringWidth(preview) > previewMax {
		preview = runewidth.Truncate(preview, previewMax, "")
	}
	line2 := "    " + lipgloss.NewStyle().Foreground(colorDim).Render(preview)

	return []string{line1, line2}
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (m *model) adjustListScroll(listHeight int) {
	visibleItems := listHeight / linesPerItem
	if visibleItems < 1 {
		visibleItems = 1
	}
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visibleItems {
		m.listOffset = m.cursor - visibleItems + 1
	}
}
