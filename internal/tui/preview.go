package tui

import (
	"regexp"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/chatview/internal/conversation"
	"github.com/Zuo-Peng/chatview/internal/parse"
	"github.com/Zuo-Peng/chatview/internal/render"
	"github.com/Zuo-Peng/chatview/internal/search"
)

// threadRenderedMsg is sent when an async thread render completes. seq
// identifies the request so stale renders can be dropped.
type threadRenderedMsg struct {
	seq      int
	rendered render.Rendered
	finder   *search.Finder // set when the request ran a new search
}

type threadRequest struct {
	seq        int
	conv       *conversation.Conversation
	find       string // run a new search for this query
	highlight  string // otherwise highlight this query
	hit        int    // and mark this message
	width      int
	attachment []*regexp.Regexp
}

// loadThreadCmd renders the thread asynchronously. The finder it creates is
// handed back to Update and never touched here again.
func loadThreadCmd(req threadRequest) tea.Cmd {
	return func() tea.Msg {
		var finder *search.Finder
		highlight, hit := req.highlight, req.hit
		if req.find != "" {
			finder = search.Find(req.conv.Messages, req.find, func(a *parse.Authored) string {
				return render.DisplayText(a, req.attachment)
			})
			highlight = ""
			if finder.Len() > 0 {
				highlight = finder.Query()
			}
			hit, _ = finder.Current()
		}

		r := render.RenderConversation(req.conv, render.Options{
			Width:      req.width,
			Query:      highlight,
			Hit:        hit,
			Attachment: req.attachment,
		})
		return threadRenderedMsg{seq: req.seq, rendered: r, finder: finder}
	}
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	return viewport.New(width, height)
}
