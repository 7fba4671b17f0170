// Package tui is the interactive viewer: a conversation list on the left and
// the selected thread on the right, with find-in-thread.
package tui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/chatview/internal/conversation"
	apperrors "github.com/Zuo-Peng/chatview/internal/errors"
	"github.com/Zuo-Peng/chatview/internal/index"
	"github.com/Zuo-Peng/chatview/internal/open"
	"github.com/Zuo-Peng/chatview/internal/parse"
	"github.com/Zuo-Peng/chatview/internal/render"
	"github.com/Zuo-Peng/chatview/internal/search"
)

const debounceDelay = 200 * time.Millisecond

type Options struct {
	Opener     *open.Opener
	Attachment []*regexp.Regexp // attachment markers stripped from displayed text
}

// message types

type debounceTickMsg struct {
	find  bool // find-in-thread input, otherwise the list filter
	value string
}

// model

type model struct {
	lib  *index.Library
	opts Options

	convs      []*conversation.Conversation
	cursor     int
	listOffset int

	filterInput textinput.Model
	findInput   textinput.Model
	finding     bool
	finder      *search.Finder

	thread   viewport.Model
	rendered render.Rendered
	seq      int

	status    string
	statusErr bool

	width    int
	height   int
	ready    bool
	quitting bool
}

func newInput(placeholder string, prompt lipgloss.Style) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	ti.PromptStyle = prompt
	ti.TextStyle = styleInput
	ti.CharLimit = 256
	return ti
}

func initialModel(lib *index.Library, opts Options) model {
	m := model{
		lib:         lib,
		opts:        opts,
		filterInput: newInput("Filter conversations...", styleInputPrompt),
		findInput:   newInput("Find in thread...", styleFindPrompt),
		thread:      viewport.New(0, 0),
	}
	m.filterInput.Focus()
	m.applyFilter("")
	m.seq = 1
	return m
}

// Run starts the TUI and blocks until it exits. It opens on the library's
// current conversation.
func Run(lib *index.Library, opts Options) error {
	p := tea.NewProgram(initialModel(lib, opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// Init triggers the first thread render.
func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.threadCmd(m.seq, ""))
}

// Update handles messages.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.thread = newViewport(m.threadWidth(), m.panelHeight())
		return m, m.reloadThread(m.activeFind())

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		m.status, m.statusErr = "", false

		switch {
		case key.Matches(msg, keys.Quit):
			if m.finding {
				m.closeFind()
				return m, m.reloadThread("")
			}
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Find):
			if m.current() == nil {
				return m, nil
			}
			m.finding = true
			m.filterInput.Blur()
			return m, m.findInput.Focus()

		case m.finding && key.Matches(msg, keys.Next):
			return m, m.moveHit(m.finder.Next)

		case m.finding && key.Matches(msg, keys.Prev):
			return m, m.moveHit(m.finder.Prev)

		case !m.finding && key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.adjustListScroll(m.panelHeight())
				return m, m.selectCursor()
			}
			return m, nil

		case !m.finding && key.Matches(msg, keys.Down):
			if m.cursor < len(m.convs)-1 {
				m.cursor++
				m.adjustListScroll(m.panelHeight())
				return m, m.selectCursor()
			}
			return m, nil

		case key.Matches(msg, keys.PreviewUp):
			m.thread.LineUp(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PreviewDn):
			m.thread.LineDown(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PageUp):
			m.thread.LineUp(m.panelHeight())
			return m, nil

		case key.Matches(msg, keys.PageDown):
			m.thread.LineDown(m.panelHeight())
			return m, nil

		case key.Matches(msg, keys.OpenMedia):
			m.openMedia()
			return m, nil

		case key.Matches(msg, keys.Copy):
			m.copyMessage()
			return m, nil
		}

		// Pass remaining keys to the active text input
		var tiCmd tea.Cmd
		if m.finding {
			before := m.findInput.Value()
			m.findInput, tiCmd = m.findInput.Update(msg)
			cmds = append(cmds, tiCmd)
			if v := m.findInput.Value(); v != before {
				cmds = append(cmds, scheduleDebounce(true, v))
			}
		} else {
			before := m.filterInput.Value()
			m.filterInput, tiCmd = m.filterInput.Update(msg)
			cmds = append(cmds, tiCmd)
			if v := m.filterInput.Value(); v != before {
				cmds = append(cmds, scheduleDebounce(false, v))
			}
		}
		return m, tea.Batch(cmds...)

	case tea.MouseMsg:
		if !m.ready {
			return m, nil
		}

		region, itemIdx := m.hitTest(msg.X, msg.Y)

		switch {
		case region == regionList && msg.Button == tea.MouseButtonWheelUp:
			if m.listOffset > 0 {
				m.listOffset--
			}
			return m, nil

		case region == regionList && msg.Button == tea.MouseButtonWheelDown:
			visibleItems := m.panelHeight() / linesPerItem
			maxOffset := len(m.convs) - visibleItems
			if maxOffset < 0 {
				maxOffset = 0
			}
			if m.listOffset < maxOffset {
				m.listOffset++
			}
			return m, nil

		case region == regionList && msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
			if itemIdx >= 0 && itemIdx < len(m.convs) && m.cursor != itemIdx {
				m.cursor = itemIdx
				m.adjustListScroll(m.panelHeight())
				return m, m.selectCursor()
			}
			return m, nil

		case region == regionThread && (msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown):
			var vpCmd tea.Cmd
			m.thread, vpCmd = m.thread.Update(msg)
			return m, vpCmd
		}

		return m, nil

	case debounceTickMsg:
		// Only act if the input hasn't changed since the tick was scheduled
		if msg.find {
			if m.finding && msg.value == m.findInput.Value() {
				m.finder = nil
				return m, m.reloadThread(m.activeFind())
			}
			return m, nil
		}
		if msg.value == m.filterInput.Value() {
			before := m.current()
			m.applyFilter(msg.value)
			if m.current() != before {
				return m, m.selectCursor()
			}
		}
		return m, nil

	case threadRenderedMsg:
		if msg.seq != m.seq {
			return m, nil // stale render
		}
		if msg.finder != nil {
			m.finder = msg.finder
		}
		m.rendered = msg.rendered
		m.thread.SetContent(msg.rendered.Content)
		if msg.rendered.HitLine >= 0 {
			m.scrollTo(msg.rendered.HitLine)
		} else {
			m.thread.GotoBottom()
		}
		return m, nil
	}

	return m, tea.Batch(cmds...)
}

// View renders the full TUI.
func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}

	listW := m.listWidth()
	threadW := m.threadWidth()
	panelH := m.panelHeight()

	// Input row
	inputRow := m.filterInput.View()
	if m.finding {
		inputRow = m.findInput.View() + "  " + styleListTime.Render(m.counter())
	}

	listPanel := stylePanelBorder.
		Width(listW).
		Height(panelH).
		Render(m.renderList(listW, panelH))

	m.thread.Width = threadW
	m.thread.Height = panelH
	threadPanel := styleActiveBorder.
		Width(threadW).
		Height(panelH).
		Render(m.thread.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, threadPanel)

	return lipgloss.JoinVertical(lipgloss.Left, inputRow, panels, m.statusBar())
}

// helper methods

func (m model) listWidth() int {
	if m.width <= 0 {
		return 30
	}
	// 30% for list, minus border padding
	w := m.width*30/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) threadWidth() int {
	if m.width <= 0 {
		return 70
	}
	// 70% for the thread, minus border padding
	w := m.width*70/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) panelHeight() int {
	if m.height <= 0 {
		return 20
	}
	// Subtract input row (1) + status bar (1) + borders (4)
	h := m.height - 6
	if h < 5 {
		h = 5
	}
	return h
}

type mouseRegion int

const (
	regionNone mouseRegion = iota
	regionList
	regionThread
)

// hitTest maps terminal coordinates to a panel region and list item index.
func (m model) hitTest(x, y int) (mouseRegion, int) {
	pH := m.panelHeight()
	contentYStart := 2 // input row (1) + top border (1)
	contentYEnd := contentYStart + pH - 1

	if y < contentYStart || y > contentYEnd {
		return regionNone, -1
	}
	relY := y - contentYStart

	lw := m.listWidth()
	listBoxRight := lw + 1 // col 0=border, 1..lw=content, lw+1=border

	if x >= 1 && x <= lw {
		return regionList, m.listOffset + (relY / linesPerItem)
	}

	if x > listBoxRight+1 {
		return regionThread, -1
	}

	return regionNone, -1
}

func (m model) statusBar() string {
	if m.status != "" {
		if m.statusErr {
			return styleStatusError.Render(m.status)
		}
		return styleStatusBar.Render(m.status)
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d conversations", len(m.convs)))
	if m.finding {
		parts = append(parts, "find "+m.counter())
		parts = append(parts, "Enter/C-p next/prev")
		parts = append(parts, "Esc close find")
	} else {
		parts = append(parts, "up/dn select")
		parts = append(parts, "C-f find")
		parts = append(parts, "Esc quit")
	}
	parts = append(parts, "C-o open media")
	parts = append(parts, "C-y copy")
	return styleStatusBar.Render(strings.Join(parts, " | "))
}

func (m model) counter() string {
	if m.finder == nil {
		return "0/0"
	}
	return m.finder.Counter()
}

func (m model) current() *conversation.Conversation {
	if m.cursor < 0 || m.cursor >= len(m.convs) {
		return nil
	}
	return m.convs[m.cursor]
}

// activeFind is the query to search for on the next render.
func (m model) activeFind() string {
	if !m.finding {
		return ""
	}
	return m.findInput.Value()
}

// applyFilter narrows the list to names matching filter, keeping the
// library's current conversation under the cursor when it is still listed.
func (m *model) applyFilter(filter string) {
	m.convs = m.lib.Filter(filter)
	m.cursor, m.listOffset = 0, 0
	if cur := m.lib.Current(); cur != nil {
		for i, c := range m.convs {
			if c.ID == cur.ID {
				m.cursor = i
				break
			}
		}
	}
	m.adjustListScroll(m.panelHeight())
}

// selectCursor makes the conversation under the cursor current and renders
// it, discarding any find state.
func (m *model) selectCursor() tea.Cmd {
	conv := m.current()
	if conv == nil {
		m.seq++
		m.rendered = render.Rendered{HitLine: -1}
		m.thread.SetContent("")
		return nil
	}
	if err := m.lib.Select(conv.ID); err != nil {
		m.setError(err)
	}
	m.finder = nil
	return m.reloadThread(m.activeFind())
}

func (m *model) closeFind() {
	m.finding = false
	m.finder = nil
	m.findInput.Reset()
	m.findInput.Blur()
	m.filterInput.Focus()
}

func (m *model) reloadThread(find string) tea.Cmd {
	m.seq++
	return m.threadCmd(m.seq, find)
}

func (m model) threadCmd(seq int, find string) tea.Cmd {
	conv := m.current()
	if conv == nil {
		return nil
	}
	return loadThreadCmd(threadRequest{
		seq:        seq,
		conv:       conv,
		find:       find,
		hit:        -1,
		width:      m.threadWidth(),
		attachment: m.opts.Attachment,
	})
}

// moveHit steps the finder and re-renders around the new hit.
func (m *model) moveHit(step func() (int, bool)) tea.Cmd {
	if m.finder == nil {
		return nil
	}
	hit, ok := step()
	if !ok {
		return nil
	}
	conv := m.current()
	if conv == nil {
		return nil
	}
	m.seq++
	return loadThreadCmd(threadRequest{
		seq:        m.seq,
		conv:       conv,
		highlight:  m.finder.Query(),
		hit:        hit,
		width:      m.threadWidth(),
		attachment: m.opts.Attachment,
	})
}

// scrollTo puts line a third of the way down the thread panel.
func (m *model) scrollTo(line int) {
	off := line - m.panelHeight()/3
	if off < 0 {
		off = 0
	}
	m.thread.SetYOffset(off)
}

// focusMessage is the message the viewer is looking at: the current find
// hit, or else the first message whose block starts inside the panel.
func (m model) focusMessage() int {
	if m.finder != nil {
		if i, ok := m.finder.Current(); ok {
			return i
		}
	}
	lines := m.rendered.Lines
	for i, l := range lines {
		if l >= m.thread.YOffset {
			return i
		}
	}
	return len(lines) - 1
}

// openMedia opens the first attachment at or after the focused message.
func (m *model) openMedia() {
	conv := m.current()
	if conv == nil || m.opts.Opener == nil {
		return
	}
	start := m.focusMessage()
	if start < 0 {
		start = 0
	}
	for i := start; i < len(conv.Messages); i++ {
		a, ok := conv.Messages[i].(*parse.Authored)
		if !ok || a.Media == nil {
			continue
		}
		blob, ok := conv.Media.Resolve(a.Media.Ref)
		if !ok {
			m.setError(fmt.Errorf("%s is no longer available", a.Media.Name))
			return
		}
		if _, err := m.opts.Opener.OpenMedia(a.Media, blob); err != nil {
			m.setError(err)
			return
		}
		m.status = "opened " + a.Media.Name
		return
	}
	m.status = "no media below this point"
}

// copyMessage copies the focused message's displayed text to the clipboard.
func (m *model) copyMessage() {
	conv := m.current()
	i := m.focusMessage()
	if conv == nil || i < 0 || i >= len(conv.Messages) {
		return
	}

	var text string
	switch msg := conv.Messages[i].(type) {
	case *parse.System:
		text = msg.Content
	case *parse.Authored:
		text = render.DisplayText(msg, m.opts.Attachment)
		if text == "" && msg.Media != nil {
			text = msg.Media.Name
		}
		text = fmt.Sprintf("[%s %s] %s: %s", msg.Date, msg.Time, msg.Author, text)
	}

	if err := clipboard.WriteAll(text); err != nil {
		m.setError(fmt.Errorf("clipboard: %w", err))
		return
	}
	m.status = "copied message"
}

func (m *model) setError(err error) {
	m.statusErr = true
	if _, ok := apperrors.As(err); ok {
		m.status = apperrors.GetUserMessage(err)
		return
	}
	m.status = err.Error()
}

func scheduleDebounce(find bool, value string) tea.Cmd {
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceTickMsg{find: find, value: value}
	})
}
