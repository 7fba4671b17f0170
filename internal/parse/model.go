package parse

import (
	"encoding/json"

	"github.com/Zuo-Peng/chatview/internal/media"
)

// SystemDate is the date reported for system messages, which carry none.
const SystemDate = "Sistema"

// Message is either *Authored or *System.
type Message interface {
	// Body returns the raw message text.
	Body() string
	sealed()
}

// Authored is a message with a header line (date, time, author).
type Authored struct {
	Date      string      // raw, as written in the transcript
	Time      string      // HH:MM
	Author    string
	Content   string      // attachment markers left intact
	Media     *media.Item // borrowed from the conversation's media index
	Ephemeral bool        // view-once attachment
}

// System is a line that belongs to no author.
type System struct {
	Content string
}

func (m *Authored) Body() string { return m.Content }
func (m *System) Body() string   { return m.Content }

func (*Authored) sealed() {}
func (*System) sealed()   {}

// DateOf returns the message date, or SystemDate for system messages.
func DateOf(m Message) string {
	if a, ok := m.(*Authored); ok {
		return a.Date
	}
	return SystemDate
}

func (m *Authored) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string      `json:"type"`
		Date      string      `json:"date"`
		Time      string      `json:"time"`
		Author    string      `json:"author"`
		Content   string      `json:"content"`
		Media     *media.Item `json:"media,omitempty"`
		Ephemeral bool        `json:"ephemeral"`
	}{"authored", m.Date, m.Time, m.Author, m.Content, m.Media, m.Ephemeral})
}

func (m *System) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    string `json:"type"`
		Date    string `json:"date"`
		Content string `json:"content"`
	}{"system", SystemDate, m.Content})
}

// Result is the outcome of parsing one transcript.
type Result struct {
	Messages []Message
	Dropped  int // orphan lines too long to keep as system messages
}
