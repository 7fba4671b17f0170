// Package conversation assembles parsed transcripts into conversations and
// runs the archive import pipeline.
package conversation

import (
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Zuo-Peng/chatview/internal/media"
	"github.com/Zuo-Peng/chatview/internal/parse"
)

// Conversation is one imported archive. It is not mutated after Assemble.
type Conversation struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Owner      string          `json:"owner,omitempty"`
	Messages   []parse.Message `json:"messages"`
	Media      *media.Index    `json:"-"`
	ImportedAt time.Time       `json:"imported_at"`
	Dropped    int             `json:"dropped_lines"`
}

var (
	entropyMu sync.Mutex
	entropy   io.Reader = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

func newID(now time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}

// Assemble wraps a parse result and its media index into a Conversation.
func Assemble(name, owner string, res parse.Result, idx *media.Index, now time.Time) *Conversation {
	return &Conversation{
		ID:         newID(now),
		Name:       name,
		Owner:      owner,
		Messages:   res.Messages,
		Media:      idx,
		ImportedAt: now,
		Dropped:    res.Dropped,
	}
}

// IsOutgoing reports whether author is the conversation owner: the lowercased
// author contains the lowercased owner name.
func (c *Conversation) IsOutgoing(author string) bool {
	if c.Owner == "" {
		return false
	}
	return strings.Contains(strings.ToLower(author), strings.ToLower(c.Owner))
}

// LastMessage returns the final message, or nil for an empty conversation.
func (c *Conversation) LastMessage() parse.Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// Authors returns the distinct authors in order of first appearance.
func (c *Conversation) Authors() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range c.Messages {
		a, ok := m.(*parse.Authored)
		if !ok || seen[a.Author] {
			continue
		}
		seen[a.Author] = true
		out = append(out, a.Author)
	}
	return out
}
