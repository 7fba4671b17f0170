package index

import (
	"strings"
	"sync"

	"github.com/Zuo-Peng/chatview/internal/conversation"
	apperrors "github.com/Zuo-Peng/chatview/internal/errors"
	"github.com/Zuo-Peng/chatview/internal/media"
)

// Library is the set of imported conversations, newest first, with one
// optionally selected as current. Safe for concurrent use.
type Library struct {
	db *DB

	mu      sync.RWMutex
	convs   []*conversation.Conversation
	byID    map[string]*conversation.Conversation
	current string
}

func NewLibrary(db *DB) *Library {
	return &Library{
		db:   db,
		byID: make(map[string]*conversation.Conversation),
	}
}

// DB exposes the full-text index for search.
func (l *Library) DB() *DB {
	return l.db
}

// Add indexes conv and puts it at the head of the list as the current
// conversation. A conversation that fails to index is not added.
func (l *Library) Add(conv *conversation.Conversation) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.byID[conv.ID]; ok {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "conversation already in library").
			WithContext("id", conv.ID)
	}
	if err := IndexConversation(l.db, conv); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternalError, "index conversation").
			WithContext("id", conv.ID)
	}

	l.convs = append([]*conversation.Conversation{conv}, l.convs...)
	l.byID[conv.ID] = conv
	l.current = conv.ID
	return nil
}

func (l *Library) Get(id string) (*conversation.Conversation, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.byID[id]
	return c, ok
}

func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.convs)
}

// List returns the conversations newest first.
func (l *Library) List() []*conversation.Conversation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]*conversation.Conversation(nil), l.convs...)
}

// Filter returns the conversations whose name contains q, case-insensitively.
// An empty q returns everything.
func (l *Library) Filter(q string) []*conversation.Conversation {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return l.List()
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*conversation.Conversation
	for _, c := range l.convs {
		if strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out
}

func (l *Library) Select(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.byID[id]; !ok {
		return apperrors.New(apperrors.ErrCodeNotFound, "no such conversation").
			WithContext("id", id).
			WithUserMessage("Conversation not found.")
	}
	l.current = id
	return nil
}

// Current returns the selected conversation, or nil when the library is empty.
func (l *Library) Current() *conversation.Conversation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.byID[l.current]
}

// ResolveMedia finds the blob behind ref in any conversation.
func (l *Library) ResolveMedia(ref media.Ref) (*media.Item, []byte, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, c := range l.convs {
		item, ok := c.Media.ItemFor(ref)
		if !ok {
			continue
		}
		blob, ok := c.Media.Resolve(ref)
		return item, blob, ok
	}
	return nil, nil, false
}
