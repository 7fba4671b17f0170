package index

import (
	"fmt"
	"time"

	"github.com/Zuo-Peng/chatview/internal/conversation"
	"github.com/Zuo-Peng/chatview/internal/parse"
)

// IndexConversation writes conv and its messages in one transaction. msg_id
// is the message's position in conv.Messages.
func IndexConversation(db *DB, conv *conversation.Conversation) error {
	tx, err := db.Raw().Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO conversations (conv_id, name, owner, imported_at, message_count, media_count, dropped)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		conv.ID,
		conv.Name,
		conv.Owner,
		conv.ImportedAt.UTC().Format(time.RFC3339),
		len(conv.Messages),
		conv.Media.Len(),
		conv.Dropped,
	)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO messages (conv_id, msg_id, kind, date, time, author, text, media_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, m := range conv.Messages {
		var kind, date, hhmm, author, mediaName string
		switch m := m.(type) {
		case *parse.Authored:
			kind, date, hhmm, author = "authored", m.Date, m.Time, m.Author
			if m.Media != nil {
				mediaName = m.Media.Name
			}
		case *parse.System:
			kind, date = "system", parse.SystemDate
		}
		if _, err := stmt.Exec(conv.ID, i, kind, date, hhmm, author, m.Body(), mediaName); err != nil {
			return fmt.Errorf("insert message %d: %w", i, err)
		}
	}

	return tx.Commit()
}
