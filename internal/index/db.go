package index

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// MemoryDSN keeps the whole database in process memory.
const MemoryDSN = ":memory:"

const schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS conversations (
    conv_id       TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    owner         TEXT NOT NULL DEFAULT '',
    imported_at   TEXT NOT NULL,
    message_count INTEGER NOT NULL DEFAULT 0,
    media_count   INTEGER NOT NULL DEFAULT 0,
    dropped       INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS messages (
    conv_id    TEXT NOT NULL REFERENCES conversations(conv_id),
    msg_id     INTEGER NOT NULL,
    kind       TEXT NOT NULL,
    date       TEXT NOT NULL DEFAULT '',
    time       TEXT NOT NULL DEFAULT '',
    author     TEXT NOT NULL DEFAULT '',
    text       TEXT NOT NULL,
    media_name TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (conv_id, msg_id)
);

CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    text,
    content=messages,
    content_rowid=rowid,
    tokenize='unicode61 remove_diacritics 2'
);

-- triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, text) VALUES (new.rowid, new.text);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, text) VALUES('delete', old.rowid, old.text);
END;
`

type DB struct {
	db *sql.DB
}

// OpenDB opens dsn and installs the schema. Pass MemoryDSN for the
// process-lifetime library.
func OpenDB(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

func (d *DB) ConversationCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&n)
	return n, err
}

func (d *DB) MessageCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&n)
	return n, err
}

// FTSCount returns the number of rows in the full-text index. It matches
// MessageCount while the triggers are in place.
func (d *DB) FTSCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM messages_fts").Scan(&n)
	return n, err
}
