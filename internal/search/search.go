// Package search finds messages across the library through the full-text
// index, and within one open thread through a Finder.
package search

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/Zuo-Peng/chatview/internal/index"
)

type Result struct {
	ConvID   string  `json:"conversation_id"`
	ConvName string  `json:"conversation"`
	MsgID    int     `json:"message"`
	Date     string  `json:"date"`
	Time     string  `json:"time"`
	Author   string  `json:"author"`
	Snippet  string  `json:"snippet"`
	Rank     float64 `json:"rank"`
}

type Options struct {
	Query          string
	ConversationID string // "" = all conversations
	Author         string // "" = all, matched case-insensitively
	Limit          int
}

// containsCJK returns true if the string contains any CJK Unified Ideograph.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	runes := []rune(text)
	lower := []rune(strings.ToLower(text))
	qRunes := []rune(strings.ToLower(query))

	pos := -1
	if len(lower) == len(runes) {
		pos = runeIndex(lower, qRunes)
	}
	if pos < 0 {
		// no match, return head
		if len(runes) > contextChars*2 {
			return string(runes[:contextChars*2]) + "..."
		}
		return text
	}

	start := pos - contextChars
	if start < 0 {
		start = 0
	}
	end := pos + len(qRunes) + contextChars
	if end > len(runes) {
		end = len(runes)
	}
	prefix, suffix := "", ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	// wrap the matched part with markers
	snippet := string(runes[start:pos]) +
		">>>" + string(runes[pos:pos+len(qRunes)]) + "<<<" +
		string(runes[pos+len(qRunes):end])
	return prefix + snippet + suffix
}

func runeIndex(s, sub []rune) int {
	if len(sub) == 0 {
		return -1
	}
outer:
	for i := 0; i+len(sub) <= len(s); i++ {
		for j := range sub {
			if s[i+j] != sub[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}

// ftsQuery quotes each whitespace-separated term so that punctuation in user
// input (times like 14:30, hyphens, quotes) is matched literally. The
// operators AND, OR and NOT pass through, and a trailing * keeps prefix search.
func ftsQuery(q string) string {
	var terms []string
	for _, f := range strings.Fields(q) {
		switch f {
		case "AND", "OR", "NOT":
			terms = append(terms, f)
			continue
		}
		star := ""
		if strings.HasSuffix(f, "*") && len(f) > 1 {
			f, star = strings.TrimSuffix(f, "*"), "*"
		}
		terms = append(terms, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`+star)
	}
	return strings.Join(terms, " ")
}

// Search runs opts.Query against the message index, best match first.
func Search(db *index.DB, opts Options) ([]Result, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return nil, nil
	}
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	if containsCJK(opts.Query) {
		return searchLike(db, opts)
	}
	return searchFTS(db, opts)
}

func filters(opts Options) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}

	// conversation filter
	if opts.ConversationID != "" {
		conditions = append(conditions, "m.conv_id = ?")
		args = append(args, opts.ConversationID)
	}

	// author filter
	if opts.Author != "" {
		conditions = append(conditions, "m.author LIKE ?")
		args = append(args, "%"+opts.Author+"%")
	}
	return conditions, args
}

func searchFTS(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"messages_fts MATCH ?"}
	args := []interface{}{ftsQuery(opts.Query)}

	more, moreArgs := filters(opts)
	conditions = append(conditions, more...)
	args = append(args, moreArgs...)

	query := fmt.Sprintf(`
		SELECT
			m.conv_id,
			c.name,
			m.msg_id,
			m.date,
			m.time,
			m.author,
			snippet(messages_fts, 0, '>>>','<<<', '...', 16) as snip,
			bm25(messages_fts) as rank
		FROM messages_fts
		JOIN messages m ON messages_fts.rowid = m.rowid
		JOIN conversations c ON m.conv_id = c.conv_id
		WHERE %s
		ORDER BY rank, m.msg_id
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func searchLike(db *index.DB, opts Options) ([]Result, error) {
	// LIKE match for CJK substring search
	conditions := []string{"m.text LIKE ?"}
	args := []interface{}{"%" + opts.Query + "%"}

	more, moreArgs := filters(opts)
	conditions = append(conditions, more...)
	args = append(args, moreArgs...)

	query := fmt.Sprintf(`
		SELECT
			m.conv_id,
			c.name,
			m.msg_id,
			m.date,
			m.time,
			m.author,
			m.text
		FROM messages m
		JOIN conversations c ON m.conv_id = c.conv_id
		WHERE %s
		ORDER BY c.imported_at DESC, m.msg_id
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var fullText string
		if err := rows.Scan(&r.ConvID, &r.ConvName, &r.MsgID, &r.Date, &r.Time, &r.Author, &fullText); err != nil {
			return nil, err
		}
		r.Snippet = makeSnippet(fullText, opts.Query, 30)
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(
			&r.ConvID, &r.ConvName, &r.MsgID,
			&r.Date, &r.Time, &r.Author,
			&r.Snippet, &r.Rank,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
