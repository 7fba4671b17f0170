package scan

import (
	"path"
	"strings"

	"github.com/Zuo-Peng/chatview/internal/archive"
)

type Result struct {
	Transcript *archive.Entry
	Media      []archive.Entry
	Skipped    []string // entries whose path escapes the archive root
}

// IsTranscript reports whether p names the chat transcript: a .txt file with
// "chat" somewhere in its path.
func IsTranscript(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasSuffix(lower, ".txt") && strings.Contains(lower, "chat")
}

// Entries splits archive entries into the transcript and media in one pass.
// When several entries look like a transcript the last one wins.
func Entries(entries []archive.Entry) Result {
	var res Result

	for i := range entries {
		e := entries[i]
		if e.Dir {
			continue
		}
		if escapesRoot(e.Path) {
			res.Skipped = append(res.Skipped, e.Path)
			continue
		}
		if IsTranscript(e.Path) {
			res.Transcript = &e
			continue
		}
		res.Media = append(res.Media, e)
	}

	return res
}

func escapesRoot(p string) bool {
	clean := path.Clean(strings.ReplaceAll(p, `\`, "/"))
	return clean == ".." || strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "/")
}
