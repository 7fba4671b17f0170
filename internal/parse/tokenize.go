package parse

import (
	"bufio"
	"io"
	"strings"
)

const maxLineSize = 10 * 1024 * 1024 // 10MB

// directionMarks strips the left-to-right and right-to-left marks exports
// sprinkle around names and attachments.
var directionMarks = strings.NewReplacer("\u200e", "", "\u200f", "")

func cleanLine(line string) string {
	line = directionMarks.Replace(line)
	return strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))
}

// Tokenize splits a transcript into trimmed, non-empty lines with direction
// marks removed.
func Tokenize(text string) []string {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		if line := cleanLine(raw); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// TokenizeReader is Tokenize over a stream.
func TokenizeReader(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var lines []string
	for scanner.Scan() {
		if line := cleanLine(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
