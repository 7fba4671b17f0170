package parse

import "regexp"

// headerRe matches the line that opens an authored message:
//
//	[12/05/23, 14:30:05] Alice: Hi
//	12/05/2023, 14:30 - Alice: Hi
//
// Separators may be any Unicode space, including the no-break and narrow
// no-break spaces some exports put between date and time.
// Groups: date, time (seconds excluded), author, content.
var headerRe = regexp.MustCompile(`^\[?(\d{2}/\d{2}/(?:\d{4}|\d{2}))[,\s\p{Zs}\x{feff}-]*(\d{2}:\d{2})(?::\d{2})?\]?[\s\p{Zs}\x{feff}]*(?:- )?([^:]+): (.*)$`)

type header struct {
	date, time, author, content string
}

func matchHeader(line string) (header, bool) {
	m := headerRe.FindStringSubmatch(line)
	if m == nil {
		return header{}, false
	}
	return header{date: m[1], time: m[2], author: m[3], content: m[4]}, true
}
