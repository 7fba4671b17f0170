package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchHeader(t *testing.T) {
	tests := []struct {
		line string
		want header
		ok   bool
	}{
		{"12/05/23, 14:30 - Alice: Hello there", header{"12/05/23", "14:30", "Alice", "Hello there"}, true},
		{"[12/05/23, 14:30:05] Alice: Hi", header{"12/05/23", "14:30", "Alice", "Hi"}, true},
		{"[12/05/2023 14:30:05] Maria Silva: oi: tudo bem?", header{"12/05/2023", "14:30", "Maria Silva", "oi: tudo bem?"}, true},
		{"12/05/2023 - 14:30 - +55 11 91234-5678: ok", header{"12/05/2023", "14:30", "+55 11 91234-5678", "ok"}, true},
		{"12/05/23,\u00a014:30\u00a0- Alice: no-break space", header{"12/05/23", "14:30", "Alice", "no-break space"}, true},
		{"12/05/23,\u202f14:30 - Alice: narrow no-break space", header{"12/05/23", "14:30", "Alice", "narrow no-break space"}, true},
		{"[12/05/23,\u3000\u300014:30:05]\u2009Alice: ideographic space", header{"12/05/23", "14:30", "Alice", "ideographic space"}, true},
		{"12/05/23,\ufeff14:30 - Alice: byte order mark", header{"12/05/23", "14:30", "Alice", "byte order mark"}, true},
		{"12/05/23, 14:30 - Alice joined", header{}, false},
		{"12/05/23, 14:30 - Alice:", header{}, false},
		{"1/5/23, 14:30 - Alice: Hi", header{}, false},
		{"12/05/234, 14:30 - Alice: Hi", header{}, false},
		{"hello: world", header{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := matchHeader(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
