package parse

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/chatview/internal/archive"
	"github.com/Zuo-Peng/chatview/internal/media"
)

type blobs map[string]string

func (b blobs) ReadBlob(e archive.Entry) ([]byte, error) {
	return []byte(b[e.Path]), nil
}

func testIndex(t *testing.T, paths ...string) *media.Index {
	t.Helper()
	b := blobs{}
	var entries []archive.Entry
	for _, p := range paths {
		b[p] = "data:" + p
		entries = append(entries, archive.Entry{Path: p})
	}
	idx, err := media.Build(context.Background(), b, entries, 2)
	require.NoError(t, err)
	return idx
}

func authored(t *testing.T, m Message) *Authored {
	t.Helper()
	a, ok := m.(*Authored)
	require.True(t, ok, "expected *Authored, got %T", m)
	return a
}

func TestParse_UnbracketedHeader(t *testing.T) {
	res := New(nil, Options{}).ParseText("12/05/23, 14:30 - Alice: Hello there")

	require.Len(t, res.Messages, 1)
	assert.Equal(t, &Authored{Date: "12/05/23", Time: "14:30", Author: "Alice", Content: "Hello there"}, res.Messages[0])
	assert.Zero(t, res.Dropped)
}

func TestParse_ContinuationAndSecondsDropped(t *testing.T) {
	res := New(nil, Options{}).Parse([]string{"[12/05/23, 14:30:05] Alice: Hi", "still typing"})

	require.Len(t, res.Messages, 1)
	msg := authored(t, res.Messages[0])
	assert.Equal(t, "Hi\nstill typing", msg.Content)
	assert.Equal(t, "14:30", msg.Time)
	assert.Equal(t, "12/05/23", msg.Date)
	assert.Equal(t, "Alice", msg.Author)
}

func TestParse_UnicodeSpaceSeparators(t *testing.T) {
	res := New(nil, Options{}).ParseText("12/05/23,\u00a014:30 - Alice: Hi\n12/05/23,\u202f14:31 - Bob: Yo")

	require.Len(t, res.Messages, 2)
	first := authored(t, res.Messages[0])
	assert.Equal(t, "Alice", first.Author)
	assert.Equal(t, "Hi", first.Content)
	second := authored(t, res.Messages[1])
	assert.Equal(t, "Bob", second.Author)
	assert.Equal(t, "14:31", second.Time)
}

func TestParse_ShortOrphanIsSystem(t *testing.T) {
	line := strings.Repeat("x", 50)
	res := New(nil, Options{}).Parse([]string{line})

	require.Len(t, res.Messages, 1)
	assert.Equal(t, &System{Content: line}, res.Messages[0])
	assert.Equal(t, SystemDate, DateOf(res.Messages[0]))
}

func TestParse_LongOrphanDropped(t *testing.T) {
	res := New(nil, Options{}).Parse([]string{strings.Repeat("x", 250)})

	assert.Empty(t, res.Messages)
	assert.Equal(t, 1, res.Dropped)
}

func TestParse_OrphanThresholdBoundary(t *testing.T) {
	p := New(nil, Options{})

	res := p.Parse([]string{strings.Repeat("x", 199)})
	assert.Len(t, res.Messages, 1)

	res = p.Parse([]string{strings.Repeat("x", 200)})
	assert.Empty(t, res.Messages)

	// runes, not bytes
	res = p.Parse([]string{strings.Repeat("é", 150)})
	assert.Len(t, res.Messages, 1)

	res = New(nil, Options{OrphanMaxLen: 10}).Parse([]string{strings.Repeat("x", 50)})
	assert.Empty(t, res.Messages)
}

func TestParse_MediaAttachment(t *testing.T) {
	idx := testIndex(t, "export/photo.jpg")
	res := New(idx, Options{}).ParseText("12/05/23, 14:30 - Alice: photo.jpg (arquivo anexado)")

	require.Len(t, res.Messages, 1)
	msg := authored(t, res.Messages[0])
	require.NotNil(t, msg.Media)
	assert.Equal(t, media.KindImage, msg.Media.Kind)

	want, ok := idx.Lookup("photo.jpg")
	require.True(t, ok)
	assert.Same(t, want, msg.Media)

	blob, ok := idx.Resolve(msg.Media.Ref)
	require.True(t, ok)
	assert.Equal(t, []byte("data:export/photo.jpg"), blob)

	// markers stay in content for the renderer to strip
	assert.Equal(t, "photo.jpg (arquivo anexado)", msg.Content)
}

func TestParse_MediaFromContinuationLine(t *testing.T) {
	idx := testIndex(t, "PTT-0001.opus", "IMG-0002.jpg")
	res := New(idx, Options{}).Parse([]string{
		"12/05/23, 14:30 - Alice: listen to this",
		"<attached: PTT-0001.opus>",
		"and IMG-0002.jpg",
	})

	require.Len(t, res.Messages, 1)
	msg := authored(t, res.Messages[0])
	require.NotNil(t, msg.Media)
	assert.Equal(t, "PTT-0001.opus", msg.Media.Name, "first attachment found sticks")
	assert.Equal(t, media.KindAudio, msg.Media.Kind)
}

func TestParse_KeepsTranscriptOrder(t *testing.T) {
	var lines []string
	authors := []string{"Alice", "Bob", "Carol", "Dave", "Eve"}
	for i, a := range authors {
		lines = append(lines, "12/05/23, 14:3"+string(rune('0'+i))+" - "+a+": message "+a)
	}

	res := New(nil, Options{}).Parse(lines)

	require.Len(t, res.Messages, len(authors))
	for i, a := range authors {
		msg := authored(t, res.Messages[i])
		assert.Equal(t, a, msg.Author)
		assert.Equal(t, "message "+a, msg.Content)
	}
}

func TestParse_ContinuationLinesMerge(t *testing.T) {
	lines := []string{"12/05/23, 14:30 - Alice: first", "second", "third", "fourth"}
	res := New(nil, Options{}).Parse(lines)

	require.Len(t, res.Messages, 1)
	assert.Equal(t, "first\nsecond\nthird\nfourth", authored(t, res.Messages[0]).Content)
}

func TestParse_ReparseIsIdentical(t *testing.T) {
	idx := testIndex(t, "IMG-1.jpg", "VID-2.mp4")
	text := strings.Join([]string{
		"Messages and calls are end-to-end encrypted.",
		"[12/05/23, 14:30:05] Alice: IMG-1.jpg <attached: IMG-1.jpg>",
		"[12/05/23, 14:31:00] Bob: nice",
		"multi",
		"line",
		"[13/05/2023, 09:00:00] Alice: VID-2.mp4 <attached: VID-2.mp4>",
	}, "\n")

	p := New(idx, Options{})
	first := p.ParseText(text)
	second := p.ParseText(text)

	assert.Equal(t, first, second)
	assert.Len(t, first.Messages, 4)
}

func TestParse_FirstMediaMatchFollowsEntryOrder(t *testing.T) {
	idx := testIndex(t, "IMG-B.jpg", "IMG-A.jpg")
	p := New(idx, Options{})

	for i := 0; i < 20; i++ {
		res := p.ParseText("12/05/23, 14:30 - Alice: IMG-A.jpg and IMG-B.jpg")
		msg := authored(t, res.Messages[0])
		require.NotNil(t, msg.Media)
		assert.Equal(t, "IMG-B.jpg", msg.Media.Name, "scan follows archive entry order")
	}
}

func TestParse_EphemeralAfterDirectionMarkStripping(t *testing.T) {
	res := New(nil, Options{}).ParseText("12/05/23, 14:30 - Alice: \u200eimagem ocultada")

	require.Len(t, res.Messages, 1)
	msg := authored(t, res.Messages[0])
	assert.True(t, msg.Ephemeral)
	assert.Equal(t, "imagem ocultada", msg.Content)
}

func TestParse_EphemeralMarkers(t *testing.T) {
	tests := []struct {
		content string
		locales []string
		want    bool
	}{
		{"Foto de Visualização Única", nil, true},
		{"<VIEW ONCE photo omitted>", nil, true},
		{"view once", []string{"pt"}, false},
		{"imagem ocultada", []string{"pt"}, true},
		{"just text", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			res := New(nil, Options{Locales: tt.locales}).Parse([]string{"12/05/23, 14:30 - Alice: " + tt.content})
			require.Len(t, res.Messages, 1)
			assert.Equal(t, tt.want, authored(t, res.Messages[0]).Ephemeral)
		})
	}
}

func TestParse_CustomEphemeralMarker(t *testing.T) {
	markers := DefaultMarkers().Merge(map[string][]string{"de": {"Einmalansicht"}}, nil)
	res := New(nil, Options{Markers: markers}).Parse([]string{"12/05/23, 14:30 - Alice: Foto (einmalansicht)"})

	require.Len(t, res.Messages, 1)
	assert.True(t, authored(t, res.Messages[0]).Ephemeral)
}

func TestParse_MixedSystemAndAuthored(t *testing.T) {
	lines := Tokenize(strings.Join([]string{
		"\u200e[12/05/23, 14:29:59] Messages and calls are end-to-end encrypted.",
		"",
		"   ",
		"[12/05/23, 14:30:05] Alice: Hi",
		"12/05/23, 14:31 - Bob joined using this group's invite link",
		"12/05/2023 14:32 - Bob: hello all",
	}, "\r\n"))

	res := New(nil, Options{}).Parse(lines)

	require.Len(t, res.Messages, 3)
	assert.IsType(t, &System{}, res.Messages[0])
	assert.Equal(t, "Hi\n12/05/23, 14:31 - Bob joined using this group's invite link", authored(t, res.Messages[1]).Content)
	bob := authored(t, res.Messages[2])
	assert.Equal(t, "12/05/2023", bob.Date)
	assert.Equal(t, "14:32", bob.Time)
	assert.Equal(t, "Bob", bob.Author)
}

func TestParse_StepExposesOpenMessage(t *testing.T) {
	p := New(nil, Options{})

	var s State
	assert.Nil(t, s.Open())
	s = p.Step(s, "12/05/23, 14:30 - Alice: Hi")
	require.NotNil(t, s.Open())
	assert.Equal(t, "Alice", s.Open().Author)

	res := p.Finish(s)
	assert.Len(t, res.Messages, 1)
}

func TestParse_Empty(t *testing.T) {
	res := New(nil, Options{}).ParseText("")
	assert.Empty(t, res.Messages)
	assert.Zero(t, res.Dropped)
}

func TestMessageJSON(t *testing.T) {
	idx := testIndex(t, "IMG-1.jpg")
	res := New(idx, Options{}).Parse([]string{"system notice", "12/05/23, 14:30 - Alice: IMG-1.jpg"})
	require.Len(t, res.Messages, 2)

	b, err := json.Marshal(res.Messages)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "system", decoded[0]["type"])
	assert.Equal(t, SystemDate, decoded[0]["date"])
	assert.Equal(t, "authored", decoded[1]["type"])
	assert.Equal(t, "Alice", decoded[1]["author"])
	mediaField, ok := decoded[1]["media"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "image", mediaField["kind"])
}

func TestParse_OrphanThresholdCountsRunes(t *testing.T) {
	line := strings.Repeat("\U0001F600", 150)
	res := New(nil, Options{}).Parse([]string{line})

	require.Len(t, res.Messages, 1)
	assert.Zero(t, res.Dropped)
}
