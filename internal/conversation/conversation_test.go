package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/chatview/internal/archive"
	"github.com/Zuo-Peng/chatview/internal/archive/archivetest"
	"github.com/Zuo-Peng/chatview/internal/config"
	apperrors "github.com/Zuo-Peng/chatview/internal/errors"
	"github.com/Zuo-Peng/chatview/internal/media"
	"github.com/Zuo-Peng/chatview/internal/parse"
)

const transcript = "12/05/23, 14:30 - Alice: IMG-0001.jpg (arquivo anexado)\n" +
	"12/05/23, 14:31 - Bob: nice\n" +
	"where was it?\n" +
	"13/05/23, 09:00 - Alice: PTT-0002.opus (arquivo anexado)\n"

func testImporter() *Importer {
	im := NewImporter(config.Default(), apperrors.Discard())
	im.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return im
}

func TestImport(t *testing.T) {
	data := archivetest.Zip(t,
		archivetest.File{Name: "export/"},
		archivetest.File{Name: "export/WhatsApp Chat with Bob.txt", Body: transcript},
		archivetest.File{Name: "export/IMG-0001.jpg", Body: "jpeg"},
		archivetest.File{Name: "export/PTT-0002.opus", Body: "opus"},
	)

	conv, err := testImporter().Import(context.Background(), Request{Name: " Bob ", Owner: "alice", Archive: data})
	require.NoError(t, err)

	assert.Equal(t, "Bob", conv.Name)
	assert.Equal(t, "alice", conv.Owner)
	assert.Len(t, conv.ID, 26)
	assert.Equal(t, 2, conv.Media.Len())
	require.Len(t, conv.Messages, 3)

	first := conv.Messages[0].(*parse.Authored)
	require.NotNil(t, first.Media)
	assert.Equal(t, media.KindImage, first.Media.Kind)
	blob, ok := conv.Media.Resolve(first.Media.Ref)
	require.True(t, ok)
	assert.Equal(t, []byte("jpeg"), blob)

	assert.Equal(t, "nice\nwhere was it?", conv.Messages[1].Body())
	assert.Equal(t, media.KindAudio, conv.LastMessage().(*parse.Authored).Media.Kind)
	assert.Equal(t, []string{"Alice", "Bob"}, conv.Authors())
}

func TestImport_Rejected(t *testing.T) {
	data := archivetest.Zip(t, archivetest.File{Name: "chat.txt", Body: transcript})

	tests := []struct {
		name string
		req  Request
	}{
		{"missing name", Request{Name: "  ", Archive: data}},
		{"missing archive", Request{Name: "Bob"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv, err := testImporter().Import(context.Background(), tt.req)
			assert.Nil(t, conv)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeImportRejected))
			assert.NotEqual(t, "An internal error occurred", apperrors.GetUserMessage(err))
		})
	}
}

func TestImport_ArchiveUnreadable(t *testing.T) {
	conv, err := testImporter().Import(context.Background(), Request{Name: "Bob", Archive: []byte("not a zip")})
	assert.Nil(t, conv)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeArchiveUnreadable))
}

func TestImport_EntryOverCap(t *testing.T) {
	data := archivetest.Zip(t,
		archivetest.File{Name: "chat.txt", Body: transcript},
		archivetest.File{Name: "VID-1.mp4", Body: "0123456789abcdef"},
	)
	im := testImporter()
	im.MaxEntrySize = 8

	conv, err := im.Import(context.Background(), Request{Name: "Bob", Archive: data})
	assert.Nil(t, conv)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeArchiveUnreadable))
	assert.Contains(t, err.Error(), "VID-1.mp4")
}

func TestImport_TranscriptMissing(t *testing.T) {
	data := archivetest.Zip(t,
		archivetest.File{Name: "notes.txt", Body: transcript},
		archivetest.File{Name: "IMG-0001.jpg", Body: "jpeg"},
	)

	conv, err := testImporter().Import(context.Background(), Request{Name: "Bob", Archive: data})
	assert.Nil(t, conv)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTranscriptMissing))
}

func TestImport_LastTranscriptWins(t *testing.T) {
	data := archivetest.Zip(t,
		archivetest.File{Name: "old/chat.txt", Body: "12/05/23, 14:30 - Alice: old"},
		archivetest.File{Name: "new/Chat.TXT", Body: "12/05/23, 14:30 - Alice: new"},
	)

	conv, err := testImporter().Import(context.Background(), Request{Name: "Bob", Archive: data})
	require.NoError(t, err)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "new", conv.Messages[0].Body())
	assert.Zero(t, conv.Media.Len())
}

func TestImport_DroppedLinesCounted(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	data := archivetest.Zip(t, archivetest.File{Name: "chat.txt", Body: string(long) + "\nshort notice\n"})

	conv, err := testImporter().Import(context.Background(), Request{Name: "Bob", Archive: data})
	require.NoError(t, err)
	assert.Equal(t, 1, conv.Dropped)
	require.Len(t, conv.Messages, 1)
	assert.IsType(t, &parse.System{}, conv.Messages[0])
}

func TestImport_ConfigMarkers(t *testing.T) {
	cfg := config.Default()
	cfg.Markers.Ephemeral = map[string][]string{"de": {"einmalansicht"}}
	im := NewImporter(cfg, nil)

	data := archivetest.Zip(t, archivetest.File{Name: "chat.txt", Body: "12/05/23, 14:30 - Alice: Einmalansicht"})
	conv, err := im.Import(context.Background(), Request{Name: "Bob", Archive: data})
	require.NoError(t, err)
	assert.True(t, conv.Messages[0].(*parse.Authored).Ephemeral)
}

func TestIsOutgoing(t *testing.T) {
	c := &Conversation{Owner: "alice"}
	assert.True(t, c.IsOutgoing("Alice Smith"))
	assert.False(t, c.IsOutgoing("Bob"))

	assert.False(t, (&Conversation{}).IsOutgoing("Alice"))
}

func TestAssemble_UniqueIDs(t *testing.T) {
	now := time.Now()
	a := Assemble("a", "", parse.Result{}, nil, now)
	b := Assemble("b", "", parse.Result{}, nil, now)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Less(t, a.ID, b.ID, "monotonic within the same millisecond")
	assert.Nil(t, a.LastMessage())
}

// dirArchive is an archive.Archive over an in-memory file map.
type dirArchive struct {
	paths []string
	files map[string]string
}

func (d dirArchive) Entries() []archive.Entry {
	var out []archive.Entry
	for _, p := range d.paths {
		out = append(out, archive.Entry{Path: p})
	}
	return out
}

func (d dirArchive) ReadText(e archive.Entry) (string, error) {
	return d.files[e.Path], nil
}

func (d dirArchive) ReadBlob(e archive.Entry) ([]byte, error) {
	return []byte(d.files[e.Path]), nil
}

func TestImport_CustomOpener(t *testing.T) {
	im := testImporter()
	var gotMax int64
	im.Open = func(data []byte, maxEntrySize int64) (archive.Archive, error) {
		gotMax = maxEntrySize
		return dirArchive{
			paths: []string{"chat.txt", "IMG-0001.jpg"},
			files: map[string]string{"chat.txt": string(data), "IMG-0001.jpg": "jpeg"},
		}, nil
	}

	conv, err := im.Import(context.Background(), Request{Name: "Bob", Archive: []byte(transcript)})
	require.NoError(t, err)
	assert.Equal(t, im.MaxEntrySize, gotMax)
	assert.Equal(t, 1, conv.Media.Len())
	require.Len(t, conv.Messages, 3)
	assert.Equal(t, media.KindImage, conv.Messages[0].(*parse.Authored).Media.Kind)
}

func TestImport_OpenerFailure(t *testing.T) {
	im := testImporter()
	im.Open = func([]byte, int64) (archive.Archive, error) {
		return nil, errors.New("unsupported format")
	}

	conv, err := im.Import(context.Background(), Request{Name: "Bob", Archive: []byte("x")})
	assert.Nil(t, conv)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeArchiveUnreadable))
	assert.Contains(t, apperrors.GetUserMessage(err), "unsupported format")
}
