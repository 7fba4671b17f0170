package media

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/chatview/internal/archive"
)

type fakeReader struct {
	blobs map[string]string
	fail  string
	calls atomic.Int32
}

func (f *fakeReader) ReadBlob(e archive.Entry) ([]byte, error) {
	f.calls.Add(1)
	if e.Path == f.fail {
		return nil, errors.New("crc mismatch")
	}
	return []byte(f.blobs[e.Path]), nil
}

func entriesFor(paths ...string) []archive.Entry {
	var out []archive.Entry
	for _, p := range paths {
		out = append(out, archive.Entry{Path: p})
	}
	return out
}

func TestKindOf(t *testing.T) {
	tests := map[string]Kind{
		"IMG-0001.jpg":   KindImage,
		"photo.JPEG":     KindImage,
		"sticker.webp":   KindImage,
		"anim.GIF":       KindImage,
		"shot.png":       KindImage,
		"VID-0001.mp4":   KindVideo,
		"clip.MOV":       KindVideo,
		"PTT-0001.opus":  KindAudio,
		"song.mp3":       KindAudio,
		"memo.wav":       KindAudio,
		"voice.ogg":      KindAudio,
		"AUD-0001.m4a":   KindAudio,
		"contract.pdf":   KindFile,
		"no-extension":   KindFile,
		"archive.tar.gz": KindFile,
	}
	for name, want := range tests {
		assert.Equal(t, want, KindOf(name), name)
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentType("a.JPG"))
	assert.Equal(t, "audio/ogg", ContentType("PTT-1.opus"))
	assert.Equal(t, DefaultContentType, ContentType("blob.xyz"))
}

func TestBuild(t *testing.T) {
	r := &fakeReader{blobs: map[string]string{
		"export/IMG-0001.jpg":  "jpeg",
		"export/PTT-0002.opus": "opus",
		"export/doc.pdf":       "pdf",
	}}

	x, err := Build(context.Background(), r, entriesFor("export/IMG-0001.jpg", "export/PTT-0002.opus", "export/doc.pdf"), 2)
	require.NoError(t, err)
	assert.Equal(t, 3, x.Len())
	assert.Equal(t, int32(3), r.calls.Load())

	item, ok := x.Lookup("IMG-0001.jpg")
	require.True(t, ok)
	assert.Equal(t, KindImage, item.Kind)
	assert.Equal(t, "IMG-0001.jpg", item.Name)
	assert.True(t, strings.HasPrefix(string(item.Ref), "blob:"))
	assert.Equal(t, 4, item.Size)

	blob, ok := x.Resolve(item.Ref)
	require.True(t, ok)
	assert.Equal(t, []byte("jpeg"), blob)

	owner, ok := x.ItemFor(item.Ref)
	require.True(t, ok)
	assert.Same(t, item, owner)

	var names []string
	for _, it := range x.Items() {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{"IMG-0001.jpg", "PTT-0002.opus", "doc.pdf"}, names)
}

func TestBuild_CollisionLastWriteWins(t *testing.T) {
	r := &fakeReader{blobs: map[string]string{
		"a/photo.jpg": "first",
		"b/other.png": "other",
		"c/photo.jpg": "second",
	}}

	x, err := Build(context.Background(), r, entriesFor("a/photo.jpg", "b/other.png", "c/photo.jpg"), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, x.Len())

	item, ok := x.Lookup("photo.jpg")
	require.True(t, ok)
	blob, ok := x.Resolve(item.Ref)
	require.True(t, ok)
	assert.Equal(t, []byte("second"), blob)

	// the replaced item keeps its original scan position
	assert.Equal(t, "photo.jpg", x.Items()[0].Name)
}

func TestBuild_ExtractionFailure(t *testing.T) {
	r := &fakeReader{fail: "b.jpg"}

	x, err := Build(context.Background(), r, entriesFor("a.jpg", "b.jpg", "c.jpg"), 1)
	assert.Nil(t, x)
	assert.ErrorContains(t, err, "extract b.jpg")
}

func TestFind_FirstMatchInScanOrder(t *testing.T) {
	r := &fakeReader{blobs: map[string]string{}}
	x, err := Build(context.Background(), r, entriesFor("IMG-2.jpg", "IMG-1.jpg"), 0)
	require.NoError(t, err)

	got := x.Find("IMG-1.jpg (file attached) and IMG-2.jpg (file attached)")
	require.NotNil(t, got)
	assert.Equal(t, "IMG-2.jpg", got.Name)

	assert.Nil(t, x.Find("no attachment here"))
	assert.Nil(t, x.Find(""))
}

func TestNilIndex(t *testing.T) {
	var x *Index
	assert.Nil(t, x.Find("IMG-1.jpg"))
	assert.Equal(t, 0, x.Len())
	assert.Nil(t, x.Items())
	_, ok := x.Lookup("IMG-1.jpg")
	assert.False(t, ok)
	_, ok = x.Resolve("blob:x")
	assert.False(t, ok)
	_, ok = x.ItemFor("blob:x")
	assert.False(t, ok)
}
