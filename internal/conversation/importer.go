package conversation

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Zuo-Peng/chatview/internal/archive"
	"github.com/Zuo-Peng/chatview/internal/config"
	apperrors "github.com/Zuo-Peng/chatview/internal/errors"
	"github.com/Zuo-Peng/chatview/internal/media"
	"github.com/Zuo-Peng/chatview/internal/parse"
	"github.com/Zuo-Peng/chatview/internal/scan"
)

// Request is one import. Filename is informational.
type Request struct {
	Name     string
	Owner    string
	Filename string
	Archive  []byte
}

// Opener turns uploaded bytes into an archive.
type Opener func(data []byte, maxEntrySize int64) (archive.Archive, error)

// OpenZip is the default Opener.
func OpenZip(data []byte, maxEntrySize int64) (archive.Archive, error) {
	z, err := archive.OpenZip(data, maxEntrySize)
	if err != nil {
		return nil, err
	}
	return z, nil
}

type Importer struct {
	Parse        parse.Options
	Workers      int
	MaxEntrySize int64
	Log          logrus.FieldLogger
	Open         Opener // nil selects OpenZip

	now func() time.Time
}

// NewImporter builds an importer from cfg. The marker table is the built-in
// one extended with cfg.Markers.
func NewImporter(cfg *config.Config, log logrus.FieldLogger) *Importer {
	return &Importer{
		Parse: parse.Options{
			OrphanMaxLen: cfg.OrphanMaxLen,
			Markers:      parse.DefaultMarkers().Merge(cfg.Markers.Ephemeral, cfg.Markers.Attachment),
			Locales:      cfg.Locales,
		},
		Workers:      cfg.ExtractWorkers,
		MaxEntrySize: cfg.MaxEntrySize,
		Log:          log,
		Open:         OpenZip,
	}
}

// Import runs the whole pipeline. It returns either a complete conversation or
// an *errors.AppError coded IMPORT_REJECTED, ARCHIVE_UNREADABLE or
// TRANSCRIPT_MISSING; never both.
func (im *Importer) Import(ctx context.Context, req Request) (*Conversation, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || len(req.Archive) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeImportRejected, "name and archive are required").
			WithContext("filename", req.Filename).
			WithUserMessage("Please provide a conversation name and an archive file.")
	}

	log := im.logger().WithFields(logrus.Fields{"name": name, "filename": req.Filename})

	arc, err := im.opener()(req.Archive, im.MaxEntrySize)
	if err != nil {
		return nil, unreadable(err, req.Filename)
	}

	found := scan.Entries(arc.Entries())
	for _, p := range found.Skipped {
		log.WithField("entry", p).Warn("skipping entry outside archive root")
	}
	if found.Transcript == nil {
		return nil, apperrors.New(apperrors.ErrCodeTranscriptMissing, "no transcript entry in archive").
			WithContext("filename", req.Filename).
			WithContext("entries", len(arc.Entries())).
			WithUserMessage("No chat transcript (.txt) was found in the archive.")
	}

	idx, err := media.Build(ctx, arc, found.Media, im.Workers)
	if err != nil {
		return nil, unreadable(err, req.Filename)
	}

	text, err := arc.ReadText(*found.Transcript)
	if err != nil {
		return nil, unreadable(err, req.Filename)
	}

	res := parse.New(idx, im.Parse).ParseText(text)
	if res.Dropped > 0 {
		log.WithField("dropped", res.Dropped).Debug("dropped unparseable lines")
	}

	conv := Assemble(name, strings.TrimSpace(req.Owner), res, idx, im.clock())
	log.WithFields(logrus.Fields{
		"id":         conv.ID,
		"transcript": found.Transcript.Path,
		"messages":   len(conv.Messages),
		"media":      idx.Len(),
	}).Info("imported conversation")
	return conv, nil
}

func unreadable(err error, filename string) error {
	return apperrors.Wrap(err, apperrors.ErrCodeArchiveUnreadable, "read archive").
		WithContext("filename", filename).
		WithUserMessage("The archive could not be read: " + err.Error())
}

func (im *Importer) opener() Opener {
	if im.Open == nil {
		return OpenZip
	}
	return im.Open
}

func (im *Importer) logger() logrus.FieldLogger {
	if im.Log == nil {
		return apperrors.Discard()
	}
	return im.Log
}

func (im *Importer) clock() time.Time {
	if im.now != nil {
		return im.now()
	}
	return time.Now()
}
