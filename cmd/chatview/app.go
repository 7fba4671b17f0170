package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/term"

	"github.com/Zuo-Peng/chatview/internal/config"
	"github.com/Zuo-Peng/chatview/internal/conversation"
	apperrors "github.com/Zuo-Peng/chatview/internal/errors"
	"github.com/Zuo-Peng/chatview/internal/index"
	"github.com/Zuo-Peng/chatview/internal/parse"
)

// app carries what every command needs: the loaded config and a logger.
type app struct {
	cfg *config.Config
	log *apperrors.Logger
}

func loadApp() (*app, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log, err := apperrors.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log}, nil
}

func (a *app) markers() parse.MarkerTable {
	return parse.DefaultMarkers().Merge(a.cfg.Markers.Ephemeral, a.cfg.Markers.Attachment)
}

// attachment compiles the attachment markers stripped at render time.
func (a *app) attachment() ([]*regexp.Regexp, error) {
	return a.markers().AttachmentFor(a.cfg.Locales)
}

func (a *app) openLibrary() (*index.Library, func(), error) {
	db, err := index.OpenDB(index.MemoryDSN)
	if err != nil {
		return nil, nil, err
	}
	return index.NewLibrary(db), func() { db.Close() }, nil
}

// importArchives imports paths into lib in order, so the last one ends up
// current. names pair with paths; a path without a name is named after its
// file.
func (a *app) importArchives(ctx context.Context, lib *index.Library, paths, names []string, owner string) error {
	im := conversation.NewImporter(a.cfg, a.log)
	for i, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}

		name := defaultName(p)
		if i < len(names) {
			name = names[i]
		}
		conv, err := im.Import(ctx, conversation.Request{
			Name:     name,
			Owner:    owner,
			Filename: p,
			Archive:  data,
		})
		if err != nil {
			a.log.LogError(err, "import failed")
			return err
		}
		if err := lib.Add(conv); err != nil {
			return err
		}
	}
	return nil
}

// defaultName turns "WhatsApp Chat - Bob.zip" into "WhatsApp Chat - Bob".
func defaultName(p string) string {
	base := filepath.Base(p)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// terminalWidth returns the stdout width, or fallback when it is not a
// terminal.
func terminalWidth(fallback int) int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return fallback
}
