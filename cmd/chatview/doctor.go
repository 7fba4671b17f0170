package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatview/internal/config"
	"github.com/Zuo-Peng/chatview/internal/conversation"
	"github.com/Zuo-Peng/chatview/internal/parse"
	"github.com/Zuo-Peng/chatview/internal/search"
)

// headerSamples covers each supported transcript header variant.
var headerSamples = []string{
	"12/05/23, 14:30 - Alice: hyphen, 2-digit year",
	"12/05/2023, 14:30 - Alice: hyphen, 4-digit year",
	"[12/05/2023, 14:30:05] Alice: bracketed with seconds",
	"[12/05/23 14:30] Alice: bracketed without comma",
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: config, marker tables, header formats and FTS5",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			fmt.Println("=== Config ===")
			cfgPath := configPath
			if cfgPath == "" {
				cfgPath, _ = config.Path()
			}
			if _, err := os.Stat(cfgPath); err != nil {
				fmt.Printf("  File: %s (NOT FOUND, using defaults)\n", cfgPath)
			} else {
				fmt.Printf("  File: %s (OK)\n", cfgPath)
			}
			fmt.Printf("  Log level:      %s (%s)\n", a.cfg.LogLevel, a.cfg.LogFormat)
			fmt.Printf("  Listen addr:    %s\n", a.cfg.ListenAddr)
			fmt.Printf("  Workers:        %d\n", a.cfg.ExtractWorkers)
			fmt.Printf("  Orphan max len: %d\n", a.cfg.OrphanMaxLen)
			viewer := a.cfg.Viewer
			if viewer == "" {
				viewer = "(system default)"
			}
			fmt.Printf("  Viewer:         %s\n", viewer)

			fmt.Println("\n=== Markers ===")
			markers := a.markers()
			locales := a.cfg.Locales
			if len(locales) == 0 {
				locales = markers.Locales()
			}
			for _, loc := range locales {
				fmt.Printf("  %s: ephemeral=%d attachment=%d\n",
					loc, len(markers.Ephemeral[loc]), len(markers.Attachment[loc]))
			}
			if _, err := a.attachment(); err != nil {
				fmt.Printf("  Attachment patterns: %v\n", err)
			} else {
				fmt.Println("  Attachment patterns: OK")
			}

			fmt.Println("\n=== Header Formats ===")
			p := parse.New(nil, parse.Options{OrphanMaxLen: a.cfg.OrphanMaxLen, Markers: markers, Locales: a.cfg.Locales})
			res := p.Parse(headerSamples)
			for i, line := range headerSamples {
				status := "NOT RECOGNIZED"
				if i < len(res.Messages) {
					if m, ok := res.Messages[i].(*parse.Authored); ok {
						status = fmt.Sprintf("OK (%s %s %s)", m.Date, m.Time, m.Author)
					}
				}
				fmt.Printf("  %-50s %s\n", line, status)
			}

			fmt.Println("\n=== FTS5 ===")
			lib, closeLib, err := a.openLibrary()
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer closeLib()

			conv := conversation.Assemble("doctor", "", res, nil, time.Now())
			if err := lib.Add(conv); err != nil {
				return fmt.Errorf("index sample: %w", err)
			}
			msgCount, err := lib.DB().MessageCount()
			if err != nil {
				return fmt.Errorf("count messages: %w", err)
			}
			ftsCount, err := lib.DB().FTSCount()
			if err != nil {
				fmt.Printf("  FTS5 error: %v\n", err)
				return nil
			}
			fmt.Printf("  Messages: %d\n", msgCount)
			fmt.Printf("  FTS5 entries: %d\n", ftsCount)
			if ftsCount == msgCount {
				fmt.Println("  Status: OK (synced)")
			} else {
				fmt.Printf("  Status: MISMATCH (messages=%d, fts=%d)\n", msgCount, ftsCount)
			}

			results, err := search.Search(lib.DB(), search.Options{Query: "bracketed"})
			if err != nil {
				fmt.Printf("  Query: %v\n", err)
			} else {
				fmt.Printf("  Query: %d hits for %q\n", len(results), "bracketed")
			}
			return nil
		},
	}
}
