package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatview/internal/conversation"
	"github.com/Zuo-Peng/chatview/internal/parse"
)

func parseCmd() *cobra.Command {
	var name, owner string

	cmd := &cobra.Command{
		Use:   "parse <archive|transcript.txt>",
		Short: "Parse one archive or a bare transcript and print the conversation as JSON",
		Long: `Import one archive and print the conversation as JSON. A .txt argument is
read as a bare transcript: messages are parsed without media.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}

			var conv *conversation.Conversation
			if strings.EqualFold(filepath.Ext(args[0]), ".txt") {
				conv, err = a.parseTranscript(args[0], name, owner)
				if err != nil {
					return err
				}
			} else {
				lib, closeLib, err := a.openLibrary()
				if err != nil {
					return err
				}
				defer closeLib()

				if err := a.importArchives(cmd.Context(), lib, args, namesOf(name), owner); err != nil {
					return err
				}
				conv = lib.Current()
			}

			out, err := json.MarshalIndent(conv, "", "  ")
			if err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Conversation name (default: file name)")
	cmd.Flags().StringVar(&owner, "owner", "", "Your name as it appears in the transcript")

	return cmd
}

// parseTranscript streams a loose transcript file through the parser.
func (a *app) parseTranscript(p, name, owner string) (*conversation.Conversation, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	defer f.Close()

	lines, err := parse.TokenizeReader(f)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	opts := conversation.NewImporter(a.cfg, a.log).Parse
	res := parse.New(nil, opts).Parse(lines)
	if res.Dropped > 0 {
		a.log.WithField("dropped", res.Dropped).Debug("dropped unparseable lines")
	}
	if name == "" {
		name = defaultName(p)
	}
	return conversation.Assemble(name, owner, res, nil, time.Now()), nil
}

func namesOf(name string) []string {
	if name == "" {
		return nil
	}
	return []string{name}
}
