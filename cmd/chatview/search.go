package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatview/internal/search"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorBlue    = "\033[1;34m"
	sColorDim     = "\033[2m"
)

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", sColorReset)
	return snippet
}

// tsvField flattens s onto one TSV column.
func tsvField(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

func searchCmd() *cobra.Command {
	var names []string
	var owner, author string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query> <archive>...",
		Short: "Full-text search across imported archives",
		Long: `Import the archives and search their messages using FTS5. Output is TSV
for fzf integration:
  conversationId, messageIndex, date time, conversation, author, snippet

Terms are matched as words; AND, OR and NOT combine them and a trailing *
matches a prefix. Queries containing CJK text fall back to substring matching.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			lib, closeLib, err := a.openLibrary()
			if err != nil {
				return err
			}
			defer closeLib()

			if err := a.importArchives(cmd.Context(), lib, args[1:], names, owner); err != nil {
				return err
			}

			results, err := search.Search(lib.DB(), search.Options{
				Query:  args[0],
				Author: author,
				Limit:  limit,
			})
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}

			for _, r := range results {
				// first two fields stay plain for fzf {1} {2}
				fmt.Printf("%s\t%d\t%s%s %s%s\t%s\t%s%s%s\t%s\n",
					r.ConvID,
					r.MsgID,
					sColorDim, r.Date, r.Time, sColorReset,
					tsvField(r.ConvName),
					sColorBlue, tsvField(r.Author), sColorReset,
					colorizeSnippet(tsvField(r.Snippet)),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&names, "name", nil, "Conversation name, once per archive in order (default: file name)")
	cmd.Flags().StringVar(&owner, "owner", "", "Your name as it appears in the transcript")
	cmd.Flags().StringVar(&author, "author", "", "Only messages whose author contains this text")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max results")

	return cmd
}
