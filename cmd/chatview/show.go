package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatview/internal/parse"
	"github.com/Zuo-Peng/chatview/internal/render"
	"github.com/Zuo-Peng/chatview/internal/search"
)

func showCmd() *cobra.Command {
	var name, owner, query string
	var width int

	cmd := &cobra.Command{
		Use:   "show <archive>",
		Short: "Print a conversation thread with ANSI colors",
		Long: `Import one archive and print its thread. With --query the matching words
are highlighted and the last match is marked as the current hit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			attachment, err := a.attachment()
			if err != nil {
				return err
			}
			lib, closeLib, err := a.openLibrary()
			if err != nil {
				return err
			}
			defer closeLib()

			if err := a.importArchives(cmd.Context(), lib, args, namesOf(name), owner); err != nil {
				return err
			}
			conv := lib.Current()

			if width <= 0 {
				width = terminalWidth(80)
			}
			opts := render.Options{Width: width, Hit: -1, Attachment: attachment}
			if query != "" {
				finder := search.Find(conv.Messages, query, func(m *parse.Authored) string {
					return render.DisplayText(m, attachment)
				})
				if finder.Len() > 0 {
					opts.Query = finder.Query()
					opts.Hit, _ = finder.Current()
				}
			}

			fmt.Print(render.RenderConversation(conv, opts).Content)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Conversation name (default: file name)")
	cmd.Flags().StringVar(&owner, "owner", "", "Your name as it appears in the transcript")
	cmd.Flags().StringVar(&query, "query", "", "Highlight and mark matches of this text")
	cmd.Flags().IntVar(&width, "width", 0, "Wrap width (default: terminal width or 80)")

	return cmd
}
