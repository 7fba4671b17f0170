package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatview/internal/open"
	"github.com/Zuo-Peng/chatview/internal/render"
	"github.com/Zuo-Peng/chatview/internal/tui"
)

func viewCmd() *cobra.Command {
	var names []string
	var owner string

	cmd := &cobra.Command{
		Use:   "view <archive>...",
		Short: "Import chat archives and browse them",
		Long: `Import one or more exported chat archives (.zip) and open the interactive
viewer. The last archive is selected first.

Keys: up/down select a conversation, typing filters by name, ctrl+f finds in
the thread (enter/ctrl+n next, ctrl+p previous), ctrl+o opens the next media
below the top of the thread, ctrl+y copies the current hit, esc leaves find
mode or quits.

When stdout is not a terminal the last conversation is printed instead.`,
		Args: cobra.MinimumNArgs(1),
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

			if err := a.importArchives(cmd.Context(), lib, args, names, owner); err != nil {
				return err
			}

			if isTerminal() {
				return tui.Run(lib, tui.Options{
					Opener:     open.New(a.cfg.Viewer),
					Attachment: attachment,
				})
			}

			conv := lib.Current()
			if conv == nil {
				return errors.New("nothing imported")
			}
			r := render.RenderConversation(conv, render.Options{
				Width:      terminalWidth(80),
				Hit:        -1,
				Attachment: attachment,
			})
			fmt.Print(r.Content)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&names, "name", nil, "Conversation name, once per archive in order (default: file name)")
	cmd.Flags().StringVar(&owner, "owner", "", "Your name as it appears in the transcript; marks outgoing messages")

	return cmd
}
