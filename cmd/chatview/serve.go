package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatview/internal/api"
	"github.com/Zuo-Peng/chatview/internal/conversation"
)

func serveCmd() *cobra.Command {
	var names []string
	var owner, addr string

	cmd := &cobra.Command{
		Use:   "serve [<archive>...]",
		Short: "Serve the library over HTTP",
		Long: `Start the HTTP API. Archives given on the command line are imported first;
more can be posted to /api/v1/conversations. Everything is kept in memory
and lost when the server stops.`,
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

			if err := a.importArchives(cmd.Context(), lib, args, names, owner); err != nil {
				return err
			}

			if addr == "" {
				addr = a.cfg.ListenAddr
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := api.NewServer(addr, lib, conversation.NewImporter(a.cfg, a.log), a.log)
			srv.MaxUpload = a.cfg.MaxEntrySize
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringArrayVar(&names, "name", nil, "Conversation name, once per archive in order (default: file name)")
	cmd.Flags().StringVar(&owner, "owner", "", "Your name as it appears in the transcript")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: listen_addr from config)")

	return cmd
}
