package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apperrors "github.com/Zuo-Peng/chatview/internal/errors"
)

var version = "dev"

var (
	configPath string
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "chatview",
		Short:         "Chat archive viewer - import exported chats and browse, search and serve them",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/chatview/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log_level (debug, info, warn, error)")

	rootCmd.AddCommand(viewCmd())
	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(doctorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorLine(err))
		os.Exit(1)
	}
}

// errorLine prefers the user message of an application error.
func errorLine(err error) string {
	if appErr, ok := apperrors.As(err); ok && appErr.UserMessage != "" {
		return appErr.UserMessage
	}
	return err.Error()
}
