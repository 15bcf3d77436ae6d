package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/gcottom/playlist-dl/config"
	"github.com/spf13/cobra"
)

type options struct {
	ConfigPath string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "ERROR:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "playlist-dl",
		Short: "Download the tracks of a Spotify playlist as mp3 files",
		Long: "playlist-dl resolves a Spotify playlist, finds every track on YouTube and saves it as a tagged mp3, " +
			"optionally with lyrics. Without a subcommand it serves the HTTP interface.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return RunServer(cmd.Context(), opts)
		},
		SilenceErrors:     true,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}
	root.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", config.DefaultPath, "Path to config file")

	root.AddCommand(newServeCommand(opts))
	root.AddCommand(newDownloadCommand(opts))
	root.AddCommand(newConfigureCommand(opts))
	return root
}
