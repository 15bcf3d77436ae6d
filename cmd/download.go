package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/gcottom/go-zaplog"
	"github.com/gcottom/playlist-dl/config"
	"github.com/gcottom/playlist-dl/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newDownloadCommand(opts *options) *cobra.Command {
	var (
		withLyrics bool
		withLRC    bool
		workers    int
		outDir     string
	)
	cmd := &cobra.Command{
		Use:   "download <playlist-url>",
		Short: "Fetch and download a playlist without the HTTP interface",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zaplog.CreateAndInject(cmd.Context())
			cfg, err := config.LoadConfigFromFile(opts.ConfigPath)
			if err != nil {
				return err
			}
			if !cfg.HasSpotifyCredentials() {
				if err = promptCredentials(cfg); err != nil {
					return err
				}
				if err = config.SaveConfigToFile(opts.ConfigPath, cfg); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}
			if outDir != "" {
				cfg.SaveDir = outDir
			}
			if err = config.Validate(cfg); err != nil {
				return err
			}

			batch := session.Options{
				Lyrics: cfg.LyricsAvailable() && cfg.LyricsDefault(),
				LRC:    cfg.LRCDefault(),
			}
			if cmd.Flags().Changed("lyrics") {
				batch.Lyrics = withLyrics && cfg.LyricsAvailable()
			}
			if cmd.Flags().Changed("lrc") {
				batch.LRC = withLRC
			}
			if withLyrics && !cfg.LyricsAvailable() {
				zaplog.WarnC(ctx, "lyrics requested but no genius token is configured")
			}

			deps, _ := buildDeps(cfg)
			return runHeadless(ctx, cmd.OutOrStdout(), deps, cfg.PollInterval, args[0], batch)
		},
	}
	cmd.Flags().BoolVar(&withLyrics, "lyrics", true, "Fetch lyrics and embed them in the mp3")
	cmd.Flags().BoolVar(&withLRC, "lrc", true, "Also write a .lrc sidecar next to each mp3")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "Number of concurrent download workers")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Download directory (overrides save_dir)")
	return cmd
}

// runHeadless drives a session through both phases and prints its log.
func runHeadless(ctx context.Context, w io.Writer, deps session.Deps, poll time.Duration, playlistURL string, opts session.Options) error {
	p := &printer{w: w}
	dialogs := make(chan session.Dialog, 8)

	sess := session.New(deps)
	sess.PollInterval = poll
	sess.OnEvent = func(ev session.Event) {
		switch ev.Kind {
		case session.EventLog:
			p.line(ev.Line)
		case session.EventDialog:
			select {
			case dialogs <- *ev.Dialog:
			default:
				zaplog.WarnC(ctx, "dropped dialog", zap.String("title", ev.Dialog.Title))
			}
		}
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go sess.Run(runCtx)

	if err := sess.FetchTracks(playlistURL); err != nil {
		return err
	}
	d, err := awaitDialog(ctx, dialogs)
	if err != nil {
		return err
	}
	if d.Kind == session.DialogError {
		return errors.New(d.Message)
	}
	p.dialog(d)

	if err = sess.DownloadAll(opts); err != nil {
		return fmt.Errorf("no tracks to download: %w", err)
	}
	if d, err = awaitDialog(ctx, dialogs); err != nil {
		return err
	}
	p.dialog(d)
	return nil
}

func awaitDialog(ctx context.Context, dialogs <-chan session.Dialog) (session.Dialog, error) {
	select {
	case d := <-dialogs:
		return d, nil
	case <-ctx.Done():
		return session.Dialog{}, ctx.Err()
	}
}

// printer is written from the session goroutine and the caller.
type printer struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printer) line(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case strings.HasPrefix(s, "[SUCCESS]"):
		color.New(color.FgGreen).Fprintln(p.w, s)
	case strings.HasPrefix(s, "[FAILED]"), strings.HasPrefix(s, "Error"):
		color.New(color.FgRed).Fprintln(p.w, s)
	case strings.HasPrefix(s, "Search error"), strings.HasPrefix(s, "No lyrics found"):
		color.New(color.FgYellow).Fprintln(p.w, s)
	case strings.HasPrefix(s, "---"):
		color.New(color.FgCyan).Fprintln(p.w, s)
	default:
		fmt.Fprintln(p.w, s)
	}
}

func (p *printer) dialog(d session.Dialog) {
	p.mu.Lock()
	defer p.mu.Unlock()
	color.New(color.FgCyan, color.Bold).Fprintf(p.w, "%s: %s\n", d.Title, d.Message)
}
