package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/gcottom/go-zaplog"
	"github.com/gcottom/playlist-dl/config"
	"github.com/gcottom/playlist-dl/internal/handlers"
	"github.com/gcottom/playlist-dl/internal/session"
	"github.com/gcottom/qgin/qgin"
	"github.com/gin-contrib/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func printBanner() {
	c := color.New(color.FgCyan)
	c.Print(`
 ___ _            _ _    _        ___  _    
| _ \ |__ _ _  _ | (_)__| |_ ___ |   \| |   
|  _/ / _' | || || | (_-<  _|___|| |) | |__ 
|_| |_\__,_|\_, ||_|_/__/\__|    |___/|____|
            |__/                            
|-------------------------------------------|
|     Spotify Playlist Download Service     |
|-------------------------------------------|
`)
}

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP interface (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return RunServer(cmd.Context(), opts)
		},
	}
}

func RunServer(parent context.Context, opts *options) error {
	printBanner()
	ctx := zaplog.CreateAndInject(parent)
	zaplog.InfoC(ctx, "starting playlist download server...")

	cfg, err := config.LoadConfigFromFile(opts.ConfigPath)
	if err != nil {
		zaplog.ErrorC(ctx, "failed to load config", zap.Error(err))
		return err
	}
	if !cfg.HasSpotifyCredentials() {
		zaplog.WarnC(ctx, "spotify credentials missing, set them with PUT /credentials or the configure command")
	}
	if !cfg.LyricsAvailable() {
		zaplog.InfoC(ctx, "no genius token configured, lyrics are disabled")
	}

	zaplog.InfoC(ctx, "creating session...")
	deps, _ := buildDeps(cfg)
	sess := session.New(deps)
	sess.PollInterval = cfg.PollInterval
	go sess.Run(ctx)

	zaplog.InfoC(ctx, "creating gin engine...")
	ginws := qgin.NewGinEngine(&ctx, &qgin.Config{
		UseContextMW:       true,
		UseLoggingMW:       true,
		UseRequestIDMW:     false,
		InjectRequestIDCTX: false,
		LogRequestID:       false,
		ProdMode:           true,
	})
	ginws.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	zaplog.InfoC(ctx, "setting up routes...")
	handlers.SetupRoutes(ginws, sess, cfg, opts.ConfigPath, buildDeps)

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: ginws}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zaplog.ErrorC(ctx, "server shutdown failed", zap.Error(err))
		}
	}()

	zaplog.InfoC(ctx, "setup complete, starting server...")
	zaplog.InfoC(ctx, fmt.Sprintf("now listening and serving on port %d!", cfg.Port))
	if err = srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
