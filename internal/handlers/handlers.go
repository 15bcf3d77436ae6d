package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gcottom/go-zaplog"
	"github.com/gcottom/playlist-dl/config"
	"github.com/gcottom/playlist-dl/internal/errs"
	"github.com/gcottom/playlist-dl/internal/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const pingTimeout = 15 * time.Second

// Pinger verifies catalog credentials.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Builder turns a config into the session's service clients. The Pinger is
// nil when no catalog credentials are configured.
type Builder func(cfg *config.Config) (session.Deps, Pinger)

type Handlers struct {
	Session    *session.Session
	Build      Builder
	ConfigPath string

	mu     sync.Mutex
	config *config.Config
}

func SetupRoutes(router *gin.Engine, s *session.Session, cfg *config.Config, configPath string, build Builder) {
	handler := &Handlers{Session: s, Build: build, ConfigPath: configPath, config: cfg}
	router.POST("/fetch", handler.FetchTracks)
	router.POST("/download", handler.DownloadAll)
	router.GET("/status", handler.GetStatus)
	router.POST("/dialog/ack", handler.AcknowledgeDialog)
	router.PUT("/credentials", handler.UpdateCredentials)
}

func (h *Handlers) currentConfig() *config.Config {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.config
}

func (h *Handlers) FetchTracks(ctx *gin.Context) {
	url := ctx.Query("url")
	if url == "" {
		var req FetchRequest
		if err := ctx.ShouldBindJSON(&req); err == nil {
			url = req.URL
		}
	}
	zaplog.InfoC(ctx, "fetch tracks request received", zap.String("url", url))
	if err := h.Session.FetchTracks(url); err != nil {
		zaplog.WarnC(ctx, "fetch tracks rejected", zap.Error(err))
		ResponseFailure(ctx, err)
		return
	}
	ResponseAccepted(ctx, AckResponse{State: "ACK"})
}

func (h *Handlers) DownloadAll(ctx *gin.Context) {
	cfg := h.currentConfig()
	opts := session.Options{
		Lyrics: cfg.LyricsAvailable() && cfg.LyricsDefault(),
		LRC:    cfg.LRCDefault(),
	}
	var err error
	if opts.Lyrics, err = boolQuery(ctx, "lyrics", opts.Lyrics); err != nil {
		ResponseFailure(ctx, err)
		return
	}
	if opts.LRC, err = boolQuery(ctx, "lrc", opts.LRC); err != nil {
		ResponseFailure(ctx, err)
		return
	}
	zaplog.InfoC(ctx, "download request received", zap.Bool("lyrics", opts.Lyrics), zap.Bool("lrc", opts.LRC))
	if err = h.Session.DownloadAll(opts); err != nil {
		zaplog.WarnC(ctx, "download rejected", zap.Error(err))
		ResponseFailure(ctx, err)
		return
	}
	ResponseAccepted(ctx, AckResponse{State: "ACK"})
}

func (h *Handlers) GetStatus(ctx *gin.Context) {
	st, err := h.Session.Snapshot()
	if err != nil {
		zaplog.ErrorC(ctx, "error getting session state", zap.Error(err))
		ResponseInternalError(ctx, err)
		return
	}
	ResponseSuccess(ctx, st)
}

func (h *Handlers) AcknowledgeDialog(ctx *gin.Context) {
	if err := h.Session.AckDialog(); err != nil {
		ResponseInternalError(ctx, err)
		return
	}
	ResponseSuccess(ctx, AckResponse{State: "ACK"})
}

// UpdateCredentials saves new API keys, rebuilds the service clients and
// tests the catalog connection. A failed test is reported as a warning; the
// keys stay saved.
func (h *Handlers) UpdateCredentials(ctx *gin.Context) {
	var req CredentialsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ResponseFailure(ctx, &errs.InvalidInputError{Reason: "invalid credentials body"})
		return
	}
	req.SpotifyClientID = strings.TrimSpace(req.SpotifyClientID)
	req.SpotifyClientSecret = strings.TrimSpace(req.SpotifyClientSecret)
	if req.SpotifyClientID == "" || req.SpotifyClientSecret == "" {
		ResponseFailure(ctx, &errs.InvalidInputError{Reason: "Spotify Client ID and Secret are required."})
		return
	}

	next, pinger, err := h.applyCredentials(ctx, req)
	if err != nil {
		if errors.Is(err, errs.ErrBusy) {
			ResponseFailure(ctx, err)
			return
		}
		ResponseInternalError(ctx, err)
		return
	}
	zaplog.InfoC(ctx, "credentials updated", zap.Bool("lyrics", next.LyricsAvailable()))

	resp := CredentialsResponse{Saved: true, LyricsEnabled: next.LyricsAvailable()}
	if pinger != nil {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err = pinger.Ping(pingCtx); err != nil {
			zaplog.WarnC(ctx, "spotify connection test failed", zap.Error(err))
			resp.Warning = "Spotify connection test failed: " + err.Error()
		}
	}
	ResponseSuccess(ctx, resp)
}

// applyCredentials swaps the session onto the new keys and persists them.
// If the save fails the session is put back on the previous keys, so the
// live clients always match the file.
func (h *Handlers) applyCredentials(ctx context.Context, req CredentialsRequest) (*config.Config, Pinger, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	next := *h.config
	next.SpotifyClientID = req.SpotifyClientID
	next.SpotifyClientSecret = req.SpotifyClientSecret
	next.GeniusToken = strings.TrimSpace(req.GeniusToken)

	deps, pinger := h.Build(&next)
	if err := h.Session.Reconfigure(deps); err != nil {
		return nil, nil, err
	}
	if err := config.SaveConfigToFile(h.ConfigPath, &next); err != nil {
		zaplog.ErrorC(ctx, "failed to save config", zap.Error(err))
		prev, _ := h.Build(h.config)
		if rerr := h.Session.Reconfigure(prev); rerr != nil {
			zaplog.ErrorC(ctx, "failed to restore previous credentials", zap.Error(rerr))
		}
		return nil, nil, err
	}
	h.config = &next
	return &next, pinger, nil
}

func boolQuery(ctx *gin.Context, key string, def bool) (bool, error) {
	raw, ok := ctx.GetQuery(key)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &errs.InvalidInputError{Input: raw, Reason: key + " must be a boolean"}
	}
	return v, nil
}

func statusFor(err error) int {
	switch {
	case errs.IsInvalidInput(err):
		return 400
	case errors.Is(err, errs.ErrBusy), errors.Is(err, errs.ErrNoJobs):
		return 409
	case errors.Is(err, errs.ErrNotConfigured):
		return 503
	case errs.IsUpstream(err):
		return 502
	default:
		return 500
	}
}
