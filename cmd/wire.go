package main

import (
	"github.com/gcottom/playlist-dl/config"
	"github.com/gcottom/playlist-dl/internal"
	"github.com/gcottom/playlist-dl/internal/handlers"
	"github.com/gcottom/playlist-dl/internal/services/downloader"
	"github.com/gcottom/playlist-dl/internal/services/lyrics"
	"github.com/gcottom/playlist-dl/internal/services/matcher"
	"github.com/gcottom/playlist-dl/internal/services/meta"
	"github.com/gcottom/playlist-dl/internal/services/resolver"
	"github.com/gcottom/playlist-dl/internal/session"
	"github.com/gcottom/playlist-dl/pkg/genius"
	"github.com/gcottom/playlist-dl/pkg/spotify"
	"github.com/gcottom/playlist-dl/pkg/youtube"
	"github.com/gcottom/semaphore"
)

// buildDeps wires the service clients for cfg. Without catalog credentials
// the resolver and pinger are nil; without a Genius token lyrics are off.
func buildDeps(cfg *config.Config) (session.Deps, handlers.Pinger) {
	yt := youtube.NewClient(cfg.YTDLPPath, internal.OSExecute)
	ff := &internal.FFmpeg{Path: cfg.FFmpegPath, Bitrate: cfg.Bitrate}

	pool := &downloader.Service{
		Workers: cfg.Workers,
		SaveDir: cfg.SaveDir,
		Tagger:  &meta.Service{},
	}
	switch cfg.Fetcher {
	case config.FetcherYTDLP:
		pool.Fetcher = &downloader.YTDLPFetcher{Client: yt, Bitrate: cfg.Bitrate}
	default:
		pool.Fetcher = &downloader.NativeFetcher{
			Downloader:        yt,
			Converter:         ff,
			ConversionLimiter: semaphore.NewSemaphore(cfg.ConversionLimit),
		}
	}
	if cfg.LyricsAvailable() {
		pool.Lyrics = &lyrics.Service{Source: genius.NewClient(cfg.GeniusToken)}
		pool.Muxer = ff
	}

	deps := session.Deps{
		Matcher: &matcher.Service{Searcher: yt},
		Pool:    pool,
	}
	if !cfg.HasSpotifyCredentials() {
		return deps, nil
	}
	sp := spotify.NewClient(cfg.SpotifyClientID, cfg.SpotifyClientSecret)
	deps.Resolver = &resolver.Service{Catalog: sp}
	return deps, sp
}
