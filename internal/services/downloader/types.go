package downloader

import (
	"context"

	"github.com/gcottom/playlist-dl/internal/model"
	"github.com/gcottom/playlist-dl/internal/progress"
)

// Fetcher downloads the audio at sourceURL and writes it as mp3 to
// base + ".mp3", returning the written path.
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL, base string) (string, error)
}

type Tagger interface {
	Tag(ctx context.Context, path string, job model.ResolvedJob) error
}

type LyricsSource interface {
	Fetch(ctx context.Context, artist, title string) (string, bool)
}

type Muxer interface {
	EmbedLyrics(ctx context.Context, audioPath string, lyrics string) error
}

// Reporter is how workers hand results to the UI. Implementations must not
// block for long; they are called from worker goroutines.
type Reporter interface {
	model.Reporter
	ProgressChanged(snapshot progress.Snapshot)
}

// Service is the download worker pool. Tagger, Lyrics and Muxer are optional;
// a nil Lyrics disables every lyrics feature.
type Service struct {
	Workers int
	SaveDir string
	Fetcher Fetcher
	Tagger  Tagger
	Lyrics  LyricsSource
	Muxer   Muxer
}

// Batch is one run of the pool over a pre-loaded queue.
type Batch struct {
	ID       string
	Queue    *JobQueue
	Progress *progress.Aggregator
	Reporter Reporter
	Lyrics   bool
	LRC      bool
}
