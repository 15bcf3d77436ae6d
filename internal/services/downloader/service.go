package downloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/gcottom/go-zaplog"
	"github.com/gcottom/playlist-dl/internal"
	"github.com/gcottom/playlist-dl/internal/model"
	"github.com/gcottom/playlist-dl/internal/services/lyrics"
	"go.uber.org/zap"
)

// Start launches the workers over b.Queue and returns a channel that is
// closed once every worker has exited. Workers exit as soon as they find the
// queue empty, so the queue must be fully loaded before Start is called.
func (s *Service) Start(ctx context.Context, b *Batch) <-chan struct{} {
	workers := s.Workers
	if workers < 1 {
		workers = 1
	}
	zaplog.InfoC(ctx, "starting download workers", zap.String("batch", b.ID), zap.Int("workers", workers), zap.Int("jobs", b.Queue.Len()))
	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID, b)
		}(i)
	}
	go func() {
		wg.Wait()
		zaplog.InfoC(ctx, "download workers finished", zap.String("batch", b.ID))
		close(done)
	}()
	return done
}

// Run is Start followed by waiting for the pool to finish.
func (s *Service) Run(ctx context.Context, b *Batch) {
	<-s.Start(ctx, b)
}

func (s *Service) worker(ctx context.Context, workerID int, b *Batch) {
	for {
		job, ok := b.Queue.TryGet()
		if !ok {
			return
		}
		s.process(ctx, workerID, job, b)
	}
}

// process runs one job. Whatever happens, the job is counted exactly once.
func (s *Service) process(ctx context.Context, workerID int, job model.ResolvedJob, b *Batch) {
	defer func() {
		b.Reporter.ProgressChanged(b.Progress.Increment())
	}()
	defer func() {
		if r := recover(); r != nil {
			zaplog.ErrorC(ctx, "download job panicked", zap.String("batch", b.ID), zap.String("title", job.Title), zap.Any("panic", r))
			b.Reporter.Logf("[FAILED] %s - %v", job.Title, r)
		}
	}()

	if err := s.DownloadAndProcess(ctx, workerID, job, b); err != nil {
		zaplog.ErrorC(ctx, "download job failed", zap.String("batch", b.ID), zap.String("title", job.Title), zap.Error(err))
		b.Reporter.Logf("[FAILED] %s - %v", job.Title, err)
		return
	}
	b.Reporter.Logf("[SUCCESS] %s - %s.%s", job.Artist, job.Title, internal.FILEFORMAT)
}

// DownloadAndProcess fetches and transcodes the job, then applies tags and
// lyrics. Only the fetch is fatal to the job; the later steps are logged and
// skipped on failure.
func (s *Service) DownloadAndProcess(ctx context.Context, workerID int, job model.ResolvedJob, b *Batch) error {
	b.Reporter.Logf("[Worker %d] Starting: %s", workerID, job.Title)
	base := internal.ArtifactBase(s.SaveDir, job.Artist, job.Title)
	path, err := s.Fetcher.Fetch(ctx, job.SourceURL, base)
	if err != nil {
		return err
	}
	if s.Tagger != nil {
		if err = s.Tagger.Tag(ctx, path, job); err != nil {
			b.Reporter.Logf("Error writing tags: %v", err)
		}
	}
	b.Reporter.Logf("[Worker %d] Converted to MP3: %s%s", workerID, filepath.Base(path), sizeSuffix(path))

	if b.Lyrics && s.Lyrics != nil {
		s.attachLyrics(ctx, job, path, b)
	}
	return nil
}

func (s *Service) attachLyrics(ctx context.Context, job model.ResolvedJob, path string, b *Batch) {
	text, ok := s.Lyrics.Fetch(ctx, job.Artist, job.Title)
	if !ok {
		b.Reporter.Logf("No lyrics found for %s", job)
		return
	}
	if b.LRC {
		lrcPath := internal.LRCPath(path)
		if err := lyrics.WriteLRC(lrcPath, job.Artist, job.Title, text); err != nil {
			zaplog.WarnC(ctx, "failed to create lrc", zap.String("path", lrcPath), zap.Error(err))
			b.Reporter.Logf("Error creating LRC: %v", err)
		}
	}
	if s.Muxer == nil {
		return
	}
	if err := s.Muxer.EmbedLyrics(ctx, path, text); err != nil {
		zaplog.WarnC(ctx, "failed to embed lyrics", zap.String("path", path), zap.Error(err))
		b.Reporter.Logf("Error embedding lyrics: %v", err)
	}
}

func sizeSuffix(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return fmt.Sprintf(" (%s)", humanize.Bytes(uint64(info.Size())))
}
