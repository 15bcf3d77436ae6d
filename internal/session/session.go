// Package session holds the user facing state of the downloader and the two
// phases that change it: fetching a playlist and downloading its tracks.
//
// All state lives on a single dispatch goroutine (Run). Background work
// never touches it directly; it posts closures that Run executes in order.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gcottom/go-zaplog"
	"github.com/gcottom/playlist-dl/internal/errs"
	"github.com/gcottom/playlist-dl/internal/model"
	"github.com/gcottom/playlist-dl/internal/progress"
	"github.com/gcottom/playlist-dl/internal/services/downloader"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxLogLines = 2000

var ErrStopped = errors.New("session stopped")

type Session struct {
	PollInterval time.Duration
	// OnEvent observes every state change. It runs on the dispatch
	// goroutine and must not call back into the Session.
	OnEvent func(Event)

	cmds    chan func()
	stopped chan struct{}

	// owned by the dispatch goroutine
	ctx   context.Context
	deps  Deps
	state State

	progress progress.Aggregator
}

func New(deps Deps) *Session {
	return &Session{
		PollInterval: time.Second,
		cmds:         make(chan func(), 256),
		stopped:      make(chan struct{}),
		deps:         deps,
		state:        State{Phase: PhaseIdle, Configured: deps.Resolver != nil},
	}
}

// Run executes posted commands until ctx is done. Background phases started
// by the session inherit ctx.
func (s *Session) Run(ctx context.Context) {
	s.ctx = ctx
	defer close(s.stopped)
	zaplog.InfoC(ctx, "session dispatch loop started")
	for {
		select {
		case <-ctx.Done():
			zaplog.InfoC(ctx, "session dispatch loop stopped")
			return
		case fn := <-s.cmds:
			fn()
		}
	}
}

// Post schedules fn on the dispatch goroutine. It reports false once the
// session has stopped.
func (s *Session) Post(fn func()) bool {
	select {
	case s.cmds <- fn:
		return true
	case <-s.stopped:
		return false
	}
}

func (s *Session) call(fn func() error) error {
	res := make(chan error, 1)
	if !s.Post(func() { res <- fn() }) {
		return ErrStopped
	}
	select {
	case err := <-res:
		return err
	case <-s.stopped:
		select {
		case err := <-res:
			return err
		default:
			return ErrStopped
		}
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() (State, error) {
	var out State
	err := s.call(func() error {
		out = s.state
		out.Jobs = append([]model.ResolvedJob(nil), s.state.Jobs...)
		out.Log = append([]string(nil), s.state.Log...)
		if s.state.Dialog != nil {
			d := *s.state.Dialog
			out.Dialog = &d
		}
		return nil
	})
	return out, err
}

// Reconfigure swaps the service clients. It is refused while a phase runs.
func (s *Session) Reconfigure(deps Deps) error {
	return s.call(func() error {
		if s.busy() {
			return errs.ErrBusy
		}
		s.deps = deps
		s.state.Configured = deps.Resolver != nil
		return nil
	})
}

func (s *Session) AckDialog() error {
	return s.call(func() error {
		s.state.Dialog = nil
		return nil
	})
}

// FetchTracks starts resolving playlistURL and matching every track in the
// background. It only returns the errors that prevent the phase from
// starting; resolution failures are reported through a dialog.
func (s *Session) FetchTracks(playlistURL string) error {
	playlistURL = strings.TrimSpace(playlistURL)
	return s.call(func() error {
		if s.busy() {
			return errs.ErrBusy
		}
		if s.deps.Resolver == nil || s.deps.Matcher == nil {
			s.showDialog(DialogError, "API Error", "Spotify client not initialized. Please configure your API keys in Settings.")
			return errs.ErrNotConfigured
		}
		if playlistURL == "" {
			err := &errs.InvalidInputError{Reason: "Please enter a Spotify playlist URL."}
			s.showDialog(DialogError, "Error", err.Error())
			return err
		}
		s.state.Log = nil
		s.state.Dialog = nil
		s.state.Status = ""
		s.setPhase(PhaseFetching)
		s.logLine("Fetching track list from Spotify...")
		go s.fetchWorker(s.ctx, s.deps, playlistURL)
		return nil
	})
}

func (s *Session) fetchWorker(ctx context.Context, deps Deps, playlistURL string) {
	tracks, err := deps.Resolver.Resolve(ctx, playlistURL)
	if err != nil {
		zaplog.ErrorC(ctx, "failed to fetch tracks", zap.String("url", playlistURL), zap.Error(err))
		s.Post(func() {
			s.logLine(fmt.Sprintf("Error: %v", err))
			s.setPhase(PhaseIdle)
			s.showDialog(DialogError, "Error", err.Error())
		})
		return
	}
	total := len(tracks)
	s.Post(func() {
		s.logLine(fmt.Sprintf("Found %d tracks. Searching YouTube (this may take a moment)...", total))
		s.setProgress(progress.Snapshot{Total: total})
	})

	rep := postReporter{s: s}
	jobs := make([]model.ResolvedJob, 0, total)
	for i, track := range tracks {
		if job, ok := deps.Matcher.Find(ctx, track, rep); ok {
			jobs = append(jobs, job)
		}
		matched := progress.Snapshot{Completed: i + 1, Total: total}
		s.Post(func() { s.setProgress(matched) })
	}
	zaplog.InfoC(ctx, "fetch phase complete", zap.Int("tracks", total), zap.Int("jobs", len(jobs)))

	s.Post(func() {
		s.state.Jobs = jobs
		s.logLine("--- Found YouTube Links ---")
		for i, job := range jobs {
			s.logLine(fmt.Sprintf("%d. %s", i+1, job))
		}
		s.setPhase(PhaseReady)
		s.showDialog(DialogInfo, "Success", fmt.Sprintf("Ready to download %d tracks!", len(jobs)))
	})
}

// DownloadAll queues every fetched job and starts the worker pool.
func (s *Session) DownloadAll(opts Options) error {
	return s.call(func() error {
		if s.busy() {
			return errs.ErrBusy
		}
		if len(s.state.Jobs) == 0 {
			s.showDialog(DialogError, "Error", "Fetch tracks first!")
			return errs.ErrNoJobs
		}
		pool := s.deps.Pool
		if pool == nil {
			s.showDialog(DialogError, "API Error", "Downloader not initialized. Please configure your API keys in Settings.")
			return errs.ErrNotConfigured
		}
		if err := os.MkdirAll(pool.SaveDir, 0755); err != nil {
			s.showDialog(DialogError, "Error", fmt.Sprintf("Cannot create download directory: %v", err))
			return fmt.Errorf("failed to create save dir: %w", err)
		}

		queue := downloader.NewJobQueue(len(s.state.Jobs))
		for _, job := range s.state.Jobs {
			if err := queue.Put(job); err != nil {
				return fmt.Errorf("failed to queue job: %w", err)
			}
		}
		s.progress.SetTotal(queue.Len())
		batch := &downloader.Batch{
			ID:       uuid.NewString(),
			Queue:    queue,
			Progress: &s.progress,
			Reporter: postReporter{s: s},
			Lyrics:   opts.Lyrics,
			LRC:      opts.LRC,
		}
		zaplog.InfoC(s.ctx, "starting download batch", zap.String("batch", batch.ID), zap.Int("jobs", queue.Len()), zap.Bool("lyrics", opts.Lyrics), zap.Bool("lrc", opts.LRC))

		s.state.BatchID = batch.ID
		s.state.Log = nil
		s.state.Dialog = nil
		s.state.Status = fmt.Sprintf("Starting %d download workers...", pool.Workers)
		s.setProgress(s.progress.Snapshot())
		s.setPhase(PhaseDownloading)

		done := pool.Start(s.ctx, batch)
		go s.monitor(done)
		return nil
	})
}

// monitor polls the aggregator until the pool finishes, then reports
// completion.
func (s *Session) monitor(done <-chan struct{}) {
	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			snap := s.progress.Snapshot()
			if !snap.Done() && snap.Total > 0 {
				zaplog.WarnC(s.ctx, "pool finished with uncounted jobs", zap.Int("completed", snap.Completed), zap.Int("total", snap.Total))
			}
			s.Post(func() {
				s.setProgress(snap)
				s.state.Status = "All downloads finished."
				s.setPhase(PhaseReady)
				s.showDialog(DialogInfo, "Complete", fmt.Sprintf("Download process finished. Processed %d/%d files.", snap.Completed, snap.Total))
			})
			return
		case <-ticker.C:
			snap := s.progress.Snapshot()
			s.Post(func() { s.setProgress(snap) })
		case <-s.stopped:
			return
		}
	}
}

func (s *Session) busy() bool {
	return s.state.Phase == PhaseFetching || s.state.Phase == PhaseDownloading
}

func (s *Session) logLine(line string) {
	s.state.Log = append(s.state.Log, line)
	if over := len(s.state.Log) - maxLogLines; over > 0 {
		s.state.Log = s.state.Log[over:]
	}
	s.emit(Event{Kind: EventLog, Line: line})
}

func (s *Session) setProgress(snap progress.Snapshot) {
	s.state.Progress = snap
	s.state.Percent = snap.Percent()
	if s.state.Phase == PhaseDownloading && snap.Completed > 0 {
		s.state.Status = fmt.Sprintf("Processed %d of %d tracks...", snap.Completed, snap.Total)
	}
	s.emit(Event{Kind: EventProgress, Progress: snap})
}

func (s *Session) setPhase(p Phase) {
	s.state.Phase = p
	s.emit(Event{Kind: EventPhase, Phase: p})
}

func (s *Session) showDialog(kind, title, message string) {
	d := &Dialog{Kind: kind, Title: title, Message: message}
	s.state.Dialog = d
	s.emit(Event{Kind: EventDialog, Dialog: d})
}

func (s *Session) emit(ev Event) {
	if s.OnEvent != nil {
		s.OnEvent(ev)
	}
}

// postReporter forwards worker output to the dispatch goroutine.
type postReporter struct {
	s *Session
}

func (r postReporter) Logf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	r.s.Post(func() { r.s.logLine(line) })
}

func (r postReporter) ProgressChanged(snap progress.Snapshot) {
	r.s.Post(func() { r.s.setProgress(snap) })
}
