package session

import (
	"context"

	"github.com/gcottom/playlist-dl/internal/model"
	"github.com/gcottom/playlist-dl/internal/progress"
	"github.com/gcottom/playlist-dl/internal/services/downloader"
)

type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseFetching    Phase = "fetching"
	PhaseReady       Phase = "ready"
	PhaseDownloading Phase = "downloading"
)

const (
	DialogInfo    = "info"
	DialogWarning = "warning"
	DialogError   = "error"
)

type Dialog struct {
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// State is everything the user sees. It is owned by the dispatch loop.
type State struct {
	Phase      Phase               `json:"phase"`
	Configured bool                `json:"configured"`
	BatchID    string              `json:"batch_id,omitempty"`
	Jobs       []model.ResolvedJob `json:"jobs"`
	Progress   progress.Snapshot   `json:"progress"`
	Percent    int                 `json:"percent"`
	Status     string              `json:"status"`
	Log        []string            `json:"log"`
	Dialog     *Dialog             `json:"dialog,omitempty"`
}

type EventKind string

const (
	EventLog      EventKind = "log"
	EventProgress EventKind = "progress"
	EventDialog   EventKind = "dialog"
	EventPhase    EventKind = "phase"
)

type Event struct {
	Kind     EventKind
	Line     string
	Progress progress.Snapshot
	Dialog   *Dialog
	Phase    Phase
}

type TrackResolver interface {
	Resolve(ctx context.Context, playlistURL string) ([]model.TrackDescriptor, error)
}

type MatchFinder interface {
	Find(ctx context.Context, track model.TrackDescriptor, rep model.Reporter) (model.ResolvedJob, bool)
}

// Deps are the service clients built from config. A nil Resolver means the
// catalog credentials are missing.
type Deps struct {
	Resolver TrackResolver
	Matcher  MatchFinder
	Pool     *downloader.Service
}

// Options are the per-batch toggles.
type Options struct {
	Lyrics bool `json:"lyrics"`
	LRC    bool `json:"lrc"`
}
