package model

import "fmt"

// TrackDescriptor is one catalog entry of a playlist.
type TrackDescriptor struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album,omitempty"`
}

// ResolvedJob is a track matched to a downloadable source.
type ResolvedJob struct {
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Album     string `json:"album,omitempty"`
	SourceURL string `json:"source_url"`
}

func (j ResolvedJob) String() string {
	return fmt.Sprintf("%s by %s", j.Title, j.Artist)
}

// Reporter receives user facing result log lines.
type Reporter interface {
	Logf(format string, args ...any)
}
