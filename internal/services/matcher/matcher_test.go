package matcher

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gcottom/playlist-dl/internal/model"
	"github.com/gcottom/playlist-dl/pkg/youtube"
	"github.com/stretchr/testify/assert"
)

type fakeSearcher struct {
	results []youtube.SearchResult
	err     error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string, limit int) ([]youtube.SearchResult, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > limit {
		return f.results[:limit], nil
	}
	return f.results, nil
}

type lines []string

func (l *lines) Logf(format string, args ...any) {
	*l = append(*l, fmt.Sprintf(format, args...))
}

var track = model.TrackDescriptor{Title: "Hurt", Artist: "Johnny Cash", Album: "American IV"}

func TestFindFirstResultWins(t *testing.T) {
	searcher := &fakeSearcher{results: []youtube.SearchResult{
		{ID: "first", URL: "https://youtube.com/watch?v=first"},
		{ID: "second", URL: "https://youtube.com/watch?v=second"},
	}}
	job, ok := (&Service{Searcher: searcher}).Find(context.Background(), track, nil)
	assert.True(t, ok)
	assert.Equal(t, model.ResolvedJob{
		Title:     "Hurt",
		Artist:    "Johnny Cash",
		Album:     "American IV",
		SourceURL: "https://youtube.com/watch?v=first",
	}, job)
	assert.Equal(t, []string{"Hurt Johnny Cash audio"}, searcher.queries)
}

func TestFindNoResults(t *testing.T) {
	var log lines
	_, ok := (&Service{Searcher: &fakeSearcher{}}).Find(context.Background(), track, &log)
	assert.False(t, ok)
	assert.Empty(t, log)
}

func TestFindSearchErrorIsSoft(t *testing.T) {
	var log lines
	searcher := &fakeSearcher{err: errors.New("yt-dlp not found")}
	_, ok := (&Service{Searcher: searcher}).Find(context.Background(), track, &log)
	assert.False(t, ok)
	assert.Equal(t, lines{"Search error for 'Hurt Johnny Cash audio': yt-dlp not found"}, log)
	assert.Len(t, searcher.queries, 1, "no retry")
}
