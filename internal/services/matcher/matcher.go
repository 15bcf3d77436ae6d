package matcher

import (
	"context"
	"fmt"

	"github.com/gcottom/go-zaplog"
	"github.com/gcottom/playlist-dl/internal/model"
	"github.com/gcottom/playlist-dl/pkg/youtube"
	"go.uber.org/zap"
)

const queryQualifier = "audio"

type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]youtube.SearchResult, error)
}

type Service struct {
	Searcher Searcher
}

func Query(track model.TrackDescriptor) string {
	return fmt.Sprintf("%s %s %s", track.Title, track.Artist, queryQualifier)
}

// Find returns the first search result for track. A failed or empty search
// is not an error: it is logged and reported as no match.
func (s *Service) Find(ctx context.Context, track model.TrackDescriptor, rep model.Reporter) (model.ResolvedJob, bool) {
	query := Query(track)
	results, err := s.Searcher.Search(ctx, query, 1)
	if err != nil {
		zaplog.WarnC(ctx, "search failed", zap.String("query", query), zap.Error(err))
		if rep != nil {
			rep.Logf("Search error for '%s': %v", query, err)
		}
		return model.ResolvedJob{}, false
	}
	if len(results) == 0 {
		zaplog.InfoC(ctx, "no search results", zap.String("query", query))
		return model.ResolvedJob{}, false
	}
	return model.ResolvedJob{
		Title:     track.Title,
		Artist:    track.Artist,
		Album:     track.Album,
		SourceURL: results[0].URL,
	}, true
}
