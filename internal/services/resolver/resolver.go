package resolver

import (
	"context"
	"errors"
	"regexp"

	"github.com/gcottom/go-zaplog"
	"github.com/gcottom/playlist-dl/internal/errs"
	"github.com/gcottom/playlist-dl/internal/model"
	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"
)

var playlistIDPattern = regexp.MustCompile(`playlist/([a-zA-Z0-9]+)`)

// Catalog pages through the items of a playlist. NextPage advances the page
// in place and returns spotify.ErrNoMorePages once the cursor is exhausted.
type Catalog interface {
	FirstPage(ctx context.Context, playlistID string) (*spotify.PlaylistItemPage, error)
	NextPage(ctx context.Context, page *spotify.PlaylistItemPage) error
}

type Service struct {
	Catalog Catalog
}

// PlaylistID extracts the playlist identifier from a playlist URL or URI path.
func PlaylistID(playlistURL string) (string, error) {
	match := playlistIDPattern.FindStringSubmatch(playlistURL)
	if match == nil {
		return "", &errs.InvalidInputError{Input: playlistURL, Reason: "invalid spotify playlist url"}
	}
	return match[1], nil
}

// Resolve returns every track of the playlist. Entries without a track
// (removed tracks, podcast episodes) are skipped. Any catalog error aborts
// resolution and no partial list is returned.
func (s *Service) Resolve(ctx context.Context, playlistURL string) ([]model.TrackDescriptor, error) {
	playlistID, err := PlaylistID(playlistURL)
	if err != nil {
		zaplog.WarnC(ctx, "playlist id not found", zap.String("url", playlistURL))
		return nil, err
	}
	page, err := s.Catalog.FirstPage(ctx, playlistID)
	if err != nil {
		zaplog.ErrorC(ctx, "failed to get playlist items", zap.String("playlistID", playlistID), zap.Error(err))
		return nil, &errs.UpstreamError{Op: "get playlist items", Err: err}
	}
	tracks := make([]model.TrackDescriptor, 0, len(page.Items))
	skipped := 0
	for {
		for _, item := range page.Items {
			track, ok := descriptor(item)
			if !ok {
				skipped++
				continue
			}
			tracks = append(tracks, track)
		}
		err = s.Catalog.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			zaplog.ErrorC(ctx, "failed to get next playlist page", zap.String("playlistID", playlistID), zap.Error(err))
			return nil, &errs.UpstreamError{Op: "get next playlist page", Err: err}
		}
	}
	zaplog.InfoC(ctx, "successfully resolved playlist", zap.String("playlistID", playlistID), zap.Int("count", len(tracks)), zap.Int("skipped", skipped))
	return tracks, nil
}

func descriptor(item spotify.PlaylistItem) (model.TrackDescriptor, bool) {
	track := item.Track.Track
	if track == nil {
		return model.TrackDescriptor{}, false
	}
	out := model.TrackDescriptor{Title: track.Name, Album: track.Album.Name}
	if len(track.Artists) > 0 {
		out.Artist = track.Artists[0].Name
	}
	return out, true
}
