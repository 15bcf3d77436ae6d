package lyrics

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gcottom/go-zaplog"
	"github.com/gcottom/playlist-dl/pkg/genius"
	"go.uber.org/zap"
)

const attributionMarker = "Lyrics"

type SongSource interface {
	SearchSong(ctx context.Context, title, artist string) (*genius.Song, error)
	Lyrics(ctx context.Context, songURL string) (string, error)
}

type Service struct {
	Source SongSource
}

// Fetch returns the raw lyric text for the song. Every failure is reported
// as no lyrics.
func (s *Service) Fetch(ctx context.Context, artist, title string) (string, bool) {
	song, err := s.Source.SearchSong(ctx, title, artist)
	if err != nil {
		zaplog.WarnC(ctx, "lyrics search failed", zap.String("artist", artist), zap.String("title", title), zap.Error(err))
		return "", false
	}
	if song == nil {
		zaplog.InfoC(ctx, "no lyrics found", zap.String("artist", artist), zap.String("title", title))
		return "", false
	}
	text, err := s.Source.Lyrics(ctx, song.URL)
	if err != nil {
		zaplog.WarnC(ctx, "failed to fetch lyrics", zap.String("url", song.URL), zap.Error(err))
		return "", false
	}
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

// Clean drops the leading attribution header, bracketed section markers such
// as [Chorus], and blank lines. The remaining lines keep their order.
// Only the first non-empty line is treated as the header: everything up to
// its last "Lyrics" is removed. A later line mentioning "Lyrics" is kept as
// lyric text.
func Clean(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if idx := strings.LastIndex(line, attributionMarker); idx >= 0 {
			lines[i] = line[idx+len(attributionMarker):]
		}
		break
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || isSectionMarker(line) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func PlainText(raw string) string {
	return strings.Join(Clean(raw), "\n")
}

// LRC renders the simplified, untimed lrc sidecar format.
func LRC(artist, title, raw string) string {
	return fmt.Sprintf("[ar:%s]\n[ti:%s]\n%s", artist, title, PlainText(raw))
}

func WriteLRC(path, artist, title, raw string) error {
	if err := os.WriteFile(path, []byte(LRC(artist, title, raw)), 0644); err != nil {
		return fmt.Errorf("failed to write lrc file: %w", err)
	}
	return nil
}

func isSectionMarker(line string) bool {
	return strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]")
}
