package youtube

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/gcottom/go-zaplog"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Search asks yt-dlp for the first limit results of query, in the order the
// platform ranks them.
func (s *Client) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit < 1 {
		limit = 1
	}
	zaplog.InfoC(ctx, "searching youtube", zap.String("query", query))
	out, err := s.Exec(ctx, s.YTDLPPath,
		"--flat-playlist", "--dump-json", "--no-warnings", "--quiet",
		fmt.Sprintf("ytsearch%d:%s", limit, query),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search youtube: %w", err)
	}
	return parseSearchResults(out), nil
}

// FetchAudio downloads the best audio of videoURL and lets yt-dlp transcode
// it to mp3. The file is written to base + ".mp3".
func (s *Client) FetchAudio(ctx context.Context, videoURL, base, bitrate string) (string, error) {
	zaplog.InfoC(ctx, "downloading with yt-dlp", zap.String("url", videoURL))
	_, err := s.Exec(ctx, s.YTDLPPath,
		"-f", "bestaudio/best",
		"--no-playlist",
		"-x", "--audio-format", "mp3",
		"--audio-quality", strings.ToUpper(bitrate),
		"--force-overwrites",
		"--quiet", "--no-warnings",
		"-o", base+".%(ext)s",
		videoURL,
	)
	if err != nil {
		return "", fmt.Errorf("failed to download with yt-dlp: %w", err)
	}
	return base + ".mp3", nil
}

// parseSearchResults reads the one-object-per-line output of --dump-json.
func parseSearchResults(out []byte) []SearchResult {
	results := make([]SearchResult, 0)
	for _, line := range bytes.Split(out, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || !gjson.ValidBytes(line) {
			continue
		}
		entry := gjson.ParseBytes(line)
		id := entry.Get("id").String()
		if id == "" {
			continue
		}
		results = append(results, SearchResult{
			ID:      id,
			Title:   entry.Get("title").String(),
			Channel: entry.Get("channel").String(),
			URL:     fmt.Sprintf(VideoURLTemplate, id),
		})
	}
	return results
}
