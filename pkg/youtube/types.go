package youtube

import (
	"context"
	"net/http"

	"github.com/kkdai/youtube/v2"
)

const VideoURLTemplate = "https://youtube.com/watch?v=%s"

type Client struct {
	YTClient  *youtube.Client
	YTDLPPath string
	// Exec runs an external command and returns its stdout.
	Exec func(ctx context.Context, command string, args ...string) ([]byte, error)
}

type SearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Channel string `json:"channel,omitempty"`
	URL     string `json:"url"`
}

func NewClient(ytdlpPath string, exec func(ctx context.Context, command string, args ...string) ([]byte, error)) *Client {
	if ytdlpPath == "" {
		ytdlpPath = "yt-dlp"
	}
	return &Client{
		YTClient:  &youtube.Client{HTTPClient: http.DefaultClient},
		YTDLPPath: ytdlpPath,
		Exec:      exec,
	}
}
