package youtube

import (
	"context"
	"fmt"
	"io"

	"github.com/gcottom/go-zaplog"
	"github.com/kkdai/youtube/v2"
	"go.uber.org/zap"
)

// Download fetches the highest bitrate audio stream of the video at
// videoURL. videoURL may also be a bare video id.
func (s *Client) Download(ctx context.Context, videoURL string) ([]byte, error) {
	zaplog.InfoC(ctx, "fetching video info", zap.String("url", videoURL))
	videoInfo, err := s.YTClient.GetVideoContext(ctx, videoURL)
	if err != nil {
		zaplog.ErrorC(ctx, "failed to get video info", zap.String("url", videoURL), zap.Error(err))
		return nil, fmt.Errorf("failed to get video info: %w", err)
	}
	bestFormat := getBestAudioFormat(videoInfo.Formats.Type("audio"))
	if bestFormat == nil {
		zaplog.ErrorC(ctx, "failed to get best audio format", zap.String("url", videoURL))
		return nil, fmt.Errorf("failed to get best audio format")
	}
	zaplog.InfoC(ctx, "best audio format found", zap.String("id", videoInfo.ID), zap.Int("bitrate", bestFormat.Bitrate))

	stream, _, err := s.YTClient.GetStreamContext(ctx, videoInfo, bestFormat)
	if err != nil {
		zaplog.ErrorC(ctx, "failed to get stream", zap.String("id", videoInfo.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to get stream: %w", err)
	}
	defer stream.Close()
	streamBytes, err := io.ReadAll(stream)
	if err != nil {
		zaplog.ErrorC(ctx, "failed to read stream", zap.String("id", videoInfo.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to read stream: %w", err)
	}
	zaplog.InfoC(ctx, "successfully downloaded youtube stream", zap.String("id", videoInfo.ID), zap.Int("bytes", len(streamBytes)))
	return streamBytes, nil
}

func getBestAudioFormat(formats youtube.FormatList) *youtube.Format {
	var bestFormat *youtube.Format
	maxBitrate := 0
	for _, format := range formats {
		if format.Bitrate > maxBitrate {
			best := format
			bestFormat = &best
			maxBitrate = format.Bitrate
		}
	}
	return bestFormat
}
