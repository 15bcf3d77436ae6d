package downloader

import (
	"context"
	"fmt"
	"os"

	"github.com/gcottom/go-zaplog"
	"github.com/gcottom/playlist-dl/internal"
	"github.com/gcottom/semaphore"
	"go.uber.org/zap"
)

type StreamDownloader interface {
	Download(ctx context.Context, videoURL string) ([]byte, error)
}

type Converter interface {
	ConvertFile(ctx context.Context, b []byte) ([]byte, error)
}

type AudioFetcher interface {
	FetchAudio(ctx context.Context, videoURL, base, bitrate string) (string, error)
}

// NativeFetcher downloads the raw audio stream in-process and pipes it
// through the converter. ConversionLimiter bounds concurrent transcodes
// independently of the number of workers.
type NativeFetcher struct {
	Downloader        StreamDownloader
	Converter         Converter
	ConversionLimiter *semaphore.Semaphore
}

func (f *NativeFetcher) Fetch(ctx context.Context, sourceURL, base string) (string, error) {
	data, err := f.Downloader.Download(ctx, sourceURL)
	if err != nil {
		return "", fmt.Errorf("failed to download file: %w", err)
	}
	converted, err := f.convert(ctx, data)
	if err != nil {
		return "", fmt.Errorf("failed to convert file: %w", err)
	}
	path := base + "." + internal.FILEFORMAT
	if err = os.WriteFile(path, converted, 0644); err != nil {
		zaplog.ErrorC(ctx, "failed to write file", zap.String("path", path), zap.Error(err))
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}

func (f *NativeFetcher) convert(ctx context.Context, data []byte) ([]byte, error) {
	if f.ConversionLimiter != nil {
		f.ConversionLimiter.Acquire()
		defer f.ConversionLimiter.Release()
	}
	return f.Converter.ConvertFile(ctx, data)
}

// YTDLPFetcher hands both download and transcode to yt-dlp.
type YTDLPFetcher struct {
	Client  AudioFetcher
	Bitrate string
}

func (f *YTDLPFetcher) Fetch(ctx context.Context, sourceURL, base string) (string, error) {
	return f.Client.FetchAudio(ctx, sourceURL, base, f.Bitrate)
}
