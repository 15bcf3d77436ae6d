package meta

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/gcottom/audiometa/v3"
	"github.com/gcottom/go-zaplog"
	"github.com/gcottom/playlist-dl/internal/model"
	"go.uber.org/zap"
)

// Service writes catalog metadata into downloaded audio files.
type Service struct{}

// Tag sets title, artist and album on the audio file at path. The file is
// rewritten through a temporary file so a failed save never truncates it.
func (s *Service) Tag(ctx context.Context, path string, job model.ResolvedJob) error {
	data, err := os.ReadFile(path)
	if err != nil {
		zaplog.ErrorC(ctx, "failed to read file", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to read file: %w", err)
	}
	tag, err := audiometa.OpenTag(bytes.NewReader(data))
	if err != nil {
		zaplog.ErrorC(ctx, "failed to open tag", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to open tag: %w", err)
	}
	tag.SetTitle(job.Title)
	tag.SetArtist(job.Artist)
	if job.Album != "" {
		tag.SetAlbum(job.Album)
	}
	out := new(bytes.Buffer)
	if err = tag.Save(out); err != nil {
		zaplog.ErrorC(ctx, "failed to save tag", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to save tag: %w", err)
	}
	tmp := path + ".tag.tmp"
	if err = os.WriteFile(tmp, out.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace file: %w", err)
	}
	zaplog.InfoC(ctx, "tags written", zap.String("path", path), zap.String("title", job.Title), zap.String("artist", job.Artist))
	return nil
}
