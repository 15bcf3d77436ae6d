package internal

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/gcottom/go-zaplog"
	"go.uber.org/zap"
)

// FFmpeg wraps the ffmpeg executable for transcoding and lyric muxing.
type FFmpeg struct {
	Path    string
	Bitrate string
}

func (f *FFmpeg) path() string {
	if f.Path == "" {
		return "ffmpeg"
	}
	return f.Path
}

// ConvertFile transcodes b to mp3 at the configured bitrate.
func (f *FFmpeg) ConvertFile(ctx context.Context, b []byte) ([]byte, error) {
	bitrate := f.Bitrate
	if bitrate == "" {
		bitrate = "192k"
	}
	var args = []string{"-i", "pipe:0", "-vn", "-c:a", "libmp3lame", "-b:a", bitrate, "-f", FILEFORMAT, "-"}
	cmd := exec.CommandContext(ctx, f.path(), args...)
	resultBuffer := bytes.NewBuffer(make([]byte, 0, 5<<20))

	cmd.Stdout = resultBuffer

	stdin, err := cmd.StdinPipe()
	if err != nil {
		zaplog.ErrorC(ctx, "conversion error", zap.Error(err))
		return nil, err
	}

	if err = cmd.Start(); err != nil {
		zaplog.ErrorC(ctx, "conversion error", zap.Error(err))
		return nil, err
	}

	if _, err = stdin.Write(b); err != nil {
		zaplog.ErrorC(ctx, "conversion error", zap.Error(err))
		_ = cmd.Wait()
		return nil, err
	}
	// ffmpeg waits for EOF on stdin
	if err = stdin.Close(); err != nil {
		zaplog.ErrorC(ctx, "conversion error", zap.Error(err))
		_ = cmd.Wait()
		return nil, err
	}
	if err = cmd.Wait(); err != nil {
		zaplog.ErrorC(ctx, "conversion error", zap.Error(err))
		return nil, err
	}
	return resultBuffer.Bytes(), nil
}

// EmbedLyrics attaches lyrics to the audio file at audioPath as a text stream.
// The audio file is only replaced once ffmpeg produced a complete output, so
// on error it is left exactly as it was.
func (f *FFmpeg) EmbedLyrics(ctx context.Context, audioPath string, lyrics string) error {
	if lyrics == "" {
		return nil
	}
	lyricsPath := audioPath + ".lyrics.txt"
	tempPath := audioPath + ".temp." + FILEFORMAT
	if err := os.WriteFile(lyricsPath, []byte(lyrics), 0644); err != nil {
		return fmt.Errorf("failed to write lyrics file: %w", err)
	}
	defer os.Remove(lyricsPath)

	if _, err := OSExecute(ctx, f.path(), MuxArgs(audioPath, lyricsPath, tempPath)...); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to mux lyrics: %w", err)
	}
	if err := os.Rename(tempPath, audioPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to replace audio file: %w", err)
	}
	zaplog.InfoC(ctx, "lyrics embedded", zap.String("path", audioPath))
	return nil
}

func MuxArgs(audioPath, lyricsPath, outPath string) []string {
	return []string{
		"-y",
		"-i", audioPath,
		"-i", lyricsPath,
		"-map", "0", "-map", "1",
		"-c", "copy",
		"-id3v2_version", "3",
		"-metadata:s:t", "mimetype=text/plain",
		outPath,
	}
}
