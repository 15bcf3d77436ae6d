package internal

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gcottom/go-zaplog"
	"go.uber.org/zap"
)

const FILEFORMAT = "mp3"

var invalidChars = regexp.MustCompile(`[\\/*?:"<>|\x00-\x1F]`)

// OSExecute runs command and returns its stdout. Stderr is folded into the
// returned error so callers can surface what the tool complained about.
func OSExecute(ctx context.Context, command string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		zaplog.ErrorC(ctx, "failed to execute command", zap.String("command", command), zap.Error(err))
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, lastLine(msg))
		}
		return nil, err
	}
	return out.Bytes(), nil
}

// SanitizeName replaces characters that are illegal in file names and trims
// surrounding whitespace.
func SanitizeName(name string) string {
	return strings.TrimSpace(invalidChars.ReplaceAllString(name, "_"))
}

// ArtifactBase is the extension-less path shared by a track's audio file and
// its sidecars.
func ArtifactBase(dir, artist, title string) string {
	return filepath.Join(dir, fmt.Sprintf("%s - %s", SanitizeName(artist), SanitizeName(title)))
}

// LRCPath is the lyric sidecar path for the audio file at audioPath.
func LRCPath(audioPath string) string {
	return strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + ".lrc"
}

func lastLine(s string) string {
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		return s[i+1:]
	}
	return s
}
