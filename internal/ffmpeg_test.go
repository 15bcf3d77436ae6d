package internal

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedLyricsFailureLeavesArtifact(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "Artist - Title.mp3")
	require.NoError(t, os.WriteFile(audio, []byte("original audio"), 0644))

	f := &FFmpeg{Path: filepath.Join(dir, "no-such-ffmpeg")}
	err := f.EmbedLyrics(context.Background(), audio, "some words")
	require.Error(t, err)

	data, err := os.ReadFile(audio)
	require.NoError(t, err)
	assert.Equal(t, "original audio", string(data))
	assert.NoFileExists(t, audio+".lyrics.txt")
	assert.NoFileExists(t, audio+".temp.mp3")
}

func TestEmbedLyricsReplacesArtifact(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script in place of ffmpeg")
	}
	dir := t.TempDir()
	audio := filepath.Join(dir, "Artist - Title.mp3")
	require.NoError(t, os.WriteFile(audio, []byte("audio"), 0644))

	// stand-in for ffmpeg: concatenates both inputs into the last argument
	script := filepath.Join(dir, "fake-ffmpeg")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nfor last; do :; done\ncat \"$3\" \"$5\" > \"$last\"\n"), 0755))

	f := &FFmpeg{Path: script}
	require.NoError(t, f.EmbedLyrics(context.Background(), audio, "+lyrics"))

	data, err := os.ReadFile(audio)
	require.NoError(t, err)
	assert.Equal(t, "audio+lyrics", string(data))
	assert.NoFileExists(t, audio+".lyrics.txt")
	assert.NoFileExists(t, audio+".temp.mp3")
}

func TestEmbedLyricsSkipsEmptyText(t *testing.T) {
	f := &FFmpeg{Path: "/definitely/not/ffmpeg"}
	assert.NoError(t, f.EmbedLyrics(context.Background(), "unused.mp3", ""))
}

func TestMuxArgs(t *testing.T) {
	args := MuxArgs("in.mp3", "in.mp3.lyrics.txt", "in.mp3.temp.mp3")
	assert.Equal(t, "in.mp3.temp.mp3", args[len(args)-1])
	assert.Contains(t, args, "-id3v2_version")
	assert.Equal(t, []string{"-y", "-i", "in.mp3", "-i", "in.mp3.lyrics.txt"}, args[:5])
}
