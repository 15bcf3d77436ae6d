package lyrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gcottom/playlist-dl/pkg/genius"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	song      *genius.Song
	searchErr error
	text      string
	textErr   error
}

func (f *fakeSource) SearchSong(context.Context, string, string) (*genius.Song, error) {
	return f.song, f.searchErr
}

func (f *fakeSource) Lyrics(context.Context, string) (string, error) {
	return f.text, f.textErr
}

const raw = "12 ContributorsHurt Lyrics[Verse 1]\n[Verse 1]\nI hurt myself today\n\nTo see if I still feel\n[Chorus]\n  What have I become  \n[Produced by Rick Rubin] later text\n"

func TestClean(t *testing.T) {
	assert.Equal(t, []string{
		"I hurt myself today",
		"To see if I still feel",
		"What have I become",
		"[Produced by Rick Rubin] later text",
	}, Clean(raw))
}

func TestCleanWithoutHeader(t *testing.T) {
	assert.Equal(t, []string{"first", "second"}, Clean("\nfirst\r\n[Bridge]\r\nsecond"))
}

func TestCleanHeaderKeepsTrailingText(t *testing.T) {
	assert.Equal(t, []string{"Opening line", "next"}, Clean("Song Lyrics Opening line\nnext"))
}

func TestCleanOnlyStripsFirstNonEmptyLine(t *testing.T) {
	raw := "\n42 Contributors\nBohemian Rhapsody Lyrics\nIs this the real life?"
	assert.Equal(t, []string{"42 Contributors", "Bohemian Rhapsody Lyrics", "Is this the real life?"}, Clean(raw))
}

func TestLRC(t *testing.T) {
	assert.Equal(t,
		"[ar:Johnny Cash]\n[ti:Hurt]\nI hurt myself today\nTo see if I still feel\nWhat have I become\n[Produced by Rick Rubin] later text",
		LRC("Johnny Cash", "Hurt", raw))
}

func TestWriteLRC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Johnny Cash - Hurt.lrc")
	require.NoError(t, WriteLRC(path, "Johnny Cash", "Hurt", "Hurt Lyrics\nline"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[ar:Johnny Cash]\n[ti:Hurt]\nline", string(data))
}

func TestFetch(t *testing.T) {
	svc := &Service{Source: &fakeSource{song: &genius.Song{URL: "u"}, text: "words"}}
	text, ok := svc.Fetch(context.Background(), "Artist", "Title")
	assert.True(t, ok)
	assert.Equal(t, "words", text)
}

func TestFetchSoftFailures(t *testing.T) {
	sources := map[string]*fakeSource{
		"search error": {searchErr: errors.New("timeout")},
		"no song":      {},
		"page error":   {song: &genius.Song{URL: "u"}, textErr: genius.ErrNoLyrics},
		"blank text":   {song: &genius.Song{URL: "u"}, text: "  \n"},
	}
	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			text, ok := (&Service{Source: src}).Fetch(context.Background(), "Artist", "Title")
			assert.False(t, ok)
			assert.Empty(t, text)
		})
	}
}
