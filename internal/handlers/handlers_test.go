package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gcottom/playlist-dl/config"
	"github.com/gcottom/playlist-dl/internal/model"
	"github.com/gcottom/playlist-dl/internal/services/downloader"
	"github.com/gcottom/playlist-dl/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct{ tracks []model.TrackDescriptor }

func (r fakeResolver) Resolve(context.Context, string) ([]model.TrackDescriptor, error) {
	return r.tracks, nil
}

type fakeMatcher struct{}

func (fakeMatcher) Find(_ context.Context, t model.TrackDescriptor, _ model.Reporter) (model.ResolvedJob, bool) {
	return model.ResolvedJob{Title: t.Title, Artist: t.Artist, SourceURL: "https://youtube.com/watch?v=" + t.Title}, true
}

type writeFetcher struct{}

func (writeFetcher) Fetch(_ context.Context, _ string, base string) (string, error) {
	return base + ".mp3", os.WriteFile(base+".mp3", []byte("audio"), 0644)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

// gatedPinger blocks until release is closed and records whether the
// context it got carried a deadline.
type gatedPinger struct {
	started     chan struct{}
	release     chan struct{}
	hadDeadline chan bool
}

func (p gatedPinger) Ping(ctx context.Context) error {
	_, ok := ctx.Deadline()
	p.hadDeadline <- ok
	close(p.started)
	<-p.release
	return nil
}

type fixture struct {
	router     *gin.Engine
	session    *session.Session
	configPath string
	saveDir    string
	built      []*config.Config
}

func newFixture(t *testing.T, deps session.Deps, pingErr error) *fixture {
	t.Helper()
	return newFixtureWithPinger(t, deps, fakePinger{err: pingErr}, "")
}

// newFixtureWithPinger uses configPath when set, otherwise a fresh temp path.
func newFixtureWithPinger(t *testing.T, deps session.Deps, pinger Pinger, configPath string) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	if configPath == "" {
		configPath = filepath.Join(dir, "config", "config.yaml")
	}
	f := &fixture{configPath: configPath, saveDir: filepath.Join(dir, "out")}
	if deps.Pool != nil {
		deps.Pool.SaveDir = f.saveDir
	}
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.SaveDir = f.saveDir

	f.session = session.New(deps)
	f.session.PollInterval = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go f.session.Run(ctx)

	build := func(c *config.Config) (session.Deps, Pinger) {
		f.built = append(f.built, c)
		if !c.HasSpotifyCredentials() {
			return session.Deps{Matcher: fakeMatcher{}}, nil
		}
		return session.Deps{Resolver: fakeResolver{}, Matcher: fakeMatcher{}}, pinger
	}
	f.router = gin.New()
	SetupRoutes(f.router, f.session, cfg, f.configPath, build)
	return f
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) waitPhase(t *testing.T, phase session.Phase) session.State {
	t.Helper()
	var st session.State
	require.Eventually(t, func() bool {
		var err error
		st, err = f.session.Snapshot()
		return err == nil && st.Phase == phase && st.Dialog != nil
	}, 5*time.Second, 10*time.Millisecond)
	return st
}

func readyDeps(titles ...string) session.Deps {
	var tracks []model.TrackDescriptor
	for _, title := range titles {
		tracks = append(tracks, model.TrackDescriptor{Title: title, Artist: "Band"})
	}
	return session.Deps{
		Resolver: fakeResolver{tracks: tracks},
		Matcher:  fakeMatcher{},
		Pool:     &downloader.Service{Workers: 2, Fetcher: writeFetcher{}},
	}
}

func TestFetchThenDownload(t *testing.T) {
	f := newFixture(t, readyDeps("One", "Two"), nil)

	w := f.do(t, http.MethodPost, "/fetch?url=https://open.spotify.com/playlist/abc", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	st := f.waitPhase(t, session.PhaseReady)
	assert.Equal(t, "Ready to download 2 tracks!", st.Dialog.Message)

	w = f.do(t, http.MethodPost, "/download?lyrics=false", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Eventually(t, func() bool {
		st, err := f.session.Snapshot()
		return err == nil && st.Dialog != nil && st.Dialog.Title == "Complete"
	}, 5*time.Second, 10*time.Millisecond)

	w = f.do(t, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got session.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 2, got.Progress.Completed)
	assert.Equal(t, "Download process finished. Processed 2/2 files.", got.Dialog.Message)

	_, err := os.Stat(filepath.Join(f.saveDir, "Band - One.mp3"))
	assert.NoError(t, err)
}

func TestFetchAcceptsJSONBody(t *testing.T) {
	f := newFixture(t, readyDeps("One"), nil)
	w := f.do(t, http.MethodPost, "/fetch", `{"url":"https://open.spotify.com/playlist/abc"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	f.waitPhase(t, session.PhaseReady)
}

func TestErrorStatusCodes(t *testing.T) {
	t.Run("empty url", func(t *testing.T) {
		f := newFixture(t, readyDeps(), nil)
		w := f.do(t, http.MethodPost, "/fetch", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Please enter a Spotify playlist URL.")
	})
	t.Run("download before fetch", func(t *testing.T) {
		f := newFixture(t, readyDeps(), nil)
		w := f.do(t, http.MethodPost, "/download", "")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "fetch tracks first")
	})
	t.Run("not configured", func(t *testing.T) {
		f := newFixture(t, session.Deps{}, nil)
		w := f.do(t, http.MethodPost, "/fetch?url=https://open.spotify.com/playlist/abc", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
	t.Run("bad toggle", func(t *testing.T) {
		f := newFixture(t, readyDeps(), nil)
		w := f.do(t, http.MethodPost, "/download?lrc=maybe", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAcknowledgeDialog(t *testing.T) {
	f := newFixture(t, readyDeps(), nil)
	f.do(t, http.MethodPost, "/fetch", "")
	w := f.do(t, http.MethodPost, "/dialog/ack", "")
	require.Equal(t, http.StatusOK, w.Code)

	st, err := f.session.Snapshot()
	require.NoError(t, err)
	assert.Nil(t, st.Dialog)
}

func TestUpdateCredentials(t *testing.T) {
	f := newFixture(t, session.Deps{}, nil)
	w := f.do(t, http.MethodPut, "/credentials", `{"spotify_client_id":" id ","spotify_client_secret":"secret","genius_api_token":"tok"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp CredentialsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Saved)
	assert.True(t, resp.LyricsEnabled)
	assert.Empty(t, resp.Warning)

	saved, err := config.LoadConfigFromFile(f.configPath)
	require.NoError(t, err)
	assert.Equal(t, "id", saved.SpotifyClientID)
	assert.Equal(t, "secret", saved.SpotifyClientSecret)
	assert.Equal(t, "tok", saved.GeniusToken)
	require.Len(t, f.built, 1)

	st, err := f.session.Snapshot()
	require.NoError(t, err)
	assert.True(t, st.Configured)
}

func TestUpdateCredentialsPingFailureIsAWarning(t *testing.T) {
	f := newFixture(t, session.Deps{}, errors.New("invalid_client"))
	w := f.do(t, http.MethodPut, "/credentials", `{"spotify_client_id":"id","spotify_client_secret":"bad"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp CredentialsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Saved)
	assert.False(t, resp.LyricsEnabled)
	assert.Equal(t, "Spotify connection test failed: invalid_client", resp.Warning)
}

func TestUpdateCredentialsRequiresBothHalves(t *testing.T) {
	f := newFixture(t, session.Deps{}, nil)
	w := f.do(t, http.MethodPut, "/credentials", `{"spotify_client_id":"id"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, f.built)
	_, err := os.Stat(f.configPath)
	assert.True(t, os.IsNotExist(err))
}

func TestUpdateCredentialsSaveFailureKeepsPreviousClients(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	f := newFixtureWithPinger(t, session.Deps{}, fakePinger{}, filepath.Join(blocker, "config.yaml"))

	w := f.do(t, http.MethodPut, "/credentials", `{"spotify_client_id":"id","spotify_client_secret":"secret"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "failed to create config dir")

	st, err := f.session.Snapshot()
	require.NoError(t, err)
	assert.False(t, st.Configured)

	w = f.do(t, http.MethodPost, "/fetch?url=https://open.spotify.com/playlist/abc", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUpdateCredentialsPingsWithoutHoldingConfig(t *testing.T) {
	pinger := gatedPinger{started: make(chan struct{}), release: make(chan struct{}), hadDeadline: make(chan bool, 1)}
	f := newFixtureWithPinger(t, session.Deps{}, pinger, "")

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- f.do(t, http.MethodPut, "/credentials", `{"spotify_client_id":"id","spotify_client_secret":"secret"}`)
	}()
	<-pinger.started
	assert.True(t, <-pinger.hadDeadline)

	w := f.do(t, http.MethodPost, "/download", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	close(pinger.release)
	assert.Equal(t, http.StatusOK, (<-done).Code)
}
