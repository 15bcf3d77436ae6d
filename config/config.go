package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"gopkg.in/yaml.v2"
)

const DefaultPath = "./config/config.yaml"

const (
	FetcherNative = "native"
	FetcherYTDLP  = "ytdlp"
)

type Config struct {
	SaveDir             string        `yaml:"save_dir"`
	SpotifyClientID     string        `yaml:"spotify_client_id"`
	SpotifyClientSecret string        `yaml:"spotify_client_secret"`
	GeniusToken         string        `yaml:"genius_api_token"`
	Workers             int           `yaml:"workers"`
	ConversionLimit     int           `yaml:"conversion_limit"`
	Bitrate             string        `yaml:"bitrate"`
	FFmpegPath          string        `yaml:"ffmpeg_path"`
	YTDLPPath           string        `yaml:"ytdlp_path"`
	Fetcher             string        `yaml:"fetcher"`
	Lyrics              *bool         `yaml:"lyrics,omitempty"`
	LRC                 *bool         `yaml:"lrc,omitempty"`
	PollInterval        time.Duration `yaml:"poll_interval"`
	Port                int           `yaml:"port"`
}

// LoadConfigFromFile reads the yaml config at path. A missing file is not an
// error: the defaults are returned so the credentials can be supplied later.
func LoadConfigFromFile(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	var config Config
	file, err := os.Open(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		defer file.Close()
		dec := yaml.NewDecoder(file)
		if err = dec.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}
	config.applyEnv(os.Getenv)
	config.ApplyDefaults()
	return &config, nil
}

// SaveConfigToFile persists c, creating the parent directory if needed.
func SaveConfigToFile(path string, c *Config) error {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	// credentials live in this file
	return os.WriteFile(path, out, 0600)
}

func (c *Config) ApplyDefaults() {
	if c.SaveDir == "" {
		c.SaveDir = "downloads"
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.ConversionLimit <= 0 {
		c.ConversionLimit = logicalCPUs()
	}
	if c.Bitrate == "" {
		c.Bitrate = "192k"
	}
	if c.FFmpegPath == "" {
		c.FFmpegPath = "ffmpeg"
	}
	if c.YTDLPPath == "" {
		c.YTDLPPath = "yt-dlp"
	}
	if c.Fetcher == "" {
		c.Fetcher = FetcherNative
	}
	if c.Lyrics == nil {
		c.Lyrics = boolPtr(true)
	}
	if c.LRC == nil {
		c.LRC = boolPtr(true)
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.Port == 0 {
		c.Port = 50999
	}
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv("PLAYLISTDL_SPOTIFY_CLIENT_ID")); v != "" {
		c.SpotifyClientID = v
	}
	if v := strings.TrimSpace(getenv("PLAYLISTDL_SPOTIFY_CLIENT_SECRET")); v != "" {
		c.SpotifyClientSecret = v
	}
	if v := strings.TrimSpace(getenv("PLAYLISTDL_GENIUS_TOKEN")); v != "" {
		c.GeniusToken = v
	}
}

// HasSpotifyCredentials reports whether both halves of the client
// credentials are present.
func (c *Config) HasSpotifyCredentials() bool {
	return strings.TrimSpace(c.SpotifyClientID) != "" && strings.TrimSpace(c.SpotifyClientSecret) != ""
}

// LyricsAvailable is false when no Genius token is set; lyrics features are
// then silently disabled.
func (c *Config) LyricsAvailable() bool {
	return strings.TrimSpace(c.GeniusToken) != ""
}

func (c *Config) LyricsDefault() bool {
	return c.Lyrics == nil || *c.Lyrics
}

func (c *Config) LRCDefault() bool {
	return c.LRC == nil || *c.LRC
}

func Validate(c *Config) error {
	var problems []string
	if !c.HasSpotifyCredentials() {
		problems = append(problems, "spotify_client_id and spotify_client_secret are required")
	}
	if c.Workers < 1 || c.Workers > 64 {
		problems = append(problems, fmt.Sprintf("workers must be between 1 and 64, got %d", c.Workers))
	}
	if c.Fetcher != FetcherNative && c.Fetcher != FetcherYTDLP {
		problems = append(problems, fmt.Sprintf("fetcher must be %q or %q, got %q", FetcherNative, FetcherYTDLP, c.Fetcher))
	}
	if c.Port < 1 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("port out of range: %d", c.Port))
	}
	if len(problems) > 0 {
		return errors.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}

func logicalCPUs() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return 2
	}
	return n
}

func boolPtr(b bool) *bool {
	return &b
}
