// Package genius is a small client for the Genius song search API and the
// lyrics shown on Genius song pages.
package genius

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gcottom/go-zaplog"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.genius.com"

var ErrNoLyrics = errors.New("no lyrics on song page")

type Client struct {
	Token      string
	BaseURL    string
	HTTPClient *http.Client
}

type Song struct {
	Title  string
	Artist string
	URL    string
}

func NewClient(token string) *Client {
	return &Client{Token: token, BaseURL: DefaultBaseURL, HTTPClient: http.DefaultClient}
}

// SearchSong returns the best song hit for title and artist: the first hit
// whose primary artist matches, otherwise the first song hit. It returns
// nil when there are no song hits.
func (c *Client) SearchSong(ctx context.Context, title, artist string) (*Song, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s", strings.TrimRight(c.BaseURL, "/"), url.QueryEscape(strings.TrimSpace(title+" "+artist)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	resp, err := c.httpClient().Do(req)
	if err != nil {
		zaplog.ErrorC(ctx, "failed to search genius", zap.Error(err))
		return nil, fmt.Errorf("failed to search genius: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to search genius: %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read genius response: %w", err)
	}

	var first, match *Song
	gjson.GetBytes(body, "response.hits").ForEach(func(_, hit gjson.Result) bool {
		if hit.Get("type").String() != "song" {
			return true
		}
		song := &Song{
			Title:  hit.Get("result.title").String(),
			Artist: hit.Get("result.primary_artist.name").String(),
			URL:    hit.Get("result.url").String(),
		}
		if song.URL == "" {
			return true
		}
		if first == nil {
			first = song
		}
		if strings.EqualFold(song.Artist, artist) {
			match = song
			return false
		}
		return true
	})
	if match != nil {
		return match, nil
	}
	return first, nil
}

// Lyrics scrapes the lyric text from a Genius song page.
func (c *Client) Lyrics(ctx context.Context, songURL string) (string, error) {
	doc, err := c.getDocument(ctx, songURL)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0)
	doc.Find(`div[data-lyrics-container="true"]`).Each(func(_ int, s *goquery.Selection) {
		s.Find("br").ReplaceWithHtml("\n")
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		return "", ErrNoLyrics
	}
	return strings.Join(parts, "\n"), nil
}

func (c *Client) getDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(resp.Status)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}
