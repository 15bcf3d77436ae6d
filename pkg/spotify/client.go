package spotify

import (
	"context"
	"fmt"
	"sync"

	"github.com/gcottom/go-zaplog"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Client is a read-only catalog client authenticated with client
// credentials. The underlying API client is rebuilt whenever the cached
// token expires.
type Client struct {
	Config *clientcredentials.Config

	mu     sync.Mutex
	token  *oauth2.Token
	client *spotify.Client
}

func NewClient(clientID, clientSecret string) *Client {
	return &Client{Config: &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}}
}

func (c *Client) api(ctx context.Context) (*spotify.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil && c.token.Valid() {
		return c.client, nil
	}
	token, err := c.Config.Token(ctx)
	if err != nil {
		zaplog.ErrorC(ctx, "failed to get spotify token", zap.Error(err))
		return nil, fmt.Errorf("failed to get spotify token: %w", err)
	}
	authClient := spotifyauth.New().Client(ctx, token)
	c.token = token
	c.client = spotify.New(authClient)
	return c.client, nil
}

func (c *Client) FirstPage(ctx context.Context, playlistID string) (*spotify.PlaylistItemPage, error) {
	client, err := c.api(ctx)
	if err != nil {
		return nil, err
	}
	zaplog.InfoC(ctx, "getting playlist items", zap.String("playlistID", playlistID))
	return client.GetPlaylistItems(ctx, spotify.ID(playlistID))
}

// NextPage advances page in place; it returns spotify.ErrNoMorePages after
// the last page.
func (c *Client) NextPage(ctx context.Context, page *spotify.PlaylistItemPage) error {
	client, err := c.api(ctx)
	if err != nil {
		return err
	}
	return client.NextPage(ctx, page)
}

// Ping verifies the credentials with a single one-result search.
func (c *Client) Ping(ctx context.Context) error {
	client, err := c.api(ctx)
	if err != nil {
		return err
	}
	if _, err = client.Search(ctx, "test", spotify.SearchTypeTrack, spotify.Limit(1)); err != nil {
		zaplog.ErrorC(ctx, "failed to search spotify", zap.Error(err))
		return fmt.Errorf("failed to search spotify: %w", err)
	}
	return nil
}
