package handlers

import "github.com/gin-gonic/gin"

type Failure struct {
	Error string `json:"error"`
}

type AckResponse struct {
	State string `json:"state"`
}

type FetchRequest struct {
	URL string `json:"url"`
}

type CredentialsRequest struct {
	SpotifyClientID     string `json:"spotify_client_id"`
	SpotifyClientSecret string `json:"spotify_client_secret"`
	GeniusToken         string `json:"genius_api_token"`
}

type CredentialsResponse struct {
	Saved         bool   `json:"saved"`
	LyricsEnabled bool   `json:"lyrics_enabled"`
	Warning       string `json:"warning,omitempty"`
}

func ResponseFailure(ctx *gin.Context, err error) {
	ctx.AbortWithStatusJSON(statusFor(err), Failure{Error: err.Error()})
}

func ResponseInternalError(ctx *gin.Context, err error) {
	ctx.AbortWithStatusJSON(500, Failure{Error: err.Error()})
}

func ResponseAccepted(ctx *gin.Context, data any) {
	ctx.JSON(202, data)
}

func ResponseSuccess(ctx *gin.Context, data any) {
	ctx.JSON(200, data)
}
