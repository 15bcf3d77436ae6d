package main

import (
	"context"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/gcottom/go-zaplog"
	"github.com/gcottom/playlist-dl/config"
	"github.com/spf13/cobra"
)

// askQuestions is swapped in tests.
var askQuestions = survey.Ask

type credentialAnswers struct {
	ClientID     string `survey:"client_id"`
	ClientSecret string `survey:"client_secret"`
	GeniusToken  string `survey:"genius_token"`
}

func newConfigureCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Prompt for the Spotify and Genius API keys and save them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := zaplog.CreateAndInject(cmd.Context())
			cfg, err := config.LoadConfigFromFile(opts.ConfigPath)
			if err != nil {
				return err
			}
			if err = promptCredentials(cfg); err != nil {
				return err
			}
			if err = config.SaveConfigToFile(opts.ConfigPath, cfg); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "API keys saved to", opts.ConfigPath)

			_, pinger := buildDeps(cfg)
			if pinger == nil {
				return nil
			}
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			defer cancel()
			if err = pinger.Ping(pingCtx); err != nil {
				color.New(color.FgYellow).Fprintln(cmd.OutOrStdout(), "Spotify connection test failed:", err)
				return nil
			}
			color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "Spotify connection OK")
			return nil
		},
	}
}

// promptCredentials asks for the API keys. Leaving a secret blank keeps the
// value already in cfg.
func promptCredentials(cfg *config.Config) error {
	secret := &survey.Question{
		Name:   "client_secret",
		Prompt: &survey.Password{Message: "Spotify Client Secret:"},
	}
	if cfg.SpotifyClientSecret == "" {
		secret.Validate = survey.Required
	}
	qs := []*survey.Question{
		{
			Name:      "client_id",
			Prompt:    &survey.Input{Message: "Spotify Client ID:", Default: cfg.SpotifyClientID},
			Validate:  survey.Required,
			Transform: survey.TransformString(strings.TrimSpace),
		},
		secret,
		{
			Name:   "genius_token",
			Prompt: &survey.Password{Message: "Genius API Token (optional, enables lyrics):"},
		},
	}
	var answers credentialAnswers
	if err := askQuestions(qs, &answers); err != nil {
		return err
	}
	cfg.SpotifyClientID = strings.TrimSpace(answers.ClientID)
	if v := strings.TrimSpace(answers.ClientSecret); v != "" {
		cfg.SpotifyClientSecret = v
	}
	if v := strings.TrimSpace(answers.GeniusToken); v != "" {
		cfg.GeniusToken = v
	}
	return nil
}
