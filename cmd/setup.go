package main

import (
	"context"
	"fmt"
	"net/url"

	"github.com/desertthunder/dzx/internal/catalog"
	"github.com/desertthunder/dzx/internal/server"
	"github.com/desertthunder/dzx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the configuration template to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if r.configPath == "" {
		return fmt.Errorf("%w: config path", shared.ErrMissingArgument)
	}

	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", r.configPath)
	r.writePlain("✓ Configuration written to %s\n", r.configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set source.deezer.user_id to your Deezer user ID\n")
	r.writePlain("2. Fill in destination credentials and pick destination.service\n")
	r.writePlain("3. Run 'dzx setup database'\n")
	return nil
}

// SetupDatabase initializes the plan database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	if _, err := r.planStore(); err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	r.writePlain("✓ Plan database ready at %s\n", r.config.Database.Path)
	return nil
}

// SetupSpotify runs the authorization code flow against a local callback listener and saves the issued tokens.
func (r *Runner) SetupSpotify(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Destination.Spotify
	dst, err := catalog.NewSpotifyDestination(creds.Map(), creds.RateLimit)
	if err != nil {
		return fmt.Errorf("%w: set destination.spotify.client_id and client_secret first", err)
	}

	oauthConfig := dst.OAuthConfig()
	redirect, err := url.Parse(oauthConfig.RedirectURL)
	if err != nil || redirect.Host == "" {
		return fmt.Errorf("%w: redirect_url %q", shared.ErrInvalidConfig, oauthConfig.RedirectURL)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("failed to generate state token: %w", err)
	}

	handler := server.NewOAuthHandler(oauthConfig, state)
	callback, err := server.StartCallback(redirect.Host, handler, r.logger)
	if err != nil {
		return err
	}

	authURL := dst.AuthCodeURL(state)
	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	} else if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		r.writePlain("⚠ Could not open a browser. Open this URL instead:\n%s\n\n", authURL)
	} else {
		r.writePlainln("→ Opened the Spotify consent page in your browser")
	}

	timeout := cmd.Duration("timeout")
	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	token, err := callback.Wait(waitCtx)
	if err != nil {
		return err
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	r.logger.Info("spotify tokens saved", "path", r.configPath)
	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n", r.configPath)
	return nil
}
