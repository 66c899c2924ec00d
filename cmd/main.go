package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/dzx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := runner.app().Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrLocked) {
			logger.Warn("commit skipped", "error", err)
			os.Exit(2)
		}
		logger.Fatalf("application error: %v", err)
	}
}

func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "dzx",
		Usage:   "Reconcile Deezer playlists against Spotify or YouTube Music",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   shared.DefaultConfigPath(),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before:   r.before,
		After:    r.after,
		Commands: r.register(),
	}
}
