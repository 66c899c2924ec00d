// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the configuration file, initialize the plan database or log in to Spotify",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a configuration file from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the plan database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "spotify",
				Usage: "Authorize dzx against Spotify and store the tokens in the config file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the consent URL instead of opening a browser",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser redirect",
						Value: 2 * time.Minute,
					},
				},
				Action: r.SetupSpotify,
			},
		},
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List the source user's Deezer playlists",
		Flags: []cli.Flag{
			userFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Playlists,
	}
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export selected Deezer playlists to an interchange JSON file",
		Flags: append(selectionFlags(),
			userFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (default deezerPlaylists_<HH_MM_SS>.json)",
			},
		),
		Action: r.Export,
	}
}

func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Reconcile an interchange file against the destination",
		ArgsUsage: "FILE",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "file",
			},
		},
		Flags:  engineFlags(),
		Action: r.Import,
	}
}

func transferCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "transfer",
		Usage:  "Export selected Deezer playlists and import them without an intermediate file",
		Flags:  append(append(selectionFlags(), userFlag()), engineFlags()...),
		Action: r.Transfer,
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the destination and show how each candidate scores",
		ArgsUsage: "QUERY",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Search,
	}
}

func plansCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "plans",
		Usage: "Inspect persisted plans and commit them later",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List persisted plans",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "status",
						Usage: "Filter by status (planned, committed, failed)",
					},
					&cli.StringFlag{
						Name:  "playlist",
						Usage: "Filter by playlist name",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlansList,
			},
			{
				Name:      "show",
				Usage:     "Show a plan's match results",
				ArgsUsage: "ID|SEQUENCE",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "markdown",
						Usage: "Output a Markdown report",
					},
					&cli.BoolFlag{
						Name:  "skipped",
						Usage: "Only show unmatched tracks",
					},
				},
				Action: r.PlansShow,
			},
			{
				Name:      "commit",
				Usage:     "Create the destination playlist from a planned or failed plan",
				ArgsUsage: "ID|SEQUENCE",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.PlansCommit,
			},
		},
	}
}

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "user",
		Aliases: []string{"u"},
		Usage:   "Deezer user ID (default source.deezer.user_id)",
	}
}

func selectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "playlist",
			Aliases: []string{"p"},
			Usage:   "Deezer playlist ID to include (repeatable)",
		},
		&cli.BoolFlag{
			Name:  "all",
			Usage: "Include every playlist",
		},
		&cli.BoolFlag{
			Name:  "select",
			Usage: "Choose playlists interactively",
		},
	}
}

func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "commit",
			Usage: "Create playlists on the destination (default engine.commit)",
		},
		&cli.IntFlag{
			Name:  "min-confidence",
			Usage: "Score a candidate must exceed to match (default engine.min_confidence)",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Concurrent destination searches (default engine.workers)",
		},
		&cli.StringFlag{
			Name:  "ids-dir",
			Usage: "Directory for the per-plan matched id list (default engine.ids_dir, empty disables)",
		},
		&cli.StringFlag{
			Name:  "report-dir",
			Usage: "Write .ids, .json and _skipped.csv reports for each plan to this directory",
		},
	}
}
