// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// fetchCommand resolves lyrics for a single song
func fetchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "fetch",
		Aliases: []string{"get"},
		Usage:   "Resolve lyrics for a song through the TTPlayer mirrors",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "artist",
				Aliases: []string{"a"},
				Usage:   "Artist name",
			},
			&cli.StringFlag{
				Name:    "title",
				Aliases: []string{"t"},
				Usage:   "Song title",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Skip the cache lookup",
			},
			&cli.BoolFlag{
				Name:  "print",
				Usage: "Print the first accepted payload",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Fetch,
	}
}

// batchCommand resolves lyrics for every song listed in a CSV file
func batchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Resolve lyrics for songs listed in a CSV file (artist,title)",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "path"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent sessions",
				Value: 4,
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Sessions started per second",
				Value: 2,
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Skip the cache lookup",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Batch,
	}
}

// lyricsCommand handles stored lyrics
func lyricsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "lyrics",
		Usage: "Browse and export stored lyrics",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List stored lyrics",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Filter by artist",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Filter by title",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of rows",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.LyricsList,
			},
			{
				Name:  "show",
				Usage: "Print stored lyrics by ID",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (lrc, txt, json)",
						Value:   "lrc",
					},
				},
				Action: r.LyricsShow,
			},
			{
				Name:  "export",
				Usage: "Write stored lyrics to files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Only export this artist",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Only export this title",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (lrc, txt, json, csv)",
						Value:   "lrc",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory",
						Value:   "lyrics",
					},
				},
				Action: r.LyricsExport,
			},
			{
				Name:    "delete",
				Aliases: []string{"rm"},
				Usage:   "Delete stored lyrics by ID",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.LyricsDelete,
			},
		},
	}
}

// historyCommand lists past resolution sessions
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show resolution history",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "status",
				Usage: "Filter by status (completed, failed, aborted, cached)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of rows",
				Value: 20,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (table, json, csv)",
				Value:   "table",
			},
		},
		Action: r.History,
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve stored lyrics and resolutions over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: server.host:server.port)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the health endpoint in a browser",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Write request logs to this file instead of stderr",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for the database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "status",
				Usage:  "Show applied migrations",
				Action: r.SetupStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the latest migration",
				Action: r.SetupRollback,
			},
			{
				Name:  "config",
				Usage: "Write the default configuration file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "print",
						Usage: "Print the effective configuration instead",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "headers",
				Usage: "Capture request headers for the mirrors from a browser cURL command",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output path (default: provider.headers_file or ./headers.sh)",
					},
				},
				Action: r.SetupHeaders,
			},
		},
	}
}

// cacheCommand manages the on-disk lyric cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and clear the lyric cache",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show cached payloads for a song",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "artist",
						Aliases:  []string{"a"},
						Usage:    "Artist name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Song title",
						Required: true,
					},
				},
				Action: r.CacheShow,
			},
			{
				Name:  "delete",
				Usage: "Remove the cache entry for a song",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "artist",
						Aliases:  []string{"a"},
						Usage:    "Artist name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Song title",
						Required: true,
					},
				},
				Action: r.CacheDelete,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cache entry",
				Action: r.CacheClear,
			},
		},
	}
}

// debugCommand exposes the URL encoders and token generator
func debugCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "debug",
		Usage:  "Inspect provider URL encoding",
		Hidden: true,
		Commands: []*cli.Command{
			{
				Name:  "hex",
				Usage: "Print UTF-8 and UTF-16LE hex forms of text",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "text"},
				},
				Action: r.DebugHex,
			},
			{
				Name:  "token",
				Usage: "Compute the retrieval token for a candidate",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "artist",
						Aliases:  []string{"a"},
						Usage:    "Candidate artist",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Candidate title",
						Required: true,
					},
					&cli.Int64Flag{
						Name:     "id",
						Usage:    "Candidate id",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "host",
						Usage: "Print the full retrieval URL for this mirror",
					},
				},
				Action: r.DebugToken,
			},
			{
				Name:  "url",
				Usage: "Print the discovery URL for a song",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "artist",
						Aliases:  []string{"a"},
						Usage:    "Artist name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Song title",
						Required: true,
					},
				},
				Action: r.DebugURL,
			},
		},
	}
}
