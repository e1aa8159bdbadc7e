// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

const defaultConfigPath = "config.toml"

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   defaultConfigPath,
	}
}

// processCommand identifies, enriches, and reorganizes a directory of audio files
func processCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "process",
		Aliases: []string{"run"},
		Usage:   "Identify and organize a directory of audio files",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "input",
			},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory the organized copies are written under",
			},
			&cli.StringFlag{
				Name:  "pattern",
				Usage: "Output path pattern, e.g. {artist}/{album}/{track:02d} - {title}",
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Re-run every step and overwrite existing tags",
			},
			&cli.StringFlag{
				Name:  "steps",
				Usage: "Comma-separated pipeline steps to run (identify, metadata, coverart, lyrics)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent workers (default: CPU count)",
			},
			&cli.StringFlag{
				Name:  "lyrics-source",
				Usage: "Lyrics source: combined, lrclib, netease, genius, none",
			},
			&cli.BoolFlag{
				Name:  "tag-fallback",
				Usage: "Fall back to text search when fingerprinting fails",
			},
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "Log progress instead of rendering the progress view",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the run summary as JSON",
			},
		},
		Action: r.ProcessRun,
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP processing API",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind (overrides config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to bind (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// validateCommand checks the external tooling and credentials
func validateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Check fpcalc, API keys, and the output pattern",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output check results as JSON",
			},
		},
		Action: r.ValidateRun,
	}
}

// configCommand manages the configuration file
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration (keys reported as present or absent)",
				Flags:  []cli.Flag{configFlag()},
				Action: r.ConfigShow,
			},
			{
				Name:  "create",
				Usage: "Write a starter config file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Where to write the config file",
						Value:   defaultConfigPath,
					},
				},
				Action: r.ConfigCreate,
			},
		},
	}
}
