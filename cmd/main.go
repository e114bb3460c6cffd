package main

import (
	"fmt"
	"os"
	"time"

	"fortio.org/log"
	"github.com/smarthome-go/hmsconsole/console"
	"github.com/urfave/cli/v2"
)

const programName = "hmsconsole"
const version = "latest"

func fileValidator(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return fmt.Errorf("Expected exactly one argument <file>")
	}
	return nil
}

// Loads the config file (if any) and applies the global flags on top of it.
func configFromFlags(ctx *cli.Context) (console.Config, error) {
	config := console.DefaultConfig()

	if path := ctx.String("config"); path != "" {
		loaded, err := console.LoadConfig(path)
		if err != nil {
			return console.Config{}, err
		}
		config = loaded
	}

	if ctx.IsSet("return-mode") {
		mode, err := console.ParseReturnMode(ctx.String("return-mode"))
		if err != nil {
			return console.Config{}, err
		}
		config.ReturnMode = mode
	}

	if ctx.IsSet("feature") {
		config.Features = append(config.Features, ctx.StringSlice("feature")...)
		if _, err := config.Flags(); err != nil {
			return console.Config{}, err
		}
	}

	if ctx.IsSet("log-level") {
		config.LogLevel = ctx.String("log-level")
	}

	if ctx.IsSet("no-quiet") {
		config.QuietTrailingSemicolon = !ctx.Bool("no-quiet")
	}

	return config, nil
}

func setupLogging(config console.Config) error {
	log.SetDefaultsForClientTools()

	level, err := log.ValidateLevel(config.LogLevel)
	if err != nil {
		return err
	}
	log.SetLogLevel(level)

	return nil
}

func main() {
	// nolint:exhaustruct
	app := &cli.App{
		Name:     programName,
		Version:  version,
		Usage:    "An interactive console for Homescript",
		Compiled: time.Now(),
		Authors: []*cli.Author{
			{
				Name:  "The Smarthome Authors",
				Email: "",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path of a YAML config file",
				Aliases: []string{"c"},
				EnvVars: []string{"HMSCONSOLE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "return-mode",
				Usage:   "Which value a fragment yields: `last_expr`, `last_expr_or_assign` or `none`",
				Aliases: []string{"m"},
			},
			&cli.StringSliceFlag{
				Name:    "feature",
				Usage:   "Enable a language feature from the start (repeatable)",
				Aliases: []string{"f"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, verbose, info, warning, error)",
				Aliases: []string{"l"},
			},
			&cli.BoolFlag{
				Name:  "no-quiet",
				Usage: "Do not suppress the result of fragments ending in `;`",
			},
		},
		Before: func(ctx *cli.Context) error {
			config, err := configFromFlags(ctx)
			if err != nil {
				return err
			}
			return setupLogging(config)
		},
		Action: func(ctx *cli.Context) error {
			config, err := configFromFlags(ctx)
			if err != nil {
				return err
			}
			return runREPL(ctx.Context, config)
		},
		Commands: []*cli.Command{
			{
				Name:  "repl",
				Usage: "Start the interactive console",
				Action: func(ctx *cli.Context) error {
					config, err := configFromFlags(ctx)
					if err != nil {
						return err
					}
					return runREPL(ctx.Context, config)
				},
			},
			{
				Name:      "run",
				Usage:     "Run a Homescript file as a single fragment and print its result",
				ArgsUsage: "[file]",
				Args:      true,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "dump",
						Usage:   "If set, the transformed tree and the compiled program are dumped",
						Aliases: []string{"d"},
					},
					&cli.BoolFlag{
						Name:  "sync",
						Usage: "Use the synchronous entry point, `await` outside of functions is rejected",
					},
				},
				Before: fileValidator,
				Action: func(ctx *cli.Context) error {
					config, err := configFromFlags(ctx)
					if err != nil {
						return err
					}
					return runFile(ctx.Context, config, ctx.Args().First(), ctx.Bool("dump"), !ctx.Bool("sync"))
				},
			},
			{
				Name:      "imports",
				Usage:     "List the root modules imported by a Homescript file",
				ArgsUsage: "[file]",
				Args:      true,
				Before:    fileValidator,
				Action: func(ctx *cli.Context) error {
					return listImports(ctx.Args().First())
				},
			},
			{
				Name:      "tokens",
				Usage:     "Print the tokens of a Homescript file",
				ArgsUsage: "[file]",
				Args:      true,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "trivia",
						Usage:   "Include comments and non-logical newlines",
						Aliases: []string{"t"},
					},
				},
				Before: fileValidator,
				Action: func(ctx *cli.Context) error {
					return listTokens(ctx.Args().First(), ctx.Bool("trivia"))
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("%s", err)
	}
}
