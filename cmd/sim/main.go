package main

import (
	"context"
	"fmt"
	"os"

	"github.com/andresuchdata/serverless-sim/internal/app"
	"github.com/andresuchdata/serverless-sim/internal/config"
	"github.com/andresuchdata/serverless-sim/pkg/logger"
	"github.com/urfave/cli/v2"
)

type ctxKey struct{}

func newLogLevelFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level (debug, info, warn, error)",
		EnvVars: []string{"LOG_LEVEL"},
	}
}

func initApp(c *cli.Context) error {
	cfg := config.Load()
	level := cfg.LogLevel
	if c.IsSet("log-level") {
		level = c.String("log-level")
	}
	logger.SetLevel(level)

	a, err := app.New(c.Context, cfg)
	if err != nil {
		return err
	}

	c.Context = context.WithValue(c.Context, ctxKey{}, a)
	return nil
}

func closeApp(c *cli.Context) error {
	if a, ok := c.Context.Value(ctxKey{}).(*app.App); ok && a != nil {
		return a.Close()
	}
	return nil
}

func appFrom(c *cli.Context) *app.App {
	return c.Context.Value(ctxKey{}).(*app.App)
}

func main() {
	cliApp := &cli.App{
		Name:  "sim",
		Usage: "Serverless file upload & analysis, simulated on the local machine",
		Flags: []cli.Flag{
			newLogLevelFlag(),
		},
		Before: initApp,
		After:  closeApp,
		Commands: []*cli.Command{
			{
				Name:      "upload",
				Usage:     "Upload local files through the simulated API gateway",
				ArgsUsage: "<path> [path...]",
				Action:    runUpload,
			},
			{
				Name:   "demo",
				Usage:  "Upload every sample file once",
				Action: runDemo,
			},
			{
				Name:   "records",
				Usage:  "Show the metadata store records",
				Action: runRecords,
			},
			{
				Name:   "logs",
				Usage:  "Show the event log",
				Action: runLogs,
			},
			{
				Name:  "objects",
				Usage: "List the objects in the bucket",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "prefix", Usage: "Only keys starting with this prefix"},
				},
				Action: runObjects,
			},
			{
				Name:      "invoke",
				Usage:     "Run the analyzer directly on an S3 event JSON file",
				ArgsUsage: "<event.json>",
				Action:    runInvoke,
			},
			{
				Name:   "flush-cache",
				Usage:  "Drop every cached metadata record",
				Action: runFlushCache,
			},
			{
				Name:   "serve",
				Usage:  "Serve the gateway over HTTP",
				Action: runServe,
			},
			{
				Name:   "menu",
				Usage:  "Interactive menu",
				Action: runMenu,
			},
		},
		Action: runMenu,
	}

	if err := cliApp.Run(os.Args); err != nil {
		logger.Log.Error().Err(err).Msg("sim failed")
		os.Exit(1)
	}
}

func runUpload(c *cli.Context) error {
	paths := c.Args().Slice()
	if len(paths) == 0 {
		return cli.Exit("upload requires at least one path", 2)
	}

	a := appFrom(c)
	for _, path := range paths {
		printResponse(os.Stdout, a.Uploads.UploadFile(c.Context, expandHome(path)))
	}
	return nil
}

func runDemo(c *cli.Context) error {
	a := appFrom(c)
	hr(os.Stdout, "RUN DEMO")
	responses, err := a.Uploads.RunDemo(c.Context, a.Config.App.SamplesDir)
	if err != nil {
		return fmt.Errorf("demo failed: %w", err)
	}
	if len(responses) == 0 {
		fmt.Fprintln(os.Stdout, "No sample files found.")
	}
	for _, resp := range responses {
		printResponse(os.Stdout, resp)
	}
	return nil
}

func runRecords(c *cli.Context) error {
	hr(os.Stdout, "DYNAMODB (MOCK) RECORDS")
	return showRecords(c.Context, os.Stdout, appFrom(c))
}

func runLogs(c *cli.Context) error {
	hr(os.Stdout, "LAMBDA LOGS")
	return showLogs(os.Stdout, appFrom(c))
}

func runObjects(c *cli.Context) error {
	hr(os.Stdout, "S3 (MOCK) OBJECTS")
	return showObjects(c.Context, os.Stdout, appFrom(c), c.String("prefix"))
}

func runInvoke(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("invoke requires exactly one event file", 2)
	}
	return invokeFile(c.Context, os.Stdout, appFrom(c), c.Args().First())
}

func runFlushCache(c *cli.Context) error {
	if err := appFrom(c).Uploads.FlushCache(c.Context); err != nil {
		return fmt.Errorf("flush cache: %w", err)
	}
	fmt.Fprintln(os.Stdout, "Record cache flushed.")
	return nil
}

func runServe(c *cli.Context) error {
	return appFrom(c).Serve(c.Context)
}

func runMenu(c *cli.Context) error {
	return newMenu(appFrom(c), os.Stdin, os.Stdout).Run(c.Context)
}
