package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"

	"eventcal/internal/store"
)

const (
	AppName    = "eventcal"
	AppVersion = "0.1.0"
)

func main() {
	err := newApp(os.Stdout, os.Stderr).Run(os.Args)
	if err == nil {
		return
	}

	var malformed *store.MalformedStoreError
	if errors.As(err, &malformed) {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		fmt.Fprintf(os.Stderr, "the event store at %s is not a JSON array of events; fix or move it and run again\n", malformed.Path)
		os.Exit(2)
	}
	fmt.Fprintf(os.Stderr, "error: %s\n", err)
	os.Exit(1)
}

func newApp(stdout, stderr io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = AppName
	app.Usage = "Event calendar dashboard backed by a JSON file"
	app.Version = AppVersion
	app.Writer = stdout
	app.ErrWriter = stderr
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path to config file (default $EVENTCAL_CONFIG or ./config.yaml)",
		},
		&cli.StringFlag{
			Name:  "data",
			Usage: "Path to the event store (overrides config)",
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: "Store backend: json or bolt (overrides config)",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Output debug messages",
		},
	}
	app.Before = setup
	app.Commands = []cli.Command{
		ServeCmd,
		ListCmd,
		AddCmd,
		UpdateCmd,
		DeleteCmd,
		DoneCmd,
		UndoCmd,
		StatsCmd,
		AnalyticsCmd,
		ImportCmd,
		ExportCmd,
		ExportICSCmd,
		SeedCmd,
	}
	return app
}
