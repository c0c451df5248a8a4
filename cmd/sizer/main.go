// Sizer is the offline companion of the Taylor backend.
//
// Usage:
//
//	sizer normalize --file chart.xlsx [--header-row 2] [--output json]
//	sizer recommend --file chart.csv --chest-around 94 [--profile me.toml] [--output json]
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "sizer",
		Usage:   "Normalize merchant size charts and recommend a size from body measurements",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"TAYLOR_LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			normalizeCommand(),
			recommendCommand(),
		},
	}
}
