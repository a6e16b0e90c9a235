package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang/glog"
	"github.com/praxis-health/praxis/internal/signals"
	"github.com/praxis-health/praxis/internal/version"
	"github.com/urfave/cli/v2"
)

func main() {
	// glog registers its flags with the standard library's flag package. They
	// are driven from the praxis flags instead of from the command line.
	flag.CommandLine.Parse([]string{}) // nolint: errcheck
	defer glog.Flush()

	// -v belongs to --verbose
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version",
		Usage: "Print the version",
	}

	app := cli.NewApp()
	app.Name = "praxis"
	app.Usage = "Manage clients, calendar events, and mobility scans"
	app.Version = fmt.Sprintf(
		"%s -- commit %s",
		version.Version(),
		version.Commit(),
	)
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    flagInsecure,
			Aliases: []string{"k"},
			Usage:   "Allow insecure API server connections when using TLS",
		},
		&cli.IntFlag{
			Name:    flagVerbose,
			Aliases: []string{"v"},
			Usage:   "Log verbosity; 1 logs session and scan activity, 2 logs every status poll",
		},
	}
	app.Before = configureLogging
	app.Commands = []*cli.Command{
		clientCommand,
		eventCommand,
		loginCommand,
		logoutCommand,
		registerCommand,
		scanCommand,
		whoamiCommand,
	}
	fmt.Println()
	if err := app.RunContext(signals.Context(), os.Args); err != nil {
		glog.Flush()
		fmt.Printf("\n%s\n\n", err)
		os.Exit(1)
	}
	fmt.Println()
}

func configureLogging(c *cli.Context) error {
	if err := flag.Set("logtostderr", "true"); err != nil {
		return err
	}
	return flag.Set("v", strconv.Itoa(c.Int(flagVerbose)))
}
