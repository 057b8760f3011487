package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"

	"github.com/meenmo/mcurve/cmd/mcurve/internal/calibrate"
	"github.com/meenmo/mcurve/cmd/mcurve/internal/delta"
)

var (
	version = "v0.0.1-default"
	commit  = ""
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := newApp(stdin, stdout, stderr)
	err := app.Run(context.Background(), append([]string{app.Name}, args...))
	if err == nil {
		return 0
	}
	var exit cli.ExitCoder
	if errors.As(err, &exit) {
		return exit.ExitCode()
	}
	fmt.Fprintln(stderr, err)
	return 2
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "mcurve",
		Version:   fmt.Sprintf("%s (%s)", version, commit),
		Usage:     "Multi-curve calibration and bucketed delta",
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		// exit codes are returned by run, never by os.Exit
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Commands: []*cli.Command{
			calibrate.Command(stdout),
			delta.Command(stdin, stdout),
		},
		Action: func(_ context.Context, c *cli.Command) error {
			if c.Args().Present() {
				fmt.Fprintf(stderr, "unknown command %q\n\n", c.Args().First())
			}
			_ = cli.ShowAppHelp(c)
			return cli.Exit("", 2)
		},
	}
}
