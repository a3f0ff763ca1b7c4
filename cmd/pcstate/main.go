package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/atlanticdynamic/pcstate/internal/logging"
	"github.com/urfave/cli/v3"
)

// Version is set during build using ldflags
var Version = "dev"

func newApp() *cli.Command {
	var logOut io.WriteCloser

	return &cli.Command{
		Name:    "pcstate",
		Version: Version,
		Usage:   "Inspect and exercise the managed-object lifecycle",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "Log level (trace, debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Value: "text",
				Usage: "Log format (text, json)",
			},
			&cli.StringFlag{
				Name:  "log-output",
				Value: "stderr",
				Usage: "Log destination (stderr, stdout or a file path)",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			w, err := logging.OpenOutput(cmd.String("log-output"))
			if err != nil {
				return ctx, err
			}
			logOut = w
			handler := logging.SetupHandler(cmd.String("log-format"), cmd.String("log-level"), w)
			slog.SetDefault(slog.New(handler))
			return context.WithValue(ctx, logOutputKey{}, io.Writer(w)), nil
		},
		After: func(ctx context.Context, cmd *cli.Command) error {
			if logOut == nil {
				return nil
			}
			return logOut.Close()
		},
		Commands: []*cli.Command{
			newVersionCmd(),
			newStatesCmd(),
			newTransitionsCmd(),
			newWalkCmd(),
			newValidateCmd(),
			newDemoCmd(),
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
