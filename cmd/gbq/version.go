package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/urfave/cli/v3"
)

// version is overridden at link time with -ldflags "-X main.version=...".
var version = "v0.0.1-dev"

func versionCmd(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, _ = fmt.Fprintf(stdout, "version:    %s\n", version)
			_, _ = fmt.Fprintf(stdout, "go:         %s\n", runtime.Version())
			if info, ok := debug.ReadBuildInfo(); ok {
				for _, s := range info.Settings {
					if s.Key == "vcs.revision" {
						_, _ = fmt.Fprintf(stdout, "commit:     %s\n", s.Value)
					}
				}
			}
			return nil
		},
	}
}
