package main

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"

	"github.com/born-ml/gbq/internal/gbq"
)

func inspectCmd(stdout, stderr io.Writer) *cli.Command {
	var (
		f        commonFlags
		showWGSL bool
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Print the kernel descriptor built for a case file",
		Flags: append(f.flags(),
			&cli.BoolFlag{Name: "wgsl", Usage: "also print the WGSL shader", Value: true, Destination: &showWGSL},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := f.settings(cmd)
			if err != nil {
				return err
			}
			log := newLogger(stderr, s).With("cmd", "inspect")

			c, err := loadCase(f.casePath)
			if err != nil {
				return err
			}
			inputs, err := c.inputs()
			if err != nil {
				return err
			}
			info, err := gbq.Build(inputs, c.attributes())
			if err != nil {
				return err
			}
			log.Debug("descriptor built", "cache_key", info.CacheKey)

			out, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return errors.Wrap(err, "encoding descriptor")
			}
			if _, err := fmt.Fprintln(stdout, string(out)); err != nil {
				return err
			}
			if showWGSL {
				_, err = fmt.Fprintln(stdout, info.Kernel.WGSL(info.WorkgroupSize))
			}
			return err
		},
	}
}
