package main

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"

	"github.com/born-ml/gbq/internal/gbq"
	"github.com/born-ml/gbq/internal/logger"
	"github.com/born-ml/gbq/internal/onnx/operators"
	"github.com/born-ml/gbq/internal/tensor"
)

// result is the JSON form of an output tensor.
type result struct {
	Backend string          `json:"backend"`
	DType   tensor.DataType `json:"dtype"`
	Shape   tensor.Shape    `json:"shape"`
	Values  []float32       `json:"values"`
}

func runCmd(stdout, stderr io.Writer) *cli.Command {
	var f commonFlags

	return &cli.Command{
		Name:  "run",
		Usage: "Execute a case file and print the gathered output as JSON",
		Flags: f.flags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := f.settings(cmd)
			if err != nil {
				return err
			}
			log := newLogger(stderr, s).With("cmd", "run")

			c, err := loadCase(f.casePath)
			if err != nil {
				return err
			}
			inputs, err := c.inputs()
			if err != nil {
				return err
			}

			exec, err := newExecutor(s, log)
			if err != nil {
				return err
			}
			defer exec.Release()
			log.Info("executing", "case", f.casePath, "backend", exec.Name())

			ec := &operators.Context{
				Executor: exec,
				Options:  gbq.Options{CheckIndices: s.CheckIndices},
			}
			ctx = logger.WithContext(ctx, log)
			outs, err := operators.NewRegistry().Execute(ctx, ec, c.node(), inputs)
			if err != nil {
				return err
			}

			res := result{
				Backend: exec.Name(),
				DType:   outs[0].DType(),
				Shape:   outs[0].Shape(),
				Values:  outs[0].Floats(),
			}
			out, err := json.Marshal(res)
			if err != nil {
				return errors.Wrap(err, "encoding output")
			}
			_, err = fmt.Fprintln(stdout, string(out))
			return err
		},
	}
}
