package main

import (
	"io"

	"github.com/urfave/cli/v3"

	"github.com/born-ml/gbq/internal/config"
	"github.com/born-ml/gbq/internal/logger"
)

// commonFlags are shared by every command that executes or describes a case.
type commonFlags struct {
	configPath   string
	casePath     string
	backend      string
	workers      int64
	minChunk     int64
	checkIndices bool
	logLevel     string
	logFormat    string
}

func (f *commonFlags) flags() []cli.Flag {
	def := config.DefaultSettings()
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "case",
			Aliases:     []string{"c"},
			Usage:       "path to a YAML case file",
			Destination: &f.casePath,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml",
			Value:       config.DefaultPath(),
			Destination: &f.configPath,
		},
		&cli.StringFlag{
			Name:        config.FlagBackend,
			Usage:       "executor (cpu, webgpu, auto)",
			Value:       def.Backend,
			Destination: &f.backend,
		},
		&cli.Int64Flag{
			Name:        config.FlagWorkers,
			Usage:       "host worker goroutines for the cpu executor",
			Value:       int64(def.Workers),
			Destination: &f.workers,
		},
		&cli.Int64Flag{
			Name:        config.FlagMinChunk,
			Usage:       "minimum workgroups before the cpu executor goes parallel",
			Value:       int64(def.MinChunk),
			Destination: &f.minChunk,
		},
		&cli.BoolFlag{
			Name:        config.FlagCheckIndices,
			Usage:       "reject gather values outside the gathered dimension",
			Destination: &f.checkIndices,
		},
		&cli.StringFlag{
			Name:        config.FlagLogLevel,
			Usage:       "log level (debug, info, warn, error)",
			Value:       def.LogLevel,
			Destination: &f.logLevel,
		},
		&cli.StringFlag{
			Name:        config.FlagLogFormat,
			Usage:       "log format (text, json)",
			Value:       def.LogFormat,
			Destination: &f.logFormat,
		},
	}
}

// settings merges the config file under the explicitly set flags.
func (f *commonFlags) settings(cmd *cli.Command) (config.Settings, error) {
	s := config.Settings{
		Backend:      f.backend,
		Workers:      int(f.workers),
		MinChunk:     int(f.minChunk),
		CheckIndices: f.checkIndices,
		LogLevel:     f.logLevel,
		LogFormat:    f.logFormat,
	}
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return s, err
	}
	cfg.Apply(&s, cmd.IsSet)
	return s, nil
}

func newLogger(w io.Writer, s config.Settings) logger.Logger {
	return logger.Make(w, s.LogFormat, s.LogLevel).With("app", "gbq")
}
