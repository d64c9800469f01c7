package main

import (
	"github.com/born-ml/gbq/internal/backend/cpu"
	"github.com/born-ml/gbq/internal/config"
	"github.com/born-ml/gbq/internal/logger"
	"github.com/born-ml/gbq/internal/program"
)

// executor is a program.Executor the CLI owns and releases.
type executor interface {
	program.Executor
	Name() string
	Release()
}

func newCPU(s config.Settings, log logger.Logger) executor {
	return cpu.New(cpu.WithParallel(s.Parallel()), cpu.WithLogger(log))
}
