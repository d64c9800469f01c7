//go:build !windows

package main

import (
	"github.com/pkg/errors"

	"github.com/born-ml/gbq/internal/config"
	"github.com/born-ml/gbq/internal/logger"
)

func newExecutor(s config.Settings, log logger.Logger) (executor, error) {
	switch s.Backend {
	case "cpu", "auto":
		return newCPU(s, log), nil
	case "webgpu":
		return nil, errors.New("webgpu executor is only built on windows")
	default:
		return nil, errors.Errorf("unknown backend %q", s.Backend)
	}
}
