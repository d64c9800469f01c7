//go:build windows

package main

import (
	"github.com/pkg/errors"

	"github.com/born-ml/gbq/internal/backend/webgpu"
	"github.com/born-ml/gbq/internal/config"
	"github.com/born-ml/gbq/internal/logger"
)

func newExecutor(s config.Settings, log logger.Logger) (executor, error) {
	switch s.Backend {
	case "cpu":
		return newCPU(s, log), nil
	case "auto":
		if !webgpu.IsAvailable() {
			log.Warn("webgpu unavailable, falling back to cpu")
			return newCPU(s, log), nil
		}
		fallthrough
	case "webgpu":
		b, err := webgpu.New(webgpu.WithLogger(log))
		if err != nil {
			return nil, errors.Wrap(err, "creating webgpu executor")
		}
		return b, nil
	default:
		return nil, errors.Errorf("unknown backend %q", s.Backend)
	}
}
