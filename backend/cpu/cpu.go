// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/gbq/internal/backend/cpu"
	"github.com/born-ml/gbq/internal/logger"
	"github.com/born-ml/gbq/internal/parallel"
	"github.com/born-ml/gbq/ops"
)

// Backend represents the CPU executor.
//
// The CPU executor runs the kernel descriptor's per-invocation formula on
// host goroutines, one workgroup at a time.
type Backend = internalcpu.CPUBackend

// Option configures a Backend.
type Option = internalcpu.Option

// Compile-time check that Backend implements ops.Executor.
var _ ops.Executor = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	import (
//	    "github.com/born-ml/gbq/backend/cpu"
//	    "github.com/born-ml/gbq/ops"
//	)
//
//	func main() {
//	    backend := cpu.New(cpu.WithWorkers(4))
//	    out, err := ops.GatherBlockQuantized(ctx, backend, inputs, attrs, ops.Options{})
//	}
func New(opts ...Option) *Backend {
	return internalcpu.New(opts...)
}

// WithWorkers sets the number of goroutines workgroups are spread over.
// n <= 1 runs every workgroup on the calling goroutine.
func WithWorkers(n int) Option {
	cfg := parallel.DefaultConfig()
	cfg.Enabled = n > 1
	cfg.NumWorkers = n
	return internalcpu.WithParallel(cfg)
}

// WithLogger sets the structured logger dispatches are reported to.
func WithLogger(log logger.Logger) Option {
	return internalcpu.WithLogger(log)
}
