// Package cpu implements the host executor: every kernel descriptor runs as
// fixed-size groups of invocations spread over worker goroutines.
package cpu

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/born-ml/gbq/internal/logger"
	"github.com/born-ml/gbq/internal/parallel"
	"github.com/born-ml/gbq/internal/program"
	"github.com/born-ml/gbq/internal/tensor"
)

// CPUBackend executes kernel descriptors on the host.
type CPUBackend struct {
	device   tensor.Device
	programs *program.Manager
	parallel parallel.Config
	log      logger.Logger
}

// Option configures a CPUBackend.
type Option func(*CPUBackend)

// WithParallel sets the worker configuration.
func WithParallel(cfg parallel.Config) Option {
	return func(cpu *CPUBackend) {
		cpu.parallel = cfg
	}
}

// WithLogger sets the logger used for dispatches and descriptor builds.
func WithLogger(log logger.Logger) Option {
	return func(cpu *CPUBackend) {
		if log != nil {
			cpu.log = log
		}
	}
}

// New creates a new CPU backend with its own descriptor cache.
func New(opts ...Option) *CPUBackend {
	cpu := &CPUBackend{
		device:   tensor.CPU,
		parallel: parallel.DefaultConfig(),
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(cpu)
	}
	cpu.log = cpu.log.With("backend", "cpu")
	cpu.programs = program.NewManager(cpu.log)
	return cpu
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Programs returns the descriptor cache owned by this backend.
func (cpu *CPUBackend) Programs() *program.Manager {
	return cpu.programs
}

// Run allocates the output, binds the kernel and dispatches every group.
func (cpu *CPUBackend) Run(ctx context.Context, info *program.Info, inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "cpu")
	}
	if info.Kernel == nil {
		return nil, errors.Errorf("cpu: program %s has no kernel", info.Name)
	}
	if err := info.CheckInputs(inputs); err != nil {
		return nil, errors.Wrap(err, "cpu")
	}

	out, err := tensor.NewRaw(info.Output.Shape, info.Output.DType, cpu.device)
	if err != nil {
		return nil, errors.Wrapf(err, "cpu: allocate %s output", info.Name)
	}
	invoke, err := info.Kernel.Bind(info.Uniforms, inputs, out)
	if err != nil {
		return nil, errors.Wrapf(err, "cpu: bind %s", info.Name)
	}

	cpu.log.Debug("dispatch",
		"id", uuid.NewString(),
		"program", info.Name,
		"groups", info.GroupCount(),
		"workgroup_size", info.WorkgroupSize,
		"output_size", info.OutputSize())
	parallel.Dispatch(info.GroupCount(), int(info.WorkgroupSize), invoke, cpu.parallel)
	return out, nil
}

// Release drops the descriptor cache. The backend cannot run programs afterwards.
func (cpu *CPUBackend) Release() {
	cpu.programs.Release()
}
