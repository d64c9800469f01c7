//go:build windows

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU executor for kernel descriptors.
//
// WebGPU is a cross-platform graphics and compute API that works on:
//   - Windows (via Dawn/D3D12)
//   - macOS (via Dawn/Metal)
//   - Linux (via Dawn/Vulkan)
//
// Example:
//
//	import (
//	    "github.com/born-ml/gbq/backend/webgpu"
//	    "github.com/born-ml/gbq/ops"
//	)
//
//	func main() {
//	    gpu, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Release()
//
//	    out, err := ops.GatherBlockQuantized(ctx, gpu, inputs, attrs, ops.Options{})
//	}
package webgpu

import (
	internalwebgpu "github.com/born-ml/gbq/internal/backend/webgpu"
	"github.com/born-ml/gbq/internal/logger"
	"github.com/born-ml/gbq/ops"
)

// Backend represents the WebGPU executor.
type Backend = internalwebgpu.Backend

// Option configures a Backend.
type Option = internalwebgpu.Option

// Compile-time check that Backend implements ops.Executor.
var _ ops.Executor = (*Backend)(nil)

// New creates a new WebGPU backend.
//
// This function initializes the WebGPU device and returns a backend
// ready to run descriptors. Call Release() when done to free GPU resources.
//
// Returns an error if WebGPU initialization fails (e.g., no compatible GPU).
// Float16 outputs are rejected at Run time: the device is requested
// without the shader-f16 feature.
func New(opts ...Option) (*Backend, error) {
	return internalwebgpu.New(opts...)
}

// WithLogger sets the structured logger dispatches are reported to.
func WithLogger(log logger.Logger) Option {
	return internalwebgpu.WithLogger(log)
}

// IsAvailable checks if WebGPU is available on the current system.
//
// Example:
//
//	var exec ops.Executor = cpu.New()
//	if webgpu.IsAvailable() {
//	    if gpu, err := webgpu.New(); err == nil {
//	        exec = gpu
//	    }
//	}
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
