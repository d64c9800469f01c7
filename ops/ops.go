// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ops exposes the GatherBlockQuantized operator.
//
// GatherBlockQuantized gathers slices of a block-quantized 4-bit tensor and
// dequantizes them on the fly:
//
//	output[i] = outType(q - zero_point[block]) * scales[block]
//
// The output shape is data.shape with the gather axis replaced by
// indices.shape; the output type is the scales type.
//
// Example:
//
//	backend := cpu.New()
//	attrs := ops.Attributes{GatherAxis: 0, QuantizeAxis: 1, BlockSize: 32}
//	out, err := ops.GatherBlockQuantized(ctx, backend,
//	    []*tensor.RawTensor{data, indices, scales, zeroPoint}, attrs, ops.Options{})
package ops

import (
	"context"

	"github.com/born-ml/gbq/internal/gbq"
	"github.com/born-ml/gbq/internal/program"
	"github.com/born-ml/gbq/tensor"
)

// Executor runs kernel descriptors (backend/cpu, backend/webgpu).
type Executor = program.Executor

// Info is a kernel descriptor.
type Info = program.Info

// Attributes configures the gather and quantization axes and the block size.
type Attributes = gbq.Attributes

// Options tunes a single run.
type Options = gbq.Options

// Error is a validation failure, matched with errors.Is against the sentinels below.
type Error = gbq.Error

// Validation sentinels.
var (
	ErrArity            = gbq.ErrArity
	ErrShapeMismatch    = gbq.ErrShapeMismatch
	ErrDatatypeMismatch = gbq.ErrDatatypeMismatch
	ErrAttribute        = gbq.ErrAttribute
	ErrIndexOutOfRange  = gbq.ErrIndexOutOfRange
)

// DefaultAttributes returns gather_axis 0, quantize_axis 1, block_size 128.
func DefaultAttributes() Attributes {
	return gbq.DefaultAttributes()
}

// GatherBlockQuantized validates inputs (data, indices, scales and an
// optional zero point), builds or reuses the kernel descriptor and runs it
// on exec.
func GatherBlockQuantized(ctx context.Context, exec Executor, inputs []*tensor.RawTensor, attrs Attributes, opts Options) (*tensor.RawTensor, error) {
	return gbq.Run(ctx, exec, inputs, attrs, opts)
}

// Build validates inputs and returns the kernel descriptor without running it.
func Build(inputs []*tensor.RawTensor, attrs Attributes) (*Info, error) {
	return gbq.Build(inputs, attrs)
}

// OutputShape returns the shape GatherBlockQuantized produces.
func OutputShape(data, indices tensor.Shape, gatherAxis int) tensor.Shape {
	return gbq.OutputShape(data, indices, gatherAxis)
}
