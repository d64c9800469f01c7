// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the tensor descriptors consumed by the quantized gather operator.
//
// # Overview
//
// A RawTensor owns a little-endian byte buffer together with its shape,
// data type and device. This package provides:
//   - Typed constructors (FromSlice, FromNibbles, FromBytes, NewRaw)
//   - Packed 4-bit types (Int4, Uint4), two lanes per byte, low nibble first
//   - Float16 storage with float32 conversion helpers
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/gbq/backend/cpu"
//	    "github.com/born-ml/gbq/ops"
//	    "github.com/born-ml/gbq/tensor"
//	)
//
//	func main() {
//	    data, _ := tensor.FromNibbles([]int8{1, 2, 3, 4, 5, 6, 7, 0}, tensor.Shape{4, 2}, tensor.Uint4)
//	    indices, _ := tensor.FromSlice([]int32{3, 1}, tensor.Shape{2})
//	    scales, _ := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{4, 1})
//
//	    attrs := ops.Attributes{GatherAxis: 0, QuantizeAxis: 1, BlockSize: 2}
//	    out, _ := ops.GatherBlockQuantized(ctx, cpu.New(), []*tensor.RawTensor{data, indices, scales}, attrs, ops.Options{})
//	    fmt.Println(out.Floats()) // [28 0 6 8]
//	}
//
// # Supported Data Types
//
//   - float32, float16 (scales and outputs)
//   - int32, int64 (gather indices)
//   - int4, uint4 (packed quantized data and zero points)
//   - float64, uint8, bool (descriptors only)
//
// # Device Support
//
// Tensors can reside on different devices:
//   - CPU: Pure Go host executor
//   - WebGPU: Zero-CGO GPU execution (Windows)
package tensor
