// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/gbq/internal/tensor"
)

// Type aliases for public API

// DType is a constraint for element types that can back a tensor directly.
// Supported types: float32, float64, int32, int64, uint8.
type DType = tensor.DType

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Bool    DataType = tensor.Bool
	Float16 DataType = tensor.Float16
	Int4    DataType = tensor.Int4
	Uint4   DataType = tensor.Uint4
)

// Device represents the device where tensor data resides.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	WebGPU Device = tensor.WebGPU
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// ParseDataType returns the DataType named s ("float16", "uint4", ...).
func ParseDataType(s string) (DataType, error) {
	return tensor.ParseDataType(s)
}

// Creation functions

// NewRaw creates a new zero-filled raw tensor with the given shape, dtype, and device.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// FromSlice copies a Go slice into a new CPU tensor.
//
// Example:
//
//	indices, err := tensor.FromSlice([]int32{3, 1}, tensor.Shape{2})
func FromSlice[T DType](data []T, shape Shape) (*RawTensor, error) {
	return tensor.FromSlice(data, shape)
}

// FromNibbles packs one 4-bit value per element into an Int4 or Uint4 tensor.
// Lane i is stored in byte i/2, low nibble first.
//
// Example:
//
//	data, err := tensor.FromNibbles([]int8{1, 2, 3, 4}, tensor.Shape{2, 2}, tensor.Uint4)
func FromNibbles(values []int8, shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.FromNibbles(values, shape, dtype)
}

// FromBytes wraps an existing little-endian buffer without copying.
// Packed types expect the low-nibble-first layout produced by FromNibbles.
func FromBytes(data []byte, shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.FromBytes(data, shape, dtype, device)
}

// Float16 conversion

// Float16ToFloat32 decodes IEEE 754 half-precision bits.
func Float16ToFloat32(h uint16) float32 {
	return tensor.Float16ToFloat32(h)
}

// Float32ToFloat16 encodes f as IEEE 754 half-precision bits, rounding to nearest even.
func Float32ToFloat16(f float32) uint16 {
	return tensor.Float32ToFloat16(f)
}
