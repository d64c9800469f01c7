package tensor

import (
	"fmt"
	"unsafe"
)

// Device represents the compute device for tensor operations.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// RawTensor is the low-level tensor descriptor: shape, dtype, device and an
// owned byte buffer. Packed 4-bit tensors store two lanes per byte.
type RawTensor struct {
	data   []byte
	shape  Shape
	stride []int
	dtype  DataType
	device Device
}

// NewRaw creates a new RawTensor with the given shape and type.
// Memory is allocated and zeroed.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	return &RawTensor{
		data:   make([]byte, dtype.ByteSize(shape.NumElements())),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}, nil
}

// FromBytes wraps an existing byte buffer. The buffer must hold at least
// ByteSize bytes; it is not copied.
func FromBytes(data []byte, shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	need := dtype.ByteSize(shape.NumElements())
	if len(data) < need {
		return nil, fmt.Errorf("buffer too small for %s%v: need %d bytes, got %d", dtype, shape, need, len(data))
	}
	return &RawTensor{
		data:   data[:need],
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}, nil
}

// FromSlice copies typed values into a new CPU tensor.
func FromSlice[T DType](values []T, shape Shape) (*RawTensor, error) {
	var zero T
	dtype := inferDataType(zero)
	if len(values) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v", len(values), shape)
	}
	t, err := NewRaw(shape, dtype, CPU)
	if err != nil {
		return nil, err
	}
	if len(values) > 0 {
		//nolint:gosec // unsafe.Slice reinterprets the typed slice as bytes for the copy
		src := unsafe.Slice((*byte)(unsafe.Pointer(&values[0])), len(values)*dtype.Size())
		copy(t.data, src)
	}
	return t, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Rank returns the number of dimensions.
func (r *RawTensor) Rank() int {
	return len(r.shape)
}

// Strides returns the tensor's row-major strides in elements.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return len(r.data)
}

// Data returns the raw byte slice.
// WARNING: Direct access to underlying memory. Use with caution.
func (r *RawTensor) Data() []byte {
	return r.data
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", r.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumElements()
	return unsafe.Slice((*float32)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsFloat16Bits interprets the data as raw IEEE 754 half precision bits.
// Panics if the tensor's dtype is not Float16.
func (r *RawTensor) AsFloat16Bits() []uint16 {
	if r.dtype != Float16 {
		panic(fmt.Sprintf("tensor dtype is %s, not float16", r.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumElements()
	return unsafe.Slice((*uint16)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsInt32 interprets the data as []int32.
// Panics if the tensor's dtype is not Int32.
func (r *RawTensor) AsInt32() []int32 {
	if r.dtype != Int32 {
		panic(fmt.Sprintf("tensor dtype is %s, not int32", r.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumElements()
	return unsafe.Slice((*int32)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsInt64 interprets the data as []int64.
// Panics if the tensor's dtype is not Int64.
func (r *RawTensor) AsInt64() []int64 {
	if r.dtype != Int64 {
		panic(fmt.Sprintf("tensor dtype is %s, not int64", r.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumElements()
	return unsafe.Slice((*int64)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// IndexAt reads element i of an Int32 or Int64 tensor as int64.
func (r *RawTensor) IndexAt(i int) int64 {
	switch r.dtype {
	case Int32:
		return int64(r.AsInt32()[i])
	case Int64:
		return r.AsInt64()[i]
	default:
		panic(fmt.Sprintf("tensor dtype is %s, not an index type", r.dtype))
	}
}

// FloatAt reads element i of a Float32 or Float16 tensor as float32.
func (r *RawTensor) FloatAt(i int) float32 {
	switch r.dtype {
	case Float32:
		return r.AsFloat32()[i]
	case Float16:
		return Float16ToFloat32(r.AsFloat16Bits()[i])
	default:
		panic(fmt.Sprintf("tensor dtype is %s, not a float type", r.dtype))
	}
}

// Floats returns the elements of a Float32 or Float16 tensor as float32 values.
func (r *RawTensor) Floats() []float32 {
	out := make([]float32, r.NumElements())
	for i := range out {
		out[i] = r.FloatAt(i)
	}
	return out
}
