// Package quant converts between dense float32 values and 4-bit
// block-quantized packed tensors with caller-supplied scales.
//
// Formula: x = scale * (q - zp), one scale and zero point per block of
// blockSize consecutive elements along the quantize axis.
package quant

import (
	"fmt"
	"math"

	"github.com/born-ml/gbq/internal/tensor"
)

// Range returns the representable values of a packed type.
func Range(dtype tensor.DataType) (lo, hi int32) {
	if dtype.IsSigned() {
		return -8, 7
	}
	return 0, 15
}

// Pack4 packs one value per element into bytes, lane i in byte i/2 with
// even lanes in the low nibble.
func Pack4(values []int8, dtype tensor.DataType) ([]byte, error) {
	if len(values) == 0 {
		return []byte{}, nil
	}
	t, err := tensor.FromNibbles(values, tensor.Shape{len(values)}, dtype)
	if err != nil {
		return nil, err
	}
	return t.Data(), nil
}

// Quantize produces a packed Int4 or Uint4 tensor of shape from dense values.
// scales has the block shape of shape (ceil(d/blockSize) on axis);
// zeroPoints is nil or shaped like scales. Quantized values are rounded to
// nearest and clamped to the range of dtype; NaN maps to the zero point.
func Quantize(values []float32, shape tensor.Shape, axis, blockSize int,
	scales []float32, zeroPoints []int8, dtype tensor.DataType,
) (*tensor.RawTensor, error) {
	if !dtype.IsPacked() {
		return nil, fmt.Errorf("quantize: %s is not a packed type", dtype)
	}
	if len(values) != shape.NumElements() {
		return nil, fmt.Errorf("quantize: %d values for shape %v", len(values), shape)
	}
	blocks, err := newBlockIndex(shape, axis, blockSize)
	if err != nil {
		return nil, fmt.Errorf("quantize: %w", err)
	}
	if len(scales) != blocks.count {
		return nil, fmt.Errorf("quantize: need %d scales, got %d", blocks.count, len(scales))
	}
	if zeroPoints != nil && len(zeroPoints) != blocks.count {
		return nil, fmt.Errorf("quantize: need %d zero points, got %d", blocks.count, len(zeroPoints))
	}

	lo, hi := Range(dtype)
	q := make([]int8, len(values))
	for i, x := range values {
		b := blocks.of(i)
		var zp int32
		if zeroPoints != nil {
			zp = int32(zeroPoints[b])
		}
		v := float64(zp)
		if s := scales[b]; s != 0 {
			if r := float64(x / s); !math.IsNaN(r) {
				v += math.RoundToEven(r)
			}
		}
		q[i] = int8(min(max(v, float64(lo)), float64(hi))) //nolint:gosec // G115: clamped to 4 bits
	}
	return tensor.FromNibbles(q, shape, dtype)
}

// Dequantize expands a packed tensor into dense float32 values. zeroPoint may be nil.
func Dequantize(data, scales, zeroPoint *tensor.RawTensor, axis, blockSize int) ([]float32, error) {
	if !data.DType().IsPacked() {
		return nil, fmt.Errorf("dequantize: %s is not a packed type", data.DType())
	}
	blocks, err := newBlockIndex(data.Shape(), axis, blockSize)
	if err != nil {
		return nil, fmt.Errorf("dequantize: %w", err)
	}
	if scales.NumElements() != blocks.count {
		return nil, fmt.Errorf("dequantize: need %d scales, got %d", blocks.count, scales.NumElements())
	}
	var zps []int32
	if zeroPoint != nil {
		if zeroPoint.DType() != data.DType() || zeroPoint.NumElements() != blocks.count {
			return nil, fmt.Errorf("dequantize: zero point %s%v does not match scales", zeroPoint.DType(), zeroPoint.Shape())
		}
		zps = zeroPoint.Nibbles()
	}

	q := data.Nibbles()
	out := make([]float32, len(q))
	for i, v := range q {
		b := blocks.of(i)
		var zp int32
		if zps != nil {
			zp = zps[b]
		}
		out[i] = float32(v-zp) * scales.FloatAt(b)
	}
	return out, nil
}

// blockIndex maps a dense element offset to its block offset.
type blockIndex struct {
	axis, blockSize int
	strides         []int
	blockStrides    []int
	count           int
	scratch         []int
}

func newBlockIndex(shape tensor.Shape, axis, blockSize int) (*blockIndex, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("block size must be positive, got %d", blockSize)
	}
	if axis < 0 || axis >= len(shape) {
		return nil, fmt.Errorf("axis %d out of range for rank %d", axis, len(shape))
	}
	bs := shape.Clone()
	bs[axis] = (shape[axis] + blockSize - 1) / blockSize
	return &blockIndex{
		axis:         axis,
		blockSize:    blockSize,
		strides:      shape.ComputeStrides(),
		blockStrides: bs.ComputeStrides(),
		count:        bs.NumElements(),
		scratch:      make([]int, len(shape)),
	}, nil
}

func (b *blockIndex) of(offset int) int {
	tensor.OffsetToIndices(offset, b.strides, b.scratch)
	b.scratch[b.axis] /= b.blockSize
	return tensor.IndicesToOffset(b.scratch, b.blockStrides)
}
