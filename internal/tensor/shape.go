package tensor

import (
	"fmt"
	"strconv"
	"strings"
)

// Shape represents the dimensions of a tensor.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Rank returns the number of dimensions.
func (s Shape) Rank() int {
	return len(s)
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// Key joins the dimensions with underscores, e.g. "4_4". Scalars yield "".
func (s Shape) Key() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, "_")
}

// Splice returns a copy of s with the dimension at axis replaced by all of repl.
func (s Shape) Splice(axis int, repl Shape) Shape {
	out := make(Shape, 0, len(s)-1+len(repl))
	out = append(out, s[:axis]...)
	out = append(out, repl...)
	out = append(out, s[axis+1:]...)
	return out
}

// NormalizeAxis maps axis from [-rank, rank) onto [0, rank).
func NormalizeAxis(axis int64, rank int) (int, error) {
	r := int64(rank)
	if axis < -r || axis >= r {
		return 0, fmt.Errorf("axis %d out of range for rank %d", axis, rank)
	}
	if axis < 0 {
		axis += r
	}
	return int(axis), nil
}

// OffsetToIndices converts a row-major linear offset into a multi-index.
func OffsetToIndices(offset int, strides []int, dst []int) {
	for i, st := range strides {
		if st == 0 {
			dst[i] = 0
			continue
		}
		dst[i] = offset / st
		offset %= st
	}
}

// IndicesToOffset converts a multi-index into a row-major linear offset.
func IndicesToOffset(indices, strides []int) int {
	off := 0
	for i, st := range strides {
		off += indices[i] * st
	}
	return off
}
