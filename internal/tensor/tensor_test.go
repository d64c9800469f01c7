package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataTypeBits(t *testing.T) {
	tests := []struct {
		dtype DataType
		bits  int
	}{
		{Float32, 32},
		{Float64, 64},
		{Int32, 32},
		{Int64, 64},
		{Uint8, 8},
		{Bool, 8},
		{Float16, 16},
		{Int4, 4},
		{Uint4, 4},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.bits, tt.dtype.Bits(), tt.dtype.String())
	}
}

func TestDataTypeByteSize(t *testing.T) {
	assert.Equal(t, 8, Int4.ByteSize(16))
	assert.Equal(t, 3, Uint4.ByteSize(5))
	assert.Equal(t, 12, Float32.ByteSize(3))
	assert.Equal(t, 6, Float16.ByteSize(3))
	assert.Panics(t, func() { Int4.Size() })
}

func TestParseDataType(t *testing.T) {
	for dt := Float32; dt <= Uint4; dt++ {
		parsed, err := ParseDataType(dt.String())
		require.NoError(t, err)
		assert.Equal(t, dt, parsed)
	}
	_, err := ParseDataType("bfloat16")
	assert.Error(t, err)
}

func TestNormalizeAxis(t *testing.T) {
	tests := []struct {
		axis    int64
		rank    int
		want    int
		wantErr bool
	}{
		{0, 2, 0, false},
		{1, 2, 1, false},
		{-1, 2, 1, false},
		{-2, 2, 0, false},
		{2, 2, 0, true},
		{-3, 2, 0, true},
		{0, 0, 0, true},
	}
	for _, tt := range tests {
		got, err := NormalizeAxis(tt.axis, tt.rank)
		if tt.wantErr {
			assert.Error(t, err, "axis %d rank %d", tt.axis, tt.rank)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestShapeSplice(t *testing.T) {
	s := Shape{4, 5, 6}
	assert.Equal(t, Shape{4, 2, 3, 6}, s.Splice(1, Shape{2, 3}))
	assert.Equal(t, Shape{7, 5, 6}, s.Splice(0, Shape{7}))
	assert.Equal(t, Shape{4, 5}, s.Splice(2, Shape{}))
	assert.Equal(t, Shape{4, 5, 6}, s, "splice must not mutate the receiver")
}

func TestShapeKey(t *testing.T) {
	assert.Equal(t, "4_4", Shape{4, 4}.Key())
	assert.Equal(t, "", Shape{}.Key())
}

func TestOffsetIndicesRoundTrip(t *testing.T) {
	s := Shape{2, 3, 4}
	strides := s.ComputeStrides()
	idx := make([]int, 3)
	for off := 0; off < s.NumElements(); off++ {
		OffsetToIndices(off, strides, idx)
		assert.Equal(t, off, IndicesToOffset(idx, strides))
	}
	OffsetToIndices(17, strides, idx)
	assert.Equal(t, []int{1, 1, 1}, idx)
}

func TestLaneSignedUnsigned(t *testing.T) {
	// Byte 0 = 0xF1: lane 0 = 0x1, lane 1 = 0xF.
	word := uint32(0x000000F1)
	assert.Equal(t, int32(1), Lane(word, 0, true))
	assert.Equal(t, int32(-1), Lane(word, 1, true))
	assert.Equal(t, int32(15), Lane(word, 1, false))

	// Lanes 6 and 7 live in the top byte.
	word = 0x8700_0000
	assert.Equal(t, int32(7), Lane(word, 6, true))
	assert.Equal(t, int32(-8), Lane(word, 7, true))
	assert.Equal(t, int32(8), Lane(word, 7, false))
}

func TestFromNibblesRoundTrip(t *testing.T) {
	values := []int8{-8, -1, 0, 7, 3, -4, 5, 1, 2}
	packed, err := FromNibbles(values, Shape{3, 3}, Int4)
	require.NoError(t, err)
	assert.Equal(t, 5, packed.ByteSize())
	assert.Equal(t, uint8(0xF8), packed.Data()[0])

	got := packed.Nibbles()
	for i, v := range values {
		assert.Equal(t, int32(v), got[i], "element %d", i)
	}

	_, err = FromNibbles([]int8{16}, Shape{1}, Uint4)
	assert.Error(t, err)
	_, err = FromNibbles([]int8{-1}, Shape{1}, Uint4)
	assert.Error(t, err)
	_, err = FromNibbles([]int8{1}, Shape{1}, Int32)
	assert.Error(t, err)
}

func TestLoadWordPadsPastEnd(t *testing.T) {
	buf := []byte{0x21, 0x43, 0x65}
	assert.Equal(t, uint32(0x00654321), LoadWord(buf, 0))
	assert.Equal(t, uint32(0), LoadWord(buf, 1))
	assert.Equal(t, int32(6), Nibble(buf, 5, false))
	assert.Equal(t, int32(0), Nibble(buf, 6, false))
}

func TestFloat16Conversion(t *testing.T) {
	tests := []struct {
		f    float32
		bits uint16
	}{
		{0, 0x0000},
		{1, 0x3C00},
		{-2, 0xC000},
		{0.5, 0x3800},
		{65504, 0x7BFF},
		{5.9604645e-08, 0x0001},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.bits, Float32ToFloat16(tt.f), "encode %v", tt.f)
		assert.Equal(t, tt.f, Float16ToFloat32(tt.bits), "decode %#x", tt.bits)
	}
	assert.Equal(t, uint16(0x7C00), Float32ToFloat16(1e6))
}

func TestFromSliceAndAccessors(t *testing.T) {
	f, err := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2})
	require.NoError(t, err)
	assert.Equal(t, Float32, f.DType())
	assert.Equal(t, float32(3), f.FloatAt(2))

	idx, err := FromSlice([]int64{5, 6}, Shape{2})
	require.NoError(t, err)
	assert.Equal(t, int64(6), idx.IndexAt(1))

	scalar, err := FromSlice([]int32{9}, Shape{})
	require.NoError(t, err)
	assert.Equal(t, 0, scalar.Rank())
	assert.Equal(t, int64(9), scalar.IndexAt(0))

	_, err = FromSlice([]float32{1}, Shape{2})
	assert.Error(t, err)
	_, err = NewRaw(Shape{0, 2}, Float32, CPU)
	assert.Error(t, err)
}

func TestFromBytes(t *testing.T) {
	buf := []byte{0x10, 0x32, 0xff}
	packed, err := FromBytes(buf, Shape{4}, Uint4, CPU)
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 1, 2, 3}, packed.Nibbles())

	_, err = FromBytes(buf, Shape{8}, Uint4, CPU)
	assert.Error(t, err)
}
