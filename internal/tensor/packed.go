package tensor

import "fmt"

// LanesPerWord is the number of 4-bit lanes in one 32-bit container.
const LanesPerWord = 8

// LoadWord reads the little-endian 32-bit container with index w.
// Bytes past the end of buf read as zero.
func LoadWord(buf []byte, w int) uint32 {
	var word uint32
	base := w * 4
	for i := 0; i < 4; i++ {
		if base+i < len(buf) {
			word |= uint32(buf[base+i]) << (8 * i)
		}
	}
	return word
}

// Lane extracts 4-bit lane n (0..7) from a container.
//
// The container is first shifted by 4*(n%2) and masked so every byte holds
// one nibble, then byte n/2 is selected and extended to 32 bits.
func Lane(word uint32, n int, signed bool) int32 {
	packed := (word >> (4 * uint(n%2))) & 0x0f0f0f0f
	b := uint8(packed >> (8 * uint(n/2))) //nolint:gosec // G115: masked to one nibble
	if signed {
		return int32(int8(b<<4) >> 4)
	}
	return int32(b)
}

// Nibble returns packed element i of buf, sign- or zero-extended.
func Nibble(buf []byte, i int, signed bool) int32 {
	return Lane(LoadWord(buf, i/LanesPerWord), i%LanesPerWord, signed)
}

// SetNibble stores the low 4 bits of v as packed element i of buf.
func SetNibble(buf []byte, i int, v int8) {
	b := &buf[i/2]
	if i%2 == 0 {
		*b = (*b & 0xf0) | (uint8(v) & 0x0f)
	} else {
		*b = (*b & 0x0f) | (uint8(v)&0x0f)<<4
	}
}

// FromNibbles packs one value per element into a new Int4 or Uint4 tensor.
// Values must fit the signed [-8, 7] or unsigned [0, 15] range of dtype.
func FromNibbles(values []int8, shape Shape, dtype DataType) (*RawTensor, error) {
	if !dtype.IsPacked() {
		return nil, fmt.Errorf("FromNibbles: %s is not a packed type", dtype)
	}
	if len(values) != shape.NumElements() {
		return nil, fmt.Errorf("FromNibbles: data length %d does not match shape %v", len(values), shape)
	}
	lo, hi := int8(0), int8(15)
	if dtype.IsSigned() {
		lo, hi = -8, 7
	}
	t, err := NewRaw(shape, dtype, CPU)
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		if v < lo || v > hi {
			return nil, fmt.Errorf("FromNibbles: value %d at %d outside %s range [%d, %d]", v, i, dtype, lo, hi)
		}
		SetNibble(t.data, i, v)
	}
	return t, nil
}

// Nibbles unpacks every element of an Int4 or Uint4 tensor.
func (r *RawTensor) Nibbles() []int32 {
	if !r.dtype.IsPacked() {
		panic(fmt.Sprintf("tensor dtype is %s, not a packed type", r.dtype))
	}
	out := make([]int32, r.NumElements())
	for i := range out {
		out[i] = Nibble(r.data, i, r.dtype.IsSigned())
	}
	return out
}
