package tensor

import "math"

// Float16ToFloat32 converts IEEE 754 half precision bits to float32.
func Float16ToFloat32(h uint16) float32 {
	sign := (h >> 15) & 0x1
	exp := (h >> 10) & 0x1F
	mant := h & 0x3FF

	var result uint32

	switch exp {
	case 0:
		if mant == 0 {
			result = uint32(sign) << 31
		} else {
			// Subnormal: normalize.
			e := int32(1)
			for (mant & 0x400) == 0 {
				mant <<= 1
				e--
			}
			mant &= 0x3FF
			result = (uint32(sign) << 31) | (uint32(e+127-15) << 23) | (uint32(mant) << 13) //nolint:gosec // G115: e+112 is positive
		}
	case 0x1F:
		result = (uint32(sign) << 31) | 0x7F800000 | (uint32(mant) << 13)
	default:
		result = (uint32(sign) << 31) | (uint32(exp+127-15) << 23) | (uint32(mant) << 13)
	}

	return math.Float32frombits(result)
}

// Float32ToFloat16 converts a float32 to IEEE 754 half precision bits,
// rounding to nearest even.
func Float32ToFloat16(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16((bits >> 16) & 0x8000) //nolint:gosec // G115: masked
	exp := int32((bits >> 23) & 0xFF)     //nolint:gosec // G115: masked
	mant := bits & 0x7FFFFF

	switch {
	case exp == 0xFF:
		if mant != 0 {
			return sign | 0x7E00
		}
		return sign | 0x7C00
	case exp-127+15 >= 0x1F:
		return sign | 0x7C00
	case exp-127+15 <= 0:
		// Subnormal half or zero.
		shift := 14 - (exp - 127 + 15)
		if shift > 24 {
			return sign
		}
		m := mant | 0x800000
		half := uint16(m >> uint(shift)) //nolint:gosec // G115: shift >= 14 keeps the value in range
		rem := m & ((1 << uint(shift)) - 1)
		mid := uint32(1) << uint(shift-1)
		if rem > mid || (rem == mid && half&1 == 1) {
			half++
		}
		return sign | half
	}

	half := uint16(exp-127+15)<<10 | uint16(mant>>13) //nolint:gosec // G115: exponent checked above
	rem := mant & 0x1FFF
	if rem > 0x1000 || (rem == 0x1000 && half&1 == 1) {
		half++
	}
	return sign | half
}
