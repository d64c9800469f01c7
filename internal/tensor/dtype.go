// Package tensor provides the tensor descriptors consumed by the quantized gather operator.
package tensor

import "fmt"

// DType is a constraint for element types that can back a tensor directly.
type DType interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~uint8
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Float64
	Int32
	Int64
	Uint8
	Bool
	Float16
	// Int4 packs two signed 4-bit values per byte, low nibble first.
	Int4
	// Uint4 packs two unsigned 4-bit values per byte, low nibble first.
	Uint4
)

// Bits returns the storage width of one element in bits.
func (dt DataType) Bits() int {
	switch dt {
	case Int4, Uint4:
		return 4
	case Float16:
		return 16
	case Float32, Int32:
		return 32
	case Float64, Int64:
		return 64
	case Uint8, Bool:
		return 8
	default:
		panic(fmt.Sprintf("unknown data type %d", int(dt)))
	}
}

// Size returns the byte size of one element.
// Panics for packed sub-byte types, use ByteSize instead.
func (dt DataType) Size() int {
	if dt.IsPacked() {
		panic(dt.String() + " is a packed sub-byte type")
	}
	return dt.Bits() / 8
}

// ByteSize returns the number of bytes needed to store n elements.
func (dt DataType) ByteSize(n int) int {
	return (n*dt.Bits() + 7) / 8
}

// IsPacked reports whether several elements share one byte.
func (dt DataType) IsPacked() bool {
	return dt == Int4 || dt == Uint4
}

// IsSigned reports whether a packed or integer type is sign-extended on load.
func (dt DataType) IsSigned() bool {
	switch dt {
	case Int4, Int32, Int64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether the type holds floating point values.
func (dt DataType) IsFloat() bool {
	return dt == Float16 || dt == Float32 || dt == Float64
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Bool:
		return "bool"
	case Float16:
		return "float16"
	case Int4:
		return "int4"
	case Uint4:
		return "uint4"
	default:
		return "unknown"
	}
}

// ParseDataType is the inverse of String.
func ParseDataType(s string) (DataType, error) {
	for dt := Float32; dt <= Uint4; dt++ {
		if dt.String() == s {
			return dt, nil
		}
	}
	return 0, fmt.Errorf("unknown data type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (dt DataType) MarshalText() ([]byte, error) {
	return []byte(dt.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (dt *DataType) UnmarshalText(text []byte) error {
	parsed, err := ParseDataType(string(text))
	if err != nil {
		return err
	}
	*dt = parsed
	return nil
}

// inferDataType infers DataType from a generic type T.
func inferDataType[T DType](dummy T) DataType {
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	default:
		panic("unsupported type")
	}
}
