package program

import (
	"encoding/binary"
	"fmt"

	"github.com/born-ml/gbq/internal/tensor"
)

// UniformType is the WGSL-level type of a uniform field.
type UniformType int

// Uniform field types.
const (
	// U32 is a single u32 scalar.
	U32 UniformType = iota
	// U32Array is array<vec4<u32>, N>, used for shape and stride metadata.
	U32Array
)

// String returns the type name.
func (t UniformType) String() string {
	if t == U32Array {
		return "u32array"
	}
	return "u32"
}

// MarshalText implements encoding.TextMarshaler.
func (t UniformType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Uniform is one named field of a program's uniform block.
type Uniform struct {
	Name   string      `json:"name"`
	Type   UniformType `json:"type"`
	Values []uint32    `json:"values"`
}

// Uniforms is the ordered uniform block of a program.
type Uniforms []Uniform

// Scalar returns a new U32 uniform.
func Scalar(name string, v uint32) Uniform {
	return Uniform{Name: name, Type: U32, Values: []uint32{v}}
}

// Array returns a new U32Array uniform.
func Array(name string, values []uint32) Uniform {
	return Uniform{Name: name, Type: U32Array, Values: values}
}

// ShapeVariables returns the "<name>_shape" and "<name>_strides" uniforms for a tensor shape.
func ShapeVariables(name string, shape tensor.Shape) []Uniform {
	strides := shape.ComputeStrides()
	dims := make([]uint32, len(shape))
	st := make([]uint32, len(shape))
	for i := range shape {
		dims[i] = uint32(shape[i]) //nolint:gosec // G115: dims validated positive
		st[i] = uint32(strides[i]) //nolint:gosec // G115: strides validated positive
	}
	return []Uniform{Array(name+"_shape", dims), Array(name+"_strides", st)}
}

// Vec4Count returns N in array<vec4<u32>, N> for a U32Array field.
func (u Uniform) Vec4Count() int {
	return max(1, (len(u.Values)+3)/4)
}

func (u Uniform) align() int {
	if u.Type == U32Array {
		return 16
	}
	return 4
}

func (u Uniform) size() int {
	if u.Type == U32Array {
		return u.Vec4Count() * 16
	}
	return 4
}

// Lookup returns the uniform with the given name.
func (us Uniforms) Lookup(name string) (Uniform, bool) {
	for _, u := range us {
		if u.Name == name {
			return u, true
		}
	}
	return Uniform{}, false
}

// U32 returns the value of a scalar uniform.
func (us Uniforms) U32(name string) (uint32, error) {
	u, ok := us.Lookup(name)
	if !ok || u.Type != U32 {
		return 0, fmt.Errorf("uniform %q: no such u32 field", name)
	}
	return u.Values[0], nil
}

// Ints returns the values of an array uniform as ints.
func (us Uniforms) Ints(name string) ([]int, error) {
	u, ok := us.Lookup(name)
	if !ok || u.Type != U32Array {
		return nil, fmt.Errorf("uniform %q: no such array field", name)
	}
	out := make([]int, len(u.Values))
	for i, v := range u.Values {
		out[i] = int(v)
	}
	return out, nil
}

// Offsets returns the byte offset of every field under WGSL uniform layout
// rules and the total block size rounded up to 16 bytes.
func (us Uniforms) Offsets() ([]int, int) {
	offsets := make([]int, len(us))
	off := 0
	for i, u := range us {
		a := u.align()
		off = (off + a - 1) &^ (a - 1)
		offsets[i] = off
		off += u.size()
	}
	return offsets, (off + 15) &^ 15
}

// Bytes encodes the uniform block little-endian, ready for upload.
func (us Uniforms) Bytes() []byte {
	offsets, total := us.Offsets()
	buf := make([]byte, max(total, 16))
	for i, u := range us {
		for k, v := range u.Values {
			binary.LittleEndian.PutUint32(buf[offsets[i]+4*k:], v)
		}
	}
	return buf
}
