package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"

	"github.com/born-ml/gbq/internal/tensor"
)

// StorageBytes returns the bytes uploaded for t as a storage buffer: packed
// and float16 data are zero-padded to whole 32-bit words, int64 indices are
// narrowed to int32.
func StorageBytes(t *tensor.RawTensor) ([]byte, error) {
	switch t.DType() {
	case tensor.Int64:
		src := t.AsInt64()
		out := make([]byte, 4*len(src))
		for i, v := range src {
			if v < math.MinInt32 || v > math.MaxInt32 {
				return nil, fmt.Errorf("webgpu: index %d at %d does not fit int32", v, i)
			}
			binary.LittleEndian.PutUint32(out[4*i:], uint32(int32(v))) //nolint:gosec // G115: range checked
		}
		return out, nil
	case tensor.Int4, tensor.Uint4, tensor.Float16:
		return padWords(t.Data()), nil
	case tensor.Float32, tensor.Int32:
		return t.Data(), nil
	default:
		return nil, fmt.Errorf("webgpu: no storage layout for %s", t.DType())
	}
}

// OutputByteSize returns the storage size of an output, padded to 4 bytes.
func OutputByteSize(dtype tensor.DataType, shape tensor.Shape) uint64 {
	n := dtype.ByteSize(shape.NumElements())
	return uint64((n + 3) &^ 3) //nolint:gosec // G115: non-negative size
}

func padWords(data []byte) []byte {
	if len(data)%4 == 0 {
		return data
	}
	out := make([]byte, (len(data)+3)&^3)
	copy(out, data)
	return out
}

// SizeClass returns the pooled allocation size for a request of size bytes:
// the next power of two, at least 16.
func SizeClass(size uint64) uint64 {
	if size <= 16 {
		return 16
	}
	return 1 << bits.Len64(size-1)
}
