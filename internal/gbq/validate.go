package gbq

import (
	"github.com/born-ml/gbq/internal/tensor"
)

// Input positions.
const (
	InputData = iota
	InputIndices
	InputScales
	InputZeroPoint
)

var inputNames = [...]string{"data", "indices", "scales", "zero_point"}

// axes holds the normalized attributes of a validated call.
type axes struct {
	gather    int
	quantize  int
	blockSize int
}

// Validate checks inputs (data, indices, scales[, zero_point]) against attrs.
// It returns the first violated invariant as an *Error.
func Validate(inputs []*tensor.RawTensor, attrs Attributes) error {
	_, err := validate(inputs, attrs)
	return err
}

func validate(inputs []*tensor.RawTensor, attrs Attributes) (axes, error) {
	if len(inputs) < 3 || len(inputs) > 4 {
		return axes{}, newError(KindArity, "requires 3 or 4 inputs, got %d", len(inputs))
	}
	for i, in := range inputs {
		if in == nil {
			return axes{}, newError(KindArity, "input %s is nil", inputNames[i])
		}
	}

	data, indices, scales := inputs[InputData], inputs[InputIndices], inputs[InputScales]
	rank := data.Rank()
	if attrs.BlockSize <= 0 {
		return axes{}, newError(KindAttribute, "block_size must be positive, got %d", attrs.BlockSize)
	}
	quantize, err := tensor.NormalizeAxis(attrs.QuantizeAxis, rank)
	if err != nil {
		return axes{}, newError(KindAttribute, "quantize_axis: %v", err)
	}
	gather, err := tensor.NormalizeAxis(attrs.GatherAxis, rank)
	if err != nil {
		return axes{}, newError(KindAttribute, "gather_axis: %v", err)
	}
	ax := axes{gather: gather, quantize: quantize, blockSize: int(attrs.BlockSize)}

	if !data.DType().IsPacked() {
		return axes{}, newError(KindDatatypeMismatch, "data must be int4 or uint4, got %s", data.DType())
	}
	if it := indices.DType(); it != tensor.Int32 && it != tensor.Int64 {
		return axes{}, newError(KindDatatypeMismatch, "indices must be int32 or int64, got %s", it)
	}
	if st := scales.DType(); st != tensor.Float32 && st != tensor.Float16 {
		return axes{}, newError(KindDatatypeMismatch, "scales must be float32 or float16, got %s", st)
	}

	want := BlockShape(data.Shape(), ax.quantize, ax.blockSize)
	if !scales.Shape().Equal(want) {
		return axes{}, newError(KindShapeMismatch,
			"scales must have shape %v for data %v with block_size %d on axis %d, got %v",
			want, data.Shape(), ax.blockSize, ax.quantize, scales.Shape())
	}

	if len(inputs) == 4 {
		zp := inputs[InputZeroPoint]
		if zp.DType() != data.DType() {
			return axes{}, newError(KindDatatypeMismatch,
				"zero_point must have the data type of data (%s), got %s", data.DType(), zp.DType())
		}
		if !zp.Shape().Equal(scales.Shape()) {
			return axes{}, newError(KindShapeMismatch,
				"zero_point must have the shape of scales %v, got %v", scales.Shape(), zp.Shape())
		}
	}
	return ax, nil
}

// BlockShape returns the scales shape for data: the quantize axis holds
// ceil(d/blockSize) blocks, every other axis matches data.
func BlockShape(data tensor.Shape, quantizeAxis, blockSize int) tensor.Shape {
	out := data.Clone()
	out[quantizeAxis] = (data[quantizeAxis] + blockSize - 1) / blockSize
	return out
}

// OutputShape returns data's shape with gatherAxis replaced by all of indices' dims.
func OutputShape(data, indices tensor.Shape, gatherAxis int) tensor.Shape {
	return data.Splice(gatherAxis, indices)
}

// CheckIndices returns ErrIndexOutOfRange if any gather value falls outside
// [0, dims(data)[gatherAxis]).
func CheckIndices(inputs []*tensor.RawTensor, attrs Attributes) error {
	ax, err := validate(inputs, attrs)
	if err != nil {
		return err
	}
	return checkIndices(inputs, ax)
}

func checkIndices(inputs []*tensor.RawTensor, ax axes) error {
	indices := inputs[InputIndices]
	limit := int64(inputs[InputData].Shape()[ax.gather])
	for i := 0; i < indices.NumElements(); i++ {
		if v := indices.IndexAt(i); v < 0 || v >= limit {
			return newError(KindIndexOutOfRange, "indices[%d] = %d outside [0, %d)", i, v, limit)
		}
	}
	return nil
}
