package gbq_test

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gbq/internal/backend/cpu"
	"github.com/born-ml/gbq/internal/gbq"
	"github.com/born-ml/gbq/internal/logger"
	"github.com/born-ml/gbq/internal/parallel"
	"github.com/born-ml/gbq/internal/quant"
	"github.com/born-ml/gbq/internal/tensor"
)

func packed(t *testing.T, values []int8, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.FromNibbles(values, shape, dtype)
	require.NoError(t, err)
	return r
}

func floats(t *testing.T, values []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.FromSlice(values, shape)
	require.NoError(t, err)
	return r
}

func ints[T int32 | int64](t *testing.T, values []T, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.FromSlice(values, shape)
	require.NoError(t, err)
	return r
}

// denseGather is a direct reference: out[o, k, i] = dense[o, indices[k], i].
func denseGather(dense []float32, shape tensor.Shape, indices []int64, axis int) []float32 {
	outer, inner := 1, 1
	for _, d := range shape[:axis] {
		outer *= d
	}
	for _, d := range shape[axis+1:] {
		inner *= d
	}
	var out []float32
	for o := 0; o < outer; o++ {
		for _, k := range indices {
			base := (o*shape[axis] + int(k)) * inner
			out = append(out, dense[base:base+inner]...)
		}
	}
	return out
}

func run(t *testing.T, inputs []*tensor.RawTensor, attrs gbq.Attributes) *tensor.RawTensor {
	t.Helper()
	exec := cpu.New(cpu.WithParallel(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}))
	out, err := gbq.Run(context.Background(), exec, inputs, attrs, gbq.Options{})
	require.NoError(t, err)
	return out
}

func TestGatherRows4x4(t *testing.T) {
	values := make([]int8, 16)
	for i := range values {
		values[i] = int8(i - 8)
	}
	data := packed(t, values, tensor.Shape{4, 4}, tensor.Int4)
	scales := floats(t, []float32{0.5, 1, 1.5, 2, 2.5, 3, 3.5, 4}, tensor.Shape{4, 2})
	indices := ints(t, []int32{2, 0}, tensor.Shape{2})

	out := run(t, []*tensor.RawTensor{data, indices, scales},
		gbq.Attributes{GatherAxis: 0, QuantizeAxis: 1, BlockSize: 2})

	assert.Equal(t, tensor.Shape{2, 4}, out.Shape())
	assert.Equal(t, tensor.Float32, out.DType())
	// Row 2 holds 0..3 with scales 2.5, 3; row 0 holds -8..-5 with scales 0.5, 1.
	assert.Equal(t, []float32{0, 2.5, 6, 9, -4, -3.5, -6, -5}, out.AsFloat32())
}

func TestRoundTripIdentityIndices(t *testing.T) {
	shape := tensor.Shape{6, 5}
	const blockSize = 2
	dense := make([]float32, shape.NumElements())
	for i := range dense {
		dense[i] = float32(math.Cos(float64(i)*0.7)) * 4
	}

	// Unsigned storage with a mid-range zero point.
	nb := (shape[1] + blockSize - 1) / blockSize
	scaleVals := make([]float32, shape[0]*nb)
	zeros := make([]int8, len(scaleVals))
	for r := 0; r < shape[0]; r++ {
		for b := 0; b < nb; b++ {
			var maxAbs float32
			for c := b * blockSize; c < min((b+1)*blockSize, shape[1]); c++ {
				maxAbs = max(maxAbs, float32(math.Abs(float64(dense[r*shape[1]+c]))))
			}
			scaleVals[r*nb+b] = maxAbs / 7
			zeros[r*nb+b] = 8
		}
	}
	data, err := quant.Quantize(dense, shape, 1, blockSize, scaleVals, zeros, tensor.Uint4)
	require.NoError(t, err)
	zp := packed(t, zeros, tensor.Shape{shape[0], nb}, tensor.Uint4)
	scales := floats(t, scaleVals, tensor.Shape{shape[0], nb})

	identity := make([]int64, shape[0])
	for i := range identity {
		identity[i] = int64(i)
	}
	indices := ints(t, identity, tensor.Shape{shape[0]})

	out := run(t, []*tensor.RawTensor{data, indices, scales, zp},
		gbq.Attributes{GatherAxis: 0, QuantizeAxis: 1, BlockSize: blockSize})
	require.Equal(t, shape, out.Shape())

	for i, v := range out.AsFloat32() {
		scale := scaleVals[(i/shape[1])*nb+(i%shape[1])/blockSize]
		assert.LessOrEqual(t, math.Abs(float64(v-dense[i])), float64(scale)+1e-6, "element %d", i)
	}
}

func TestSignedUnsignedDecoding(t *testing.T) {
	for _, tc := range []struct {
		dtype tensor.DataType
		want  float32
	}{
		{tensor.Int4, -1},
		{tensor.Uint4, 15},
	} {
		t.Run(tc.dtype.String(), func(t *testing.T) {
			raw := []byte{0xff}
			data, err := tensor.FromBytes(raw, tensor.Shape{1, 2}, tc.dtype, tensor.CPU)
			require.NoError(t, err)
			scales := floats(t, []float32{1}, tensor.Shape{1, 1})
			indices := ints(t, []int32{0}, tensor.Shape{1})

			out := run(t, []*tensor.RawTensor{data, indices, scales},
				gbq.Attributes{GatherAxis: 0, QuantizeAxis: 1, BlockSize: 2})
			assert.Equal(t, []float32{tc.want, tc.want}, out.AsFloat32())
		})
	}
}

func TestZeroPointOmittedEqualsZeros(t *testing.T) {
	values := []int8{1, -2, 3, -4, 5, -6, 7, -8, 0, 1, 2, 3}
	data := packed(t, values, tensor.Shape{3, 4}, tensor.Int4)
	scales := floats(t, []float32{0.25, 0.5, 0.75, 1, 1.25, 1.5}, tensor.Shape{3, 2})
	zp := packed(t, make([]int8, 6), tensor.Shape{3, 2}, tensor.Int4)
	indices := ints(t, []int64{1, 2, 0, 1}, tensor.Shape{2, 2})
	attrs := gbq.Attributes{GatherAxis: 0, QuantizeAxis: 1, BlockSize: 2}

	without := run(t, []*tensor.RawTensor{data, indices, scales}, attrs)
	with := run(t, []*tensor.RawTensor{data, indices, scales, zp}, attrs)
	assert.Equal(t, tensor.Shape{2, 2, 4}, without.Shape())
	assert.Equal(t, without.AsFloat32(), with.AsFloat32())
}

func TestGatherMatchesDenseReference(t *testing.T) {
	cases := []struct {
		name         string
		shape        tensor.Shape
		indices      []int64
		indicesShape tensor.Shape
		gatherAxis   int64
		quantizeAxis int64
		blockSize    int
	}{
		{"axis0-rank1", tensor.Shape{5, 6}, []int64{4, 1, 1}, tensor.Shape{3}, 0, 1, 4},
		{"axis1-rank1", tensor.Shape{3, 7}, []int64{6, 0}, tensor.Shape{2}, 1, 1, 3},
		{"axis1-rank2", tensor.Shape{2, 5, 3}, []int64{4, 0, 2, 3}, tensor.Shape{2, 2}, 1, 2, 2},
		{"negative-axes", tensor.Shape{2, 5, 3}, []int64{1, 3}, tensor.Shape{2}, -2, -1, 2},
		{"quantize-on-gather-axis", tensor.Shape{9, 2}, []int64{8, 3, 0}, tensor.Shape{3}, 0, 0, 4},
		{"scalar-index", tensor.Shape{4, 3}, []int64{2}, tensor.Shape{}, 0, 1, 2},
		{"last-axis-rank3", tensor.Shape{2, 3}, []int64{2, 1, 0, 0, 1, 2, 2, 2}, tensor.Shape{2, 2, 2}, 1, 0, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rank := len(tc.shape)
			gAxis, err := tensor.NormalizeAxis(tc.gatherAxis, rank)
			require.NoError(t, err)
			qAxis, err := tensor.NormalizeAxis(tc.quantizeAxis, rank)
			require.NoError(t, err)

			n := tc.shape.NumElements()
			values := make([]int8, n)
			for i := range values {
				values[i] = int8((i*5)%16 - 8)
			}
			data := packed(t, values, tc.shape, tensor.Int4)
			scaleShape := gbq.BlockShape(tc.shape, qAxis, tc.blockSize)
			scaleVals := make([]float32, scaleShape.NumElements())
			for i := range scaleVals {
				scaleVals[i] = 0.125 * float32(i+1)
			}
			scales := floats(t, scaleVals, scaleShape)
			indices := ints(t, tc.indices, tc.indicesShape)

			out := run(t, []*tensor.RawTensor{data, indices, scales}, gbq.Attributes{
				GatherAxis: tc.gatherAxis, QuantizeAxis: tc.quantizeAxis, BlockSize: int64(tc.blockSize),
			})

			wantShape := tc.shape.Splice(gAxis, tc.indicesShape)
			assert.Equal(t, rank-1+len(tc.indicesShape), out.Rank())
			assert.Equal(t, wantShape, out.Shape())

			dense, err := quant.Dequantize(data, scales, nil, qAxis, tc.blockSize)
			require.NoError(t, err)
			assert.Equal(t, denseGather(dense, tc.shape, tc.indices, gAxis), out.AsFloat32())
		})
	}
}

func TestFloat16Output(t *testing.T) {
	data := packed(t, []int8{1, 2, 3, 4}, tensor.Shape{2, 2}, tensor.Uint4)
	scaleBits := []uint16{tensor.Float32ToFloat16(0.5), tensor.Float32ToFloat16(0.25)}
	raw := make([]byte, 4)
	for i, b := range scaleBits {
		raw[2*i] = byte(b)
		raw[2*i+1] = byte(b >> 8)
	}
	scales, err := tensor.FromBytes(raw, tensor.Shape{2, 1}, tensor.Float16, tensor.CPU)
	require.NoError(t, err)
	indices := ints(t, []int32{1, 0}, tensor.Shape{2})

	out := run(t, []*tensor.RawTensor{data, indices, scales},
		gbq.Attributes{GatherAxis: 0, QuantizeAxis: 1, BlockSize: 2})
	assert.Equal(t, tensor.Float16, out.DType())
	assert.Equal(t, []float32{0.75, 1, 0.5, 1}, out.Floats())
}

func TestRunReusesDescriptor(t *testing.T) {
	exec := cpu.New()
	attrs := gbq.Attributes{GatherAxis: 0, QuantizeAxis: 1, BlockSize: 2}
	scales := floats(t, []float32{1, 1, 1, 1, 1, 1, 1, 1}, tensor.Shape{4, 2})

	first := packed(t, make([]int8, 16), tensor.Shape{4, 4}, tensor.Int4)
	secondVals := make([]int8, 16)
	for i := range secondVals {
		secondVals[i] = int8(i % 8)
	}
	second := packed(t, secondVals, tensor.Shape{4, 4}, tensor.Int4)

	ctx := context.Background()
	a, err := gbq.Run(ctx, exec, []*tensor.RawTensor{first, ints(t, []int32{2, 0}, tensor.Shape{2}), scales}, attrs, gbq.Options{})
	require.NoError(t, err)
	b, err := gbq.Run(ctx, exec, []*tensor.RawTensor{second, ints(t, []int32{1, 3}, tensor.Shape{2}), scales}, attrs, gbq.Options{})
	require.NoError(t, err)

	assert.Equal(t, uint64(1), exec.Programs().Builds())
	assert.Equal(t, uint64(1), exec.Programs().Hits())
	assert.Equal(t, make([]float32, 8), a.AsFloat32())
	assert.Equal(t, []float32{4, 5, 6, 7, 4, 5, 6, 7}, b.AsFloat32())

	// A different indices shape forces a rebuild.
	_, err = gbq.Run(ctx, exec, []*tensor.RawTensor{second, ints(t, []int32{1}, tensor.Shape{1}), scales}, attrs, gbq.Options{})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), exec.Programs().Builds())
}

func TestRunIndexChecking(t *testing.T) {
	data := packed(t, []int8{1, 2, 3, 4, 5, 6, 7, 7}, tensor.Shape{2, 4}, tensor.Int4)
	scales := floats(t, []float32{1, 1}, tensor.Shape{2, 1})
	indices := ints(t, []int32{1, 2, -1}, tensor.Shape{3})
	inputs := []*tensor.RawTensor{data, indices, scales}
	attrs := gbq.Attributes{GatherAxis: 0, QuantizeAxis: 1, BlockSize: 4}

	exec := cpu.New()
	_, err := gbq.Run(context.Background(), exec, inputs, attrs, gbq.Options{CheckIndices: true})
	require.ErrorIs(t, err, gbq.ErrIndexOutOfRange)
	assert.Zero(t, exec.Programs().Builds())

	// Unchecked: out-of-range rows read as zero on the host.
	out, err := gbq.Run(context.Background(), exec, inputs, attrs, gbq.Options{})
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 6, 7, 7, 0, 0, 0, 0, 0, 0, 0, 0}, out.AsFloat32())
}

func TestRunValidationFailsBeforeDispatch(t *testing.T) {
	exec := cpu.New()
	data := packed(t, make([]int8, 8), tensor.Shape{2, 4}, tensor.Int4)
	short := floats(t, []float32{1, 1}, tensor.Shape{2, 1})
	indices := ints(t, []int32{0}, tensor.Shape{1})

	_, err := gbq.Run(context.Background(), exec, []*tensor.RawTensor{data, indices, short},
		gbq.Attributes{GatherAxis: 0, QuantizeAxis: 1, BlockSize: 2}, gbq.Options{})
	require.ErrorIs(t, err, gbq.ErrShapeMismatch)
	assert.Zero(t, exec.Programs().Len())
}

func TestRunLogsToContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := logger.WithContext(context.Background(), logger.JSON(&buf, slog.LevelDebug))

	inputs := []*tensor.RawTensor{
		packed(t, []int8{1, 2, 3, 4}, tensor.Shape{2, 2}, tensor.Uint4),
		ints(t, []int32{1}, tensor.Shape{1}),
		floats(t, []float32{1, 2}, tensor.Shape{2, 1}),
	}
	attrs := gbq.Attributes{GatherAxis: 0, QuantizeAxis: 1, BlockSize: 2}

	out, err := gbq.Run(ctx, cpu.New(), inputs, attrs, gbq.Options{})
	require.NoError(t, err)
	assert.Equal(t, []float32{6, 8}, out.AsFloat32())

	assert.Contains(t, buf.String(), `"msg":"gather block quantized"`)
	assert.Contains(t, buf.String(), gbq.CacheKey(inputs, attrs))
	assert.Contains(t, buf.String(), `"mapping":"ScalarIndex"`)
}
