package gbq

import (
	"fmt"

	"github.com/born-ml/gbq/internal/program"
	"github.com/born-ml/gbq/internal/tensor"
	"github.com/born-ml/gbq/internal/wgsl"
)

// kernel is the structured per-element formula of a descriptor:
//
//	output[i] = outType(q - zp) * scale
//
// where q is the gathered nibble, zp its block's zero point (0 when absent)
// and scale its block's scale. Everything shape-dependent is read from
// uniforms; only ranks, dtypes and the mapping variant are fixed here.
type kernel struct {
	mapping     IndexMapping
	signed      bool
	outType     tensor.DataType
	zeroPoint   bool
	dataRank    int
	indicesRank int
	outputRank  int
	uniforms    program.Uniforms
}

// String describes the formula.
func (k *kernel) String() string {
	zp := "0"
	if k.zeroPoint {
		zp = "zero_point[block]"
	}
	elem, _ := wgsl.ElementType(k.outType)
	return fmt.Sprintf("output[i] = %s(data[offset] - %s) * scales[block] (%s, %s)",
		elem, zp, k.mapping, signedness(k.signed))
}

func signedness(signed bool) string {
	if signed {
		return "signed"
	}
	return "unsigned"
}

// Bind resolves uniforms once and returns the host invocation. Gather values
// outside [0, dims(data)[gather_axis]) produce 0.
func (k *kernel) Bind(u program.Uniforms, inputs []*tensor.RawTensor, output *tensor.RawTensor) (func(global int), error) {
	size, err := u.U32("output_size")
	if err != nil {
		return nil, err
	}
	quantize, err := u.U32("quantize_axis")
	if err != nil {
		return nil, err
	}
	gather, err := u.U32("gather_axis")
	if err != nil {
		return nil, err
	}
	block, err := u.U32("block_size")
	if err != nil {
		return nil, err
	}
	shapes := make([]tensor.Shape, 3)
	for i := range shapes {
		dims, err := u.Ints(inputNames[i] + "_shape")
		if err != nil {
			return nil, err
		}
		shapes[i] = dims
	}
	if len(inputs) < 3 || (k.zeroPoint && len(inputs) < 4) {
		return nil, fmt.Errorf("%s: %d inputs bound", OpName, len(inputs))
	}

	m := NewMapper(shapes[InputData], shapes[InputIndices], shapes[InputScales],
		int(gather), int(quantize), int(block))
	if !m.Output.Equal(output.Shape()) || output.DType() != k.outType {
		return nil, fmt.Errorf("%s: output is %s%v, descriptor expects %s%v",
			OpName, output.DType(), output.Shape(), k.outType, m.Output)
	}

	data := inputs[InputData].Data()
	indices := inputs[InputIndices]
	scales := inputs[InputScales]
	var zp []byte
	if k.zeroPoint {
		zp = inputs[InputZeroPoint].Data()
	}
	store, err := storeFunc(output)
	if err != nil {
		return nil, err
	}

	n := int(size)
	limit := int64(m.Data[m.GatherAxis])
	signed := k.signed
	return func(global int) {
		if global >= n {
			return
		}
		out := make([]int, len(m.Output))
		m.OutputIndex(global, out)
		g := indices.IndexAt(m.IndicesOffset(out))
		if g < 0 || g >= limit {
			store(global, 0)
			return
		}
		dataIdx := make([]int, len(m.Data))
		m.DataIndex(out, int(g), dataIdx)
		loc := m.Locate(dataIdx)

		q := tensor.Lane(tensor.LoadWord(data, loc.Word), loc.Lane, signed)
		var z int32
		if zp != nil {
			z = tensor.Nibble(zp, loc.BlockOffset, signed)
		}
		store(global, float32(q-z)*scales.FloatAt(loc.BlockOffset))
	}, nil
}

func storeFunc(output *tensor.RawTensor) (func(i int, v float32), error) {
	switch output.DType() {
	case tensor.Float32:
		dst := output.AsFloat32()
		return func(i int, v float32) { dst[i] = v }, nil
	case tensor.Float16:
		dst := output.AsFloat16Bits()
		return func(i int, v float32) { dst[i] = tensor.Float32ToFloat16(v) }, nil
	default:
		return nil, fmt.Errorf("%s: unsupported output type %s", OpName, output.DType())
	}
}

// WGSL renders the kernel as a compute shader. Bindings follow input order,
// then output, then the uniform block.
func (k *kernel) WGSL(workgroupSize uint32) string {
	elem, _ := wgsl.ElementType(k.outType)
	b := wgsl.New(workgroupSize)
	if k.outType == tensor.Float16 {
		b.Enable("f16")
	}
	b.Storage("data", "u32", wgsl.Read).
		Storage("indices", "i32", wgsl.Read).
		Storage("scales", elem, wgsl.Read)
	if k.zeroPoint {
		b.Storage("zero_point", "u32", wgsl.Read)
	}
	b.Storage("output", elem, wgsl.ReadWrite).Uniforms(k.uniforms)

	b.IndexHelpers("output", k.outputRank).
		IndexHelpers("indices", k.indicesRank).
		IndexHelpers("data", k.dataRank).
		IndexHelpers("scales", k.dataRank)
	if k.zeroPoint {
		b.IndexHelpers("zero_point", k.dataRank)
	}
	b.Helper(unpackLane(k.signed))

	b.Line("let output_indices = output_offset_to_indices(global_idx);")
	b.Line("var indices_indices: array<u32, %d>;", wgsl.IndexLen(k.indicesRank))
	switch {
	case k.mapping == MultiIndex:
		b.Line("for (var i = 0u; i < %du; i++) {", k.indicesRank)
		b.Line("    indices_indices[i] = output_indices[uniforms.gather_axis + i];")
		b.Line("}")
	case k.indicesRank == 1:
		b.Line("indices_indices[0] = output_indices[uniforms.gather_axis];")
	}

	b.Line("var data_indices: array<u32, %d>;", wgsl.IndexLen(k.dataRank))
	b.Line("for (var i = 0u; i < uniforms.gather_axis; i++) {")
	b.Line("    data_indices[i] = output_indices[i];")
	b.Line("}")
	b.Line("let gather = indices[indices_indices_to_offset(indices_indices)];")
	b.Line("if (gather < 0i || u32(gather) >= uniforms.data_shape[uniforms.gather_axis / 4u][uniforms.gather_axis %% 4u]) {")
	b.Line("    output[global_idx] = %s(0);", elem)
	b.Line("    return;")
	b.Line("}")
	b.Line("data_indices[uniforms.gather_axis] = u32(gather);")
	b.Line("for (var i = uniforms.gather_axis + 1u; i < %du; i++) {", k.dataRank)
	b.Line("    data_indices[i] = output_indices[%s];", shifted(k.indicesRank))
	b.Line("}")

	b.Line("let data_offset = data_indices_to_offset(data_indices);")
	b.Line("let quantized = unpack_lane(data[data_offset / 8u], data_offset %% 8u);")
	b.Line("var block_indices = data_indices;")
	b.Line("block_indices[uniforms.quantize_axis] = data_indices[uniforms.quantize_axis] / uniforms.block_size;")
	b.Line("let scale = scales[scales_indices_to_offset(block_indices)];")
	if k.zeroPoint {
		b.Line("let zp_offset = zero_point_indices_to_offset(block_indices);")
		b.Line("let zp = unpack_lane(zero_point[zp_offset / 8u], zp_offset %% 8u);")
	} else {
		b.Line("let zp = 0i;")
	}
	b.Line("output[global_idx] = %s(quantized - zp) * scale;", elem)
	return b.Render("output_size")
}

// shifted returns the output coordinate expression for data axis i after the
// gather axis: i + rank(indices) - 1.
func shifted(indicesRank int) string {
	switch indicesRank {
	case 0:
		return "i - 1u"
	case 1:
		return "i"
	default:
		return fmt.Sprintf("i + %du", indicesRank-1)
	}
}

func unpackLane(signed bool) string {
	ext := "i32(nibble)"
	if signed {
		ext = "bitcast<i32>(nibble << 28u) >> 28u"
	}
	return fmt.Sprintf(`
fn unpack_lane(word: u32, lane: u32) -> i32 {
    let packed = (word >> (4u * (lane %% 2u))) & 0x0f0f0f0fu;
    let nibble = (packed >> (8u * (lane / 2u))) & 0xfu;
    return %s;
}`, ext)
}
