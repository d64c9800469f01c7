package gbq

import (
	"strings"

	"github.com/born-ml/gbq/internal/program"
	"github.com/born-ml/gbq/internal/tensor"
)

// WorkgroupSize is the number of invocations per dispatched group.
const WorkgroupSize = 64

// CacheKey returns the descriptor cache key for a call: the attribute key
// followed by every input's dtype and dims. Inputs must be non-nil.
func CacheKey(inputs []*tensor.RawTensor, attrs Attributes) string {
	var sb strings.Builder
	sb.WriteString(attrs.CacheKey())
	for _, in := range inputs {
		sb.WriteByte(';')
		sb.WriteString(in.DType().String())
		sb.WriteByte(':')
		sb.WriteString(in.Shape().Key())
	}
	return sb.String()
}

// Build validates inputs and assembles the kernel descriptor.
func Build(inputs []*tensor.RawTensor, attrs Attributes) (*program.Info, error) {
	ax, err := validate(inputs, attrs)
	if err != nil {
		return nil, err
	}
	return build(inputs, attrs, ax)
}

func build(inputs []*tensor.RawTensor, attrs Attributes, ax axes) (*program.Info, error) {
	data, indices, scales := inputs[InputData], inputs[InputIndices], inputs[InputScales]
	outShape := OutputShape(data.Shape(), indices.Shape(), ax.gather)
	outType := scales.DType()
	outSize := outShape.NumElements()

	dispatch, err := program.NormalizeDispatch(
		[3]uint32{program.GroupsFor(outSize, WorkgroupSize), 1, 1},
		program.MaxWorkgroupsPerDimension)
	if err != nil {
		return nil, err
	}

	uniforms := program.Uniforms{
		program.Scalar("output_size", uint32(outSize)),       //nolint:gosec // G115: element count
		program.Scalar("quantize_axis", uint32(ax.quantize)), //nolint:gosec // G115: normalized axis
		program.Scalar("gather_axis", uint32(ax.gather)),     //nolint:gosec // G115: normalized axis
		program.Scalar("block_size", uint32(ax.blockSize)),   //nolint:gosec // G115: validated positive
	}
	pins := make([]program.Input, len(inputs))
	for i, in := range inputs {
		pins[i] = program.Input{
			Name:       inputNames[i],
			DType:      in.DType(),
			Shape:      in.Shape().Clone(),
			Dependency: program.DependencyRank,
		}
		uniforms = append(uniforms, program.ShapeVariables(inputNames[i], in.Shape())...)
	}
	uniforms = append(uniforms, program.ShapeVariables("output", outShape)...)

	k := &kernel{
		mapping:     MappingFor(indices.Rank()),
		signed:      data.DType().IsSigned(),
		outType:     outType,
		zeroPoint:   len(inputs) == 4,
		dataRank:    data.Rank(),
		indicesRank: indices.Rank(),
		outputRank:  len(outShape),
		uniforms:    uniforms,
	}

	return &program.Info{
		Name:          OpName,
		CacheKey:      CacheKey(inputs, attrs),
		Inputs:        pins,
		Output:        program.Output{Name: "output", DType: outType, Shape: outShape},
		WorkgroupSize: WorkgroupSize,
		Dispatch:      dispatch,
		Uniforms:      uniforms,
		Formula:       k.String(),
		Kernel:        k,
	}, nil
}
