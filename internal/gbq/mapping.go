package gbq

import (
	"github.com/born-ml/gbq/internal/tensor"
)

// IndexMapping selects how an output coordinate addresses indices. It is
// fixed per descriptor from the static rank of indices.
type IndexMapping int

const (
	// ScalarIndex reads a single coordinate: the output coordinate at
	// gatherAxis for rank-1 indices, offset 0 for rank-0 indices.
	ScalarIndex IndexMapping = iota
	// MultiIndex copies rank(indices) output coordinates starting at gatherAxis.
	MultiIndex
)

// MappingFor returns the mapping variant for an indices tensor of the given rank.
func MappingFor(indicesRank int) IndexMapping {
	if indicesRank > 1 {
		return MultiIndex
	}
	return ScalarIndex
}

// String returns the variant name.
func (m IndexMapping) String() string {
	if m == MultiIndex {
		return "MultiIndex"
	}
	return "ScalarIndex"
}

// MarshalText implements encoding.TextMarshaler.
func (m IndexMapping) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Location is where one output element reads its inputs from.
type Location struct {
	// DataOffset is the linear element offset into data.
	DataOffset int
	// Word is the index of the 32-bit container holding the element.
	Word int
	// Lane is the element's position (0..7) inside Word.
	Lane int
	// BlockOffset is the linear offset into scales and zero_point.
	BlockOffset int
}

// Mapper performs the per-element index arithmetic of one descriptor.
type Mapper struct {
	Mapping      IndexMapping
	GatherAxis   int
	QuantizeAxis int
	BlockSize    int

	Data    tensor.Shape
	Indices tensor.Shape
	Scales  tensor.Shape
	Output  tensor.Shape

	dataStrides    []int
	indicesStrides []int
	scalesStrides  []int
	outputStrides  []int
}

// NewMapper prepares strides for the given shapes. Shapes must already be validated.
func NewMapper(data, indices, scales tensor.Shape, gatherAxis, quantizeAxis, blockSize int) *Mapper {
	output := OutputShape(data, indices, gatherAxis)
	return &Mapper{
		Mapping:        MappingFor(len(indices)),
		GatherAxis:     gatherAxis,
		QuantizeAxis:   quantizeAxis,
		BlockSize:      blockSize,
		Data:           data,
		Indices:        indices,
		Scales:         scales,
		Output:         output,
		dataStrides:    data.ComputeStrides(),
		indicesStrides: indices.ComputeStrides(),
		scalesStrides:  scales.ComputeStrides(),
		outputStrides:  output.ComputeStrides(),
	}
}

// OutputIndex converts a linear output offset into dst (len rank(output)).
func (m *Mapper) OutputIndex(offset int, dst []int) {
	tensor.OffsetToIndices(offset, m.outputStrides, dst)
}

// IndicesOffset returns the linear offset into indices for an output coordinate.
func (m *Mapper) IndicesOffset(out []int) int {
	switch m.Mapping {
	case MultiIndex:
		off := 0
		for k, st := range m.indicesStrides {
			off += out[m.GatherAxis+k] * st
		}
		return off
	default:
		if len(m.Indices) == 0 {
			return 0
		}
		return out[m.GatherAxis]
	}
}

// DataIndex writes into dst (len rank(data)) the data coordinate that output
// coordinate out reads, given the gather value read from indices.
func (m *Mapper) DataIndex(out []int, gather int, dst []int) {
	copy(dst[:m.GatherAxis], out[:m.GatherAxis])
	dst[m.GatherAxis] = gather
	shift := len(m.Indices) - 1
	for i := m.GatherAxis + 1; i < len(dst); i++ {
		dst[i] = out[i+shift]
	}
}

// Locate computes the packed position and block offset of a data coordinate.
func (m *Mapper) Locate(dataIdx []int) Location {
	off := tensor.IndicesToOffset(dataIdx, m.dataStrides)
	block := 0
	for i, st := range m.scalesStrides {
		c := dataIdx[i]
		if i == m.QuantizeAxis {
			c /= m.BlockSize
		}
		block += c * st
	}
	return Location{
		DataOffset:  off,
		Word:        off / tensor.LanesPerWord,
		Lane:        off % tensor.LanesPerWord,
		BlockOffset: block,
	}
}
