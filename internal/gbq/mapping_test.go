package gbq

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/born-ml/gbq/internal/tensor"
)

func TestMappingFor(t *testing.T) {
	assert.Equal(t, ScalarIndex, MappingFor(0))
	assert.Equal(t, ScalarIndex, MappingFor(1))
	assert.Equal(t, MultiIndex, MappingFor(2))
	assert.Equal(t, MultiIndex, MappingFor(4))
	assert.Equal(t, "MultiIndex", MultiIndex.String())
}

func TestMapperScalarIndex(t *testing.T) {
	// data [4,4], indices [2], gather on 0, blocks of 2 along 1.
	m := NewMapper(tensor.Shape{4, 4}, tensor.Shape{2}, tensor.Shape{4, 2}, 0, 1, 2)
	assert.Equal(t, ScalarIndex, m.Mapping)
	assert.Equal(t, tensor.Shape{2, 4}, m.Output)

	out := make([]int, 2)
	m.OutputIndex(7, out)
	assert.Equal(t, []int{1, 3}, out)
	assert.Equal(t, 1, m.IndicesOffset(out))

	dataIdx := make([]int, 2)
	m.DataIndex(out, 0, dataIdx)
	assert.Equal(t, []int{0, 3}, dataIdx)

	loc := m.Locate(dataIdx)
	assert.Equal(t, Location{DataOffset: 3, Word: 0, Lane: 3, BlockOffset: 1}, loc)

	loc = m.Locate([]int{3, 2})
	assert.Equal(t, Location{DataOffset: 14, Word: 1, Lane: 6, BlockOffset: 7}, loc)
}

func TestMapperRankZeroIndices(t *testing.T) {
	m := NewMapper(tensor.Shape{3, 5}, tensor.Shape{}, tensor.Shape{3, 5}, 0, 1, 1)
	assert.Equal(t, ScalarIndex, m.Mapping)
	assert.Equal(t, tensor.Shape{5}, m.Output)

	out := []int{4}
	assert.Equal(t, 0, m.IndicesOffset(out))

	dataIdx := make([]int, 2)
	m.DataIndex(out, 2, dataIdx)
	assert.Equal(t, []int{2, 4}, dataIdx)
}

func TestMapperMultiIndex(t *testing.T) {
	// data [2,5,3], indices [2,2], gather on 1 -> output [2,2,2,3].
	m := NewMapper(tensor.Shape{2, 5, 3}, tensor.Shape{2, 2}, tensor.Shape{2, 5, 2}, 1, 2, 2)
	assert.Equal(t, MultiIndex, m.Mapping)
	assert.Equal(t, tensor.Shape{2, 2, 2, 3}, m.Output)

	out := []int{1, 1, 0, 2}
	assert.Equal(t, 2, m.IndicesOffset(out))

	dataIdx := make([]int, 3)
	m.DataIndex(out, 4, dataIdx)
	assert.Equal(t, []int{1, 4, 2}, dataIdx)

	loc := m.Locate(dataIdx)
	assert.Equal(t, 1*15+4*3+2, loc.DataOffset)
	assert.Equal(t, loc.DataOffset/8, loc.Word)
	assert.Equal(t, loc.DataOffset%8, loc.Lane)
	// Block coordinate [1,4,1] in scales [2,5,2].
	assert.Equal(t, 1*10+4*2+1, loc.BlockOffset)
}

func TestMapperQuantizeOnGatherAxis(t *testing.T) {
	m := NewMapper(tensor.Shape{9, 2}, tensor.Shape{3}, tensor.Shape{3, 2}, 0, 0, 4)
	loc := m.Locate([]int{8, 1})
	assert.Equal(t, 17, loc.DataOffset)
	assert.Equal(t, 2*2+1, loc.BlockOffset)
}
