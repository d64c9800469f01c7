package main

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/gbq/internal/gbq"
	"github.com/born-ml/gbq/internal/onnx/operators"
	"github.com/born-ml/gbq/internal/tensor"
)

// caseFile describes one GatherBlockQuantized invocation.
//
//	attributes: {gather_axis: 0, quantize_axis: 1, block_size: 2}
//	data:       {dtype: uint4, shape: [4, 2], values: [1, 2, 3, 4, 5, 6, 7, 0]}
//	indices:    {dtype: int32, shape: [2], values: [3, 1]}
//	scales:     {dtype: float32, shape: [4, 1], values: [1, 2, 3, 4]}
//
// A tensor may name a raw little-endian file instead of listing values;
// packed data is read as stored. Tensors with neither are zero-filled.
type caseFile struct {
	Attributes caseAttributes `yaml:"attributes"`
	Data       tensorSpec     `yaml:"data"`
	Indices    tensorSpec     `yaml:"indices"`
	Scales     tensorSpec     `yaml:"scales"`
	ZeroPoint  *tensorSpec    `yaml:"zero_point"`

	dir string
}

type caseAttributes struct {
	GatherAxis   *int64 `yaml:"gather_axis"`
	QuantizeAxis *int64 `yaml:"quantize_axis"`
	BlockSize    *int64 `yaml:"block_size"`
}

type tensorSpec struct {
	DType  tensor.DataType `yaml:"dtype"`
	Shape  []int           `yaml:"shape"`
	Values []float64       `yaml:"values"`
	File   string          `yaml:"file"`
}

func loadCase(path string) (*caseFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading case %s", path)
	}
	var c caseFile
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrapf(err, "parsing case %s", path)
	}
	c.dir = filepath.Dir(path)
	return &c, nil
}

// node returns the ONNX node for the case; unset attributes keep the
// operator defaults.
func (c *caseFile) node() *operators.Node {
	n := &operators.Node{OpType: gbq.OpName, Domain: operators.DomainMicrosoft}
	set := func(name string, v *int64) {
		if v != nil {
			n.Attributes = append(n.Attributes, operators.IntAttr(name, *v))
		}
	}
	set("gather_axis", c.Attributes.GatherAxis)
	set("quantize_axis", c.Attributes.QuantizeAxis)
	set("block_size", c.Attributes.BlockSize)
	return n
}

func (c *caseFile) attributes() gbq.Attributes {
	return operators.GatherBlockQuantizedAttributes(c.node())
}

func (c *caseFile) inputs() ([]*tensor.RawTensor, error) {
	specs := []*tensorSpec{&c.Data, &c.Indices, &c.Scales}
	if c.ZeroPoint != nil {
		specs = append(specs, c.ZeroPoint)
	}
	names := []string{"data", "indices", "scales", "zero_point"}
	inputs := make([]*tensor.RawTensor, len(specs))
	for i, s := range specs {
		t, err := s.build(c.dir)
		if err != nil {
			return nil, errors.Wrap(err, names[i])
		}
		inputs[i] = t
	}
	return inputs, nil
}

func (s *tensorSpec) build(dir string) (*tensor.RawTensor, error) {
	shape := tensor.Shape(s.Shape)
	if s.File != "" {
		path := s.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		return readRaw(path, shape, s.DType)
	}
	if s.Values == nil {
		return tensor.NewRaw(shape, s.DType, tensor.CPU)
	}
	if len(s.Values) != shape.NumElements() {
		return nil, errors.Errorf("%d values for shape %v", len(s.Values), shape)
	}

	switch s.DType {
	case tensor.Int4, tensor.Uint4:
		q, err := integers[int8](s.Values)
		if err != nil {
			return nil, err
		}
		return tensor.FromNibbles(q, shape, s.DType)
	case tensor.Int32:
		v, err := integers[int32](s.Values)
		if err != nil {
			return nil, err
		}
		return tensor.FromSlice(v, shape)
	case tensor.Int64:
		v, err := integers[int64](s.Values)
		if err != nil {
			return nil, err
		}
		return tensor.FromSlice(v, shape)
	case tensor.Float32:
		v := make([]float32, len(s.Values))
		for i, x := range s.Values {
			v[i] = float32(x)
		}
		return tensor.FromSlice(v, shape)
	case tensor.Float16:
		buf := make([]byte, 2*len(s.Values))
		for i, x := range s.Values {
			binary.LittleEndian.PutUint16(buf[2*i:], tensor.Float32ToFloat16(float32(x)))
		}
		return tensor.FromBytes(buf, shape, tensor.Float16, tensor.CPU)
	default:
		return nil, errors.Errorf("values are not supported for %s", s.DType)
	}
}

func integers[T int8 | int32 | int64](values []float64) ([]T, error) {
	out := make([]T, len(values))
	for i, x := range values {
		if x != math.Trunc(x) {
			return nil, errors.Errorf("value %d (%g) is not an integer", i, x)
		}
		out[i] = T(x)
		if float64(out[i]) != x {
			return nil, errors.Errorf("value %d (%g) overflows", i, x)
		}
	}
	return out, nil
}

// readRaw maps a raw tensor file and copies the bytes the shape needs.
func readRaw(path string, shape tensor.Shape, dtype tensor.DataType) (*tensor.RawTensor, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer func() { _ = r.Close() }()

	need := dtype.ByteSize(shape.NumElements())
	if r.Len() < need {
		return nil, errors.Errorf("%s: %d bytes, %s%v needs %d", path, r.Len(), dtype, shape, need)
	}
	buf := make([]byte, need)
	if _, err := r.ReadAt(buf, 0); err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return tensor.FromBytes(buf, shape, dtype, tensor.CPU)
}
