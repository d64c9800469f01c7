// Package program describes compute kernels in a backend-agnostic form: what to
// dispatch, with which uniforms, over which inputs. Executors turn an Info into
// work on the host or on a GPU.
package program

import (
	"context"
	"fmt"
	"strings"

	"github.com/born-ml/gbq/internal/tensor"
)

// Dependency tells an executor which properties of an input the compiled
// kernel was specialized on.
type Dependency int

// Input dependency flags.
const (
	DependencyNone  Dependency = 0
	DependencyType  Dependency = 1
	DependencyRank  Dependency = 2
	DependencyShape Dependency = 4

	DependencyTypeAndRank  = DependencyType | DependencyRank
	DependencyTypeAndShape = DependencyType | DependencyShape
)

// String returns a "|"-joined list of flags, e.g. "type|rank".
func (d Dependency) String() string {
	if d == DependencyNone {
		return "none"
	}
	var parts []string
	if d&DependencyType != 0 {
		parts = append(parts, "type")
	}
	if d&DependencyRank != 0 {
		parts = append(parts, "rank")
	}
	if d&DependencyShape != 0 {
		parts = append(parts, "shape")
	}
	return strings.Join(parts, "|")
}

// MarshalText implements encoding.TextMarshaler.
func (d Dependency) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Input is one bound input of a program.
type Input struct {
	Name       string          `json:"name"`
	DType      tensor.DataType `json:"dtype"`
	Shape      tensor.Shape    `json:"shape"`
	Dependency Dependency      `json:"dependency"`
}

// Output specifies the tensor an executor must allocate.
type Output struct {
	Name  string          `json:"name"`
	DType tensor.DataType `json:"dtype"`
	Shape tensor.Shape    `json:"shape"`
}

// Kernel is the structured per-invocation formula of a program. Each backend
// consumes it through its own emitter.
type Kernel interface {
	// Bind resolves uniforms and buffers once per dispatch and returns the
	// host implementation of a single invocation.
	Bind(u Uniforms, inputs []*tensor.RawTensor, output *tensor.RawTensor) (func(global int), error)
	// WGSL renders the kernel as a WGSL compute shader entry point "main".
	WGSL(workgroupSize uint32) string
	// String describes the per-element formula.
	String() string
}

// Info is a kernel descriptor: dispatch size, uniforms, inputs, output and formula.
type Info struct {
	Name          string    `json:"name"`
	CacheKey      string    `json:"cache_key"`
	Inputs        []Input   `json:"inputs"`
	Output        Output    `json:"output"`
	WorkgroupSize uint32    `json:"workgroup_size"`
	Dispatch      [3]uint32 `json:"dispatch"`
	Uniforms      Uniforms  `json:"uniforms"`
	Formula       string    `json:"formula"`
	Kernel        Kernel    `json:"-"`
}

// OutputSize returns the number of output elements (one invocation each).
func (i *Info) OutputSize() int {
	return i.Output.Shape.NumElements()
}

// GroupCount returns the total number of dispatched workgroups.
func (i *Info) GroupCount() int {
	return int(i.Dispatch[0]) * int(i.Dispatch[1]) * int(i.Dispatch[2])
}

// CheckInputs verifies that tensors match the descriptor's declared inputs.
func (i *Info) CheckInputs(inputs []*tensor.RawTensor) error {
	if len(inputs) != len(i.Inputs) {
		return fmt.Errorf("%s: expected %d inputs, got %d", i.Name, len(i.Inputs), len(inputs))
	}
	for k, in := range i.Inputs {
		t := inputs[k]
		if t == nil {
			return fmt.Errorf("%s: input %s is nil", i.Name, in.Name)
		}
		if t.DType() != in.DType || !t.Shape().Equal(in.Shape) {
			return fmt.Errorf("%s: input %s is %s%v, program was built for %s%v",
				i.Name, in.Name, t.DType(), t.Shape(), in.DType, in.Shape)
		}
	}
	return nil
}

// Executor runs kernel descriptors. Each executor owns the Manager that
// memoizes the descriptors built for it.
type Executor interface {
	Programs() *Manager
	Run(ctx context.Context, info *Info, inputs []*tensor.RawTensor) (*tensor.RawTensor, error)
}
