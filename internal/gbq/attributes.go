// Package gbq implements GatherBlockQuantized: a gather along one axis of a
// 4-bit block-quantized packed tensor, dequantized per element with
// per-block scales and optional zero points.
//
// The package validates inputs, performs the per-element index arithmetic
// and builds a program.Info that any program.Executor can run.
package gbq

import "fmt"

// OpName is the operator name used for descriptors and registry lookup.
const OpName = "GatherBlockQuantized"

// Default attribute values, matching the com.microsoft contrib operator.
const (
	DefaultGatherAxis   = 0
	DefaultQuantizeAxis = 1
	DefaultBlockSize    = 128
)

// Attributes configures one gather. Axes may be negative and are normalized
// against the rank of data.
type Attributes struct {
	GatherAxis   int64 `json:"gather_axis" yaml:"gather_axis"`
	QuantizeAxis int64 `json:"quantize_axis" yaml:"quantize_axis"`
	BlockSize    int64 `json:"block_size" yaml:"block_size"`
}

// DefaultAttributes returns the operator defaults.
func DefaultAttributes() Attributes {
	return Attributes{
		GatherAxis:   DefaultGatherAxis,
		QuantizeAxis: DefaultQuantizeAxis,
		BlockSize:    DefaultBlockSize,
	}
}

// CacheKey is a deterministic encoding of the attributes.
func (a Attributes) CacheKey() string {
	return fmt.Sprintf("gatherAxis=%d;quantizeAxis=%d;blockSize=%d", a.GatherAxis, a.QuantizeAxis, a.BlockSize)
}
