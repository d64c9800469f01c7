package operators

import (
	"context"
	"fmt"
	"sort"

	"github.com/born-ml/gbq/internal/gbq"
	"github.com/born-ml/gbq/internal/program"
	"github.com/born-ml/gbq/internal/tensor"
)

// DomainMicrosoft is the contrib operator domain.
const DomainMicrosoft = "com.microsoft"

// OpHandler processes an ONNX node and returns output tensors.
type OpHandler func(ctx context.Context, ec *Context, node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error)

// Context provides the executor and run options for operators.
type Context struct {
	Executor program.Executor
	Options  gbq.Options
}

// Registry maps (domain, operator type) to handler functions.
type Registry struct {
	handlers map[string]OpHandler
}

// NewRegistry creates a new operator registry with all supported operators.
func NewRegistry() *Registry {
	r := &Registry{
		handlers: make(map[string]OpHandler),
	}
	r.Register(DomainMicrosoft, gbq.OpName, gatherBlockQuantized)
	return r
}

// QualifiedName returns "domain::opType", or opType for the default domain.
func QualifiedName(domain, opType string) string {
	if domain == "" || domain == "ai.onnx" {
		return opType
	}
	return domain + "::" + opType
}

// Register adds an operator handler.
func (r *Registry) Register(domain, opType string, handler OpHandler) {
	r.handlers[QualifiedName(domain, opType)] = handler
}

// Get returns the handler for an operator.
func (r *Registry) Get(domain, opType string) (OpHandler, bool) {
	h, ok := r.handlers[QualifiedName(domain, opType)]
	return h, ok
}

// Execute runs the node's operator with the given inputs.
func (r *Registry) Execute(ctx context.Context, ec *Context, node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	handler, ok := r.Get(node.Domain, node.OpType)
	if !ok {
		return nil, fmt.Errorf("unsupported operator: %s", QualifiedName(node.Domain, node.OpType))
	}
	if ec == nil || ec.Executor == nil {
		return nil, fmt.Errorf("%s: no executor in context", node.OpType)
	}
	return handler(ctx, ec, node, inputs)
}

// SupportedOps returns every registered qualified operator name, sorted.
func (r *Registry) SupportedOps() []string {
	ops := make([]string, 0, len(r.handlers))
	for op := range r.handlers {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// GatherBlockQuantizedAttributes reads gather_axis, quantize_axis and
// block_size from a node, applying the operator defaults.
func GatherBlockQuantizedAttributes(node *Node) gbq.Attributes {
	return gbq.Attributes{
		GatherAxis:   GetAttrInt(node, "gather_axis", gbq.DefaultGatherAxis),
		QuantizeAxis: GetAttrInt(node, "quantize_axis", gbq.DefaultQuantizeAxis),
		BlockSize:    GetAttrInt(node, "block_size", gbq.DefaultBlockSize),
	}
}

func gatherBlockQuantized(ctx context.Context, ec *Context, node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	out, err := gbq.Run(ctx, ec.Executor, inputs, GatherBlockQuantizedAttributes(node), ec.Options)
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}
