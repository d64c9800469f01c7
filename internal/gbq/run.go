package gbq

import (
	"context"

	"github.com/born-ml/gbq/internal/logger"
	"github.com/born-ml/gbq/internal/program"
	"github.com/born-ml/gbq/internal/tensor"
)

// Options tunes Run.
type Options struct {
	// CheckIndices rejects gather values outside [0, dims(data)[gatherAxis])
	// with ErrIndexOutOfRange before dispatch. Unchecked, such elements
	// are written as 0.
	CheckIndices bool
}

// Run validates inputs, fetches or builds the descriptor in exec's program
// manager and executes it. The returned tensor is freshly allocated.
// Run logs to the logger carried by ctx (logger.WithContext).
func Run(ctx context.Context, exec program.Executor, inputs []*tensor.RawTensor, attrs Attributes, opts Options) (*tensor.RawTensor, error) {
	ax, err := validate(inputs, attrs)
	if err != nil {
		return nil, err
	}
	if opts.CheckIndices {
		if err := checkIndices(inputs, ax); err != nil {
			return nil, err
		}
	}

	key := CacheKey(inputs, attrs)
	info, err := exec.Programs().GetOrBuild(key, func() (*program.Info, error) {
		return build(inputs, attrs, ax)
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Debug("gather block quantized",
		"cache_key", key, "mapping", MappingFor(inputs[InputIndices].Rank()).String(),
		"dispatch", info.Dispatch, "check_indices", opts.CheckIndices)
	return exec.Run(ctx, info, inputs)
}
