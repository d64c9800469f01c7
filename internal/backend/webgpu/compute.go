//go:build windows

package webgpu

import (
	"context"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/born-ml/gbq/internal/program"
	"github.com/born-ml/gbq/internal/tensor"
)

const (
	outputUsage  = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst
	stagingUsage = wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst
)

// compileShader compiles WGSL shader code into a ShaderModule.
// Results are cached in the Backend's shaders map.
func (b *Backend) compileShader(key, code string) *wgpu.ShaderModule {
	b.mu.RLock()
	if shader, exists := b.shaders[key]; exists {
		b.mu.RUnlock()
		return shader
	}
	b.mu.RUnlock()

	shader := b.device.CreateShaderModuleWGSL(code)

	b.mu.Lock()
	b.shaders[key] = shader
	b.mu.Unlock()

	return shader
}

// getOrCreatePipeline returns a cached ComputePipeline or creates a new one.
func (b *Backend) getOrCreatePipeline(key string, shader *wgpu.ShaderModule) *wgpu.ComputePipeline {
	b.mu.RLock()
	if pipeline, exists := b.pipelines[key]; exists {
		b.mu.RUnlock()
		return pipeline
	}
	b.mu.RUnlock()

	// Auto layout (nil layout) from the shader's bindings.
	pipeline := b.device.CreateComputePipelineSimple(nil, shader, "main")

	b.mu.Lock()
	b.pipelines[key] = pipeline
	b.mu.Unlock()

	return pipeline
}

// createBuffer creates a GPU buffer and uploads data through MappedAtCreation.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	b.trackBufferAllocation(size)
	return buffer
}

func (b *Backend) releaseBuffer(buffer *wgpu.Buffer, size uint64) {
	buffer.Release()
	b.trackBufferRelease(size)
}

// readBuffer copies size bytes of src back to host memory through a pooled
// staging buffer.
func (b *Backend) readBuffer(src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging, stagingSize := b.bufferPool.Acquire(size, stagingUsage)
	defer b.bufferPool.Release(staging, stagingSize, stagingUsage)

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	if err := staging.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, errors.Wrap(err, "webgpu: map staging buffer")
	}
	mappedPtr := staging.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)
	staging.Unmap()

	return result, nil
}

// Run compiles (once per cache key) and dispatches a descriptor, then reads
// the output back into a new host tensor.
func (b *Backend) Run(ctx context.Context, info *program.Info, inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "webgpu")
	}
	if info.Kernel == nil {
		return nil, errors.Errorf("webgpu: program %s has no kernel", info.Name)
	}
	if err := info.CheckInputs(inputs); err != nil {
		return nil, errors.Wrap(err, "webgpu")
	}
	if info.Output.DType == tensor.Float16 {
		// RequestDevice(nil) does not enable the shader-f16 feature.
		return nil, errors.Errorf("webgpu: %s: float16 output needs the shader-f16 device feature", info.Name)
	}

	key := info.CacheKey
	if key == "" {
		key = info.Name
	}
	shader := b.compileShader(key, info.Kernel.WGSL(info.WorkgroupSize))
	pipeline := b.getOrCreatePipeline(key, shader)

	entries := make([]wgpu.BindGroupEntry, 0, len(inputs)+2)
	for i, in := range inputs {
		data, err := StorageBytes(in)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: input %s", info.Name, info.Inputs[i].Name)
		}
		buf := b.createBuffer(data, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
		defer b.releaseBuffer(buf, uint64(len(data)))
		//nolint:gosec // G115: binding index is small
		entries = append(entries, wgpu.BufferBindingEntry(uint32(i), buf, 0, uint64(len(data))))
	}

	outSize := OutputByteSize(info.Output.DType, info.Output.Shape)
	outBuf, outClass := b.bufferPool.Acquire(outSize, outputUsage)
	defer b.bufferPool.Release(outBuf, outClass, outputUsage)
	//nolint:gosec // G115: binding index is small
	entries = append(entries, wgpu.BufferBindingEntry(uint32(len(inputs)), outBuf, 0, outSize))

	params := info.Uniforms.Bytes()
	paramBuf := b.createBuffer(params, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	defer b.releaseBuffer(paramBuf, uint64(len(params)))
	//nolint:gosec // G115: binding index is small
	entries = append(entries, wgpu.BufferBindingEntry(uint32(len(inputs)+1), paramBuf, 0, uint64(len(params))))

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, entries)
	defer bindGroup.Release()

	b.log.Debug("dispatch",
		"id", uuid.NewString(),
		"program", info.Name,
		"dispatch", info.Dispatch,
		"workgroup_size", info.WorkgroupSize,
		"output_size", info.OutputSize())

	encoder := b.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	computePass.DispatchWorkgroups(info.Dispatch[0], info.Dispatch[1], info.Dispatch[2])
	computePass.End()
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	raw, err := b.readBuffer(outBuf, outSize)
	if err != nil {
		return nil, err
	}
	result, err := tensor.NewRaw(info.Output.Shape, info.Output.DType, tensor.CPU)
	if err != nil {
		return nil, errors.Wrapf(err, "webgpu: allocate %s output", info.Name)
	}
	copy(result.Data(), raw)
	return result, nil
}
