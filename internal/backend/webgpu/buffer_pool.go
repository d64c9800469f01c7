//go:build windows

package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

// maxPooledPerClass caps how many idle buffers one size class keeps.
const maxPooledPerClass = 16

// poolKey identifies interchangeable buffers: same usage, same power-of-two size.
type poolKey struct {
	usage wgpu.BufferUsage
	size  uint64
}

// PoolStats reports buffer pool activity.
type PoolStats struct {
	Allocated uint64
	Released  uint64
	Hits      uint64
	Misses    uint64
	Pooled    int
}

// BufferPool reuses output and staging buffers across dispatches.
// Requested sizes are rounded up to a power of two.
type BufferPool struct {
	device *wgpu.Device
	idle   map[poolKey][]*wgpu.Buffer
	mu     sync.Mutex
	stats  PoolStats
}

// NewBufferPool creates a new buffer pool for the given device.
func NewBufferPool(device *wgpu.Device) *BufferPool {
	return &BufferPool{
		device: device,
		idle:   make(map[poolKey][]*wgpu.Buffer),
	}
}

// Acquire returns an idle buffer of the same class or creates one. The
// returned size is the buffer's real size.
func (p *BufferPool) Acquire(size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, uint64) {
	key := poolKey{usage: usage, size: SizeClass(size)}

	p.mu.Lock()
	defer p.mu.Unlock()

	if list := p.idle[key]; len(list) > 0 {
		buf := list[len(list)-1]
		p.idle[key] = list[:len(list)-1]
		p.stats.Hits++
		p.stats.Pooled--
		return buf, key.size
	}

	p.stats.Misses++
	p.stats.Allocated++
	buf := p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  key.size,
	})
	return buf, key.size
}

// Release returns a buffer obtained from Acquire. Full classes release it.
func (p *BufferPool) Release(buf *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	key := poolKey{usage: usage, size: size}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.Released++
	if len(p.idle[key]) >= maxPooledPerClass {
		buf.Release()
		return
	}
	p.idle[key] = append(p.idle[key], buf)
	p.stats.Pooled++
}

// Clear releases every idle buffer.
func (p *BufferPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key, list := range p.idle {
		for _, buf := range list {
			buf.Release()
		}
		delete(p.idle, key)
	}
	p.stats.Pooled = 0
}

// Stats returns a snapshot of pool activity.
func (p *BufferPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
