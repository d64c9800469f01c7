package program

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/born-ml/gbq/internal/logger"
)

// ErrReleased is returned by a Manager after Release.
var ErrReleased = errors.New("program: manager released")

// Manager memoizes kernel descriptors by cache key. It is owned by one
// executor: created when the executor starts and released when it shuts down.
//
// Lookups and stores take the lock; builds run outside it, so concurrent
// misses on the same key may build twice and the last store wins. Builds
// for one key are value-equal.
type Manager struct {
	mu       sync.RWMutex
	programs map[string]*Info
	released bool

	builds atomic.Uint64
	hits   atomic.Uint64

	log logger.Logger
}

// NewManager creates an empty descriptor cache.
func NewManager(log logger.Logger) *Manager {
	if log == nil {
		log = logger.Discard()
	}
	return &Manager{
		programs: make(map[string]*Info),
		log:      log,
	}
}

// GetOrBuild returns the descriptor cached under key, calling build on a miss.
// A failed build is not cached.
func (m *Manager) GetOrBuild(key string, build func() (*Info, error)) (*Info, error) {
	m.mu.RLock()
	if m.released {
		m.mu.RUnlock()
		return nil, ErrReleased
	}
	if info, ok := m.programs[key]; ok {
		m.mu.RUnlock()
		m.hits.Add(1)
		return info, nil
	}
	m.mu.RUnlock()

	info, err := build()
	if err != nil {
		return nil, err
	}
	m.builds.Add(1)
	m.log.Debug("program built", "name", info.Name, "key", key,
		"groups", info.GroupCount(), "workgroup_size", info.WorkgroupSize)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return nil, ErrReleased
	}
	m.programs[key] = info
	return info, nil
}

// Get returns a cached descriptor without building.
func (m *Manager) Get(key string) (*Info, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.programs[key]
	return info, ok
}

// Builds returns how many descriptors were built.
func (m *Manager) Builds() uint64 {
	return m.builds.Load()
}

// Hits returns how many lookups were served from the cache.
func (m *Manager) Hits() uint64 {
	return m.hits.Load()
}

// Len returns the number of cached descriptors.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.programs)
}

// Release drops every cached descriptor. Later lookups fail with ErrReleased.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.programs = nil
	m.released = true
}
