// File: pool/manager.go
// Author: momentics <momentics@gmail.com>
//
// Cross-platform NUMA-keyed pool manager with lazy construction.
// All public API is OS/NUMA-agnostic; reservation backends live in the
// platform-specific reserve files.

package pool

import (
	"sync"
)

// Manager provides independent pinned pools per NUMA node.
type Manager struct {
	mu        sync.RWMutex
	pools     map[int]*Pool
	poolSize  int
	blockSize int
	opts      []Option
}

// NewManager creates a manager whose pools share size, granularity and
// options. No memory is reserved until GetPool is first called for a node.
func NewManager(poolSize, blockSize int, opts ...Option) *Manager {
	return &Manager{
		pools:     make(map[int]*Pool),
		poolSize:  poolSize,
		blockSize: blockSize,
		opts:      opts,
	}
}

// GetPool obtains or creates the pool for a NUMA node.
// Node -1 means "system default"; other values refer to platform-specific IDs.
func (m *Manager) GetPool(numaNode int) (*Pool, error) {
	m.mu.RLock()
	p, ok := m.pools[numaNode]
	m.mu.RUnlock()
	if ok {
		return p, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.pools[numaNode]; ok {
		return p, nil
	}
	opts := append([]Option{WithNUMANode(numaNode)}, m.opts...)
	p, err := New(m.poolSize, m.blockSize, opts...)
	if err != nil {
		return nil, err
	}
	m.pools[numaNode] = p
	return p, nil
}

// CloseAll tears down every constructed pool. The first error is returned;
// teardown still runs for the remaining pools.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var first error
	for node, p := range m.pools {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
		delete(m.pools, node)
	}
	return first
}
