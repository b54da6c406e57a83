// File: facade/devmem.go
// Unified facade layer for the hioload-devmem library.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// This file defines the DevMem struct, which aggregates all core
// components of hioload-devmem behind a single facade: the pinned pool,
// the accelerator transfer layer with its async engine, the scheduling
// hint registry, telemetry, and the control surface. The facade exposes
// methods to start/stop the system, allocate and free pinned regions,
// submit transfers, and render the status report.

package facade

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/momentics/hioload-devmem/api"
	"github.com/momentics/hioload-devmem/control"
	"github.com/momentics/hioload-devmem/device"
	"github.com/momentics/hioload-devmem/pool"
	"github.com/momentics/hioload-devmem/sched"
	"github.com/momentics/hioload-devmem/telemetry"
)

// Config holds parameters immutable per run.
// All fields influence the initialization of internal components and
// cannot be changed at runtime except via the Control interface.
type Config struct {
	PoolSize        int  // total pinned pool size in bytes
	BlockSize       int  // allocation granularity in bytes
	StagingSize     int  // device staging buffer size in bytes
	NUMANode        int  // preferred NUMA node for the pool
	WorkerCPU       int  // logical CPU for the transfer worker, -1 floats
	EnableDevice    bool // probe for an accelerator and reserve staging
	EnableTelemetry bool // register Prometheus collectors

	// Registry receives telemetry metrics; the default Prometheus
	// registerer is used when nil.
	Registry prometheus.Registerer

	// Reserver overrides the platform reservation backend. Tests and
	// unprivileged environments use pool.HeapReserver().
	Reserver pool.Reserver

	// Prober overrides accelerator discovery.
	Prober device.Prober
}

// DefaultConfig returns default configuration values for a resident
// 256 MiB pool carved into page-sized blocks.
func DefaultConfig() *Config {
	return &Config{
		PoolSize:        256 * 1024 * 1024, // 256 MiB pool
		BlockSize:       4 * 1024,          // 4 KiB blocks
		StagingSize:     64 * 1024 * 1024,  // 64 MiB staging buffer
		NUMANode:        -1,                // auto-select NUMA node
		WorkerCPU:       -1,                // transfer worker floats
		EnableDevice:    true,
		EnableTelemetry: true,
	}
}

// DevMem is the main facade type.
// It implements api.GracefulShutdown to allow unified shutdown logic.
type DevMem struct {
	pool     *pool.Pool
	dev      *device.Device
	engine   *device.TransferEngine
	registry *sched.Registry
	ctl      *control.Adapter
	tel      api.Telemetry

	config  *Config
	mu      sync.RWMutex
	started bool
}

// Ensure compliance with api.GracefulShutdown.
var _ api.GracefulShutdown = (*DevMem)(nil)

// New constructs DevMem with the given configuration. It initializes the
// control surface, telemetry, the pinned pool, and — unless disabled or
// absent — the accelerator transfer layer with its async engine.
func New(cfg *Config) (*DevMem, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	m := &DevMem{config: cfg, registry: sched.NewRegistry()}

	m.ctl = control.NewAdapter()

	if cfg.EnableTelemetry {
		reg := cfg.Registry
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		m.tel = telemetry.NewCollector(reg)
	} else {
		m.tel = telemetry.Nop()
	}

	poolOpts := []pool.Option{
		pool.WithNUMANode(cfg.NUMANode),
		pool.WithTelemetry(m.tel),
	}
	if cfg.Reserver != nil {
		poolOpts = append(poolOpts, pool.WithReserver(cfg.Reserver))
	}
	p, err := pool.New(cfg.PoolSize, cfg.BlockSize, poolOpts...)
	if err != nil {
		return nil, fmt.Errorf("pool init failure: %w", err)
	}
	m.pool = p

	if cfg.EnableDevice {
		d, err := device.New(p, device.Config{
			StagingSize: cfg.StagingSize,
			Prober:      cfg.Prober,
			Telemetry:   m.tel,
		})
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("device init failure: %w", err)
		}
		m.dev = d
		m.engine = device.NewPinnedTransferEngine(d, cfg.WorkerCPU)
	}

	// Expose configuration values via Control for observability.
	_ = m.ctl.SetConfig(map[string]any{
		"pool.size":         cfg.PoolSize,
		"pool.block_size":   cfg.BlockSize,
		"device.staging":    cfg.StagingSize,
		"device.enabled":    cfg.EnableDevice,
		"telemetry.enabled": cfg.EnableTelemetry,
	})
	m.ctl.RegisterDebugProbe("pool.stats", func() any { return m.pool.Stats() })
	if m.dev != nil {
		m.ctl.RegisterDebugProbe("device.stats", func() any { return m.dev.Stats() })
	}

	return m, nil
}

// Start marks the facade live and publishes initial metrics.
// Subsequent calls to Start() have no effect.
func (m *DevMem) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}
	m.publishMetrics()
	m.started = true
	return nil
}

// Stop cleans up resources: drains the transfer engine, returns the
// staging buffer, and tears down the pool. Calling Stop() on a
// non-started facade still releases resources; it is idempotent.
func (m *DevMem) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.engine != nil {
		m.engine.Close()
		m.engine = nil
	}
	if m.dev != nil {
		if err := m.dev.Close(); err != nil {
			return err
		}
		m.dev = nil
	}
	if err := m.pool.Close(); err != nil {
		return err
	}
	m.started = false
	return nil
}

// Shutdown implements api.GracefulShutdown by delegating to Stop().
func (m *DevMem) Shutdown() error {
	return m.Stop()
}

// Alloc reserves pinned memory for the calling process.
func (m *DevMem) Alloc(size int) (api.Region, error) {
	return m.pool.Alloc(size, api.Owner(os.Getpid()))
}

// AllocFor reserves pinned memory attributed to an explicit owner.
func (m *DevMem) AllocFor(size int, owner api.Owner) (api.Region, error) {
	return m.pool.Alloc(size, owner)
}

// Free returns a region to the pool.
func (m *DevMem) Free(r api.Region) error {
	return m.pool.Free(r)
}

// Submit queues an async transfer; api.ErrNoDevice surfaces through the
// transfer's Done channel when the facade runs degraded.
func (m *DevMem) Submit(tr device.Transfer) error {
	m.mu.RLock()
	engine := m.engine
	m.mu.RUnlock()
	if engine == nil {
		return api.ErrEngineClosed
	}
	return engine.Submit(tr)
}

// Pool returns the pinned pool allocator.
func (m *DevMem) Pool() *pool.Pool { return m.pool }

// Device returns the transfer layer, nil when disabled.
func (m *DevMem) Device() *device.Device { return m.dev }

// Scheduler returns the workload hint registry.
func (m *DevMem) Scheduler() *sched.Registry { return m.registry }

// Control returns the dynamic config and metrics interface.
func (m *DevMem) Control() api.Control { return m.ctl }

// Status renders the plain-text report of every subsystem.
func (m *DevMem) Status() string {
	m.publishMetrics()

	st := control.Status{
		Pool:            m.pool.Stats(),
		Utilization:     m.registry.Utilization(),
		DeviceAvailable: m.registry.Available(),
		Tasks:           m.registry.Snapshot(),
	}
	m.mu.RLock()
	if m.dev != nil && m.dev.Present() {
		info := m.dev.Info()
		st.DevicePresent = true
		st.DeviceName = fmt.Sprintf("%04x:%04x @ %s", info.Vendor, info.Device, info.Address)
		st.Device = m.dev.Stats()
	}
	m.mu.RUnlock()

	var sb strings.Builder
	_ = control.Render(&sb, st)
	return sb.String()
}

func (m *DevMem) publishMetrics() {
	st := m.pool.Stats()
	m.ctl.SetMetric("pool.allocated_bytes", st.AllocatedBytes)
	m.ctl.SetMetric("pool.allocated_blocks", st.AllocatedBlocks)
	m.ctl.SetMetric("pool.alloc_failures", st.AllocFailures)
}
