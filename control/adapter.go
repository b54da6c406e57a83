// control/adapter.go
// Author: momentics <momentics@gmail.com>
//
// Adapter implementing api.Control on top of the control primitives.

package control

import (
	"github.com/momentics/hioload-devmem/api"
)

// Adapter aggregates config, metrics, and debug probes behind api.Control.
type Adapter struct {
	config  *ConfigStore
	metrics *MetricsRegistry
	debug   *DebugProbes
}

var _ api.Control = (*Adapter)(nil)

// NewAdapter builds a Control with platform probes pre-registered.
func NewAdapter() *Adapter {
	a := &Adapter{
		config:  NewConfigStore(),
		metrics: NewMetricsRegistry(),
		debug:   NewDebugProbes(),
	}
	RegisterPlatformProbes(a.debug)
	return a
}

func (a *Adapter) GetConfig() map[string]any {
	return a.config.GetSnapshot()
}

func (a *Adapter) SetConfig(cfg map[string]any) error {
	a.config.SetConfig(cfg)
	return nil
}

func (a *Adapter) Stats() map[string]any {
	combined := a.metrics.GetSnapshot()
	for k, v := range a.debug.DumpState() {
		combined["debug."+k] = v
	}
	return combined
}

func (a *Adapter) OnReload(fn func()) {
	a.config.OnReload(fn)
}

// SetMetric publishes one metric value.
func (a *Adapter) SetMetric(key string, value any) {
	a.metrics.Set(key, value)
}

func (a *Adapter) RegisterDebugProbe(name string, fn func() any) {
	a.debug.RegisterProbe(name, fn)
}
