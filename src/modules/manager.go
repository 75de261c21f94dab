package modules

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Module is a long running part of the bot that can be started and stopped.
type Module interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context)
}

// Manager coordinates lifecycle of all registered modules.
type Manager struct {
	log     *zap.Logger
	modules []Module

	mu      sync.Mutex
	started []Module
}

// NewManager creates a manager for mods. Nil modules are skipped, so optional parts can be
// passed unconditionally.
func NewManager(log *zap.Logger, mods ...Module) *Manager {
	m := &Manager{log: log.Named("modules")}
	for _, mod := range mods {
		if mod != nil {
			m.modules = append(m.modules, mod)
		}
	}
	return m
}

// Add registers additional modules before Start is invoked.
func (m *Manager) Add(mod Module) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started != nil {
		return fmt.Errorf("modules: cannot add %s after start", mod.Name())
	}
	m.modules = append(m.modules, mod)
	return nil
}

// Start starts modules in registration order. If one fails, the ones already started are
// stopped in reverse order.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started != nil {
		return fmt.Errorf("modules: already started")
	}

	started := make([]Module, 0, len(m.modules))
	for _, mod := range m.modules {
		if err := mod.Start(ctx); err != nil {
			m.log.Error("module failed to start", zap.String("module", mod.Name()), zap.Error(err))
			stopAll(ctx, started)
			return fmt.Errorf("modules: %s failed: %w", mod.Name(), err)
		}
		m.log.Info("module started", zap.String("module", mod.Name()))
		started = append(started, mod)
	}
	m.started = started
	return nil
}

// Stop shuts down started modules in reverse order.
func (m *Manager) Stop(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stopAll(ctx, m.started)
	for i := len(m.started) - 1; i >= 0; i-- {
		m.log.Info("module stopped", zap.String("module", m.started[i].Name()))
	}
	m.started = nil
}

func stopAll(ctx context.Context, mods []Module) {
	for i := len(mods) - 1; i >= 0; i-- {
		mods[i].Stop(ctx)
	}
}
