package panels

import (
	"context"
	"fmt"
	"sync"

	"codecompanion/internal/events"
	"codecompanion/internal/logging"
)

// Manager keeps at most one live panel per kind.
type Manager struct {
	deps Deps

	mu   sync.Mutex
	live map[string]Panel
}

func NewManager(deps Deps) *Manager {
	return &Manager{deps: deps, live: make(map[string]Panel)}
}

// Open returns the live panel of kind, creating and initialising it when there is none.
func (m *Manager) Open(ctx context.Context, kind string) (Panel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.live[kind]; ok && !p.Disposed() {
		return p, nil
	}

	var p Panel
	switch kind {
	case events.PanelChat:
		p = NewChatPanel(m.deps)
	case events.PanelImage:
		p = NewImagePanel(m.deps)
	case events.PanelSettings:
		p = NewSettingsPanel(m.deps, m)
	default:
		return nil, fmt.Errorf("unknown panel %q", kind)
	}

	// settings can open other panels while it is being initialised
	m.mu.Unlock()
	err := p.Init(ctx)
	m.mu.Lock()
	if err != nil {
		return nil, err
	}
	if existing, ok := m.live[kind]; ok && !existing.Disposed() {
		p.Dispose(ctx)
		return existing, nil
	}
	m.live[kind] = p
	logging.FromContext(ctx).WithField("panel", kind).Info("panel opened")
	return p, nil
}

// Get returns the live panel of kind.
func (m *Manager) Get(kind string) (Panel, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.live[kind]
	if !ok || p.Disposed() {
		return nil, false
	}
	return p, true
}

// Close disposes the panel of kind, if any.
func (m *Manager) Close(ctx context.Context, kind string) {
	m.mu.Lock()
	p, ok := m.live[kind]
	delete(m.live, kind)
	m.mu.Unlock()
	if ok {
		p.Dispose(ctx)
	}
}

// CloseAll disposes every live panel.
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	live := m.live
	m.live = make(map[string]Panel)
	m.mu.Unlock()
	for _, p := range live {
		p.Dispose(ctx)
	}
}
