package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"codecompanion/internal/logging"
)

// Mediator is the only channel between the orchestrator and the views.
// Panels never reference each other; they post to and subscribe on panel names.
type Mediator interface {
	Post(panel string, msg Message) error
	Subscribe(panel string, handler func(Message)) (unsubscribe func())
}

func outboundTopic(panel string) string { return "panel:" + panel + ":out" }
func inboundTopic(panel string) string  { return "panel:" + panel + ":in" }

// WailsMediator carries messages over the Wails runtime events.
type WailsMediator struct {
	ctx context.Context
}

func NewWailsMediator() *WailsMediator {
	return &WailsMediator{}
}

func (m *WailsMediator) Startup(ctx context.Context) {
	m.ctx = ctx
}

func (m *WailsMediator) Post(panel string, msg Message) error {
	if m == nil || m.ctx == nil {
		return fmt.Errorf("mediator not started")
	}
	runtime.EventsEmit(m.ctx, outboundTopic(panel), msg)
	return nil
}

func (m *WailsMediator) Subscribe(panel string, handler func(Message)) func() {
	if m == nil || m.ctx == nil {
		return func() {}
	}
	return runtime.EventsOn(m.ctx, inboundTopic(panel), func(data ...interface{}) {
		if len(data) == 0 {
			return
		}
		msg, err := toMessage(data[0])
		if err != nil {
			logging.WithFields("panel", panel).Warnf("dropping malformed view message: %v", err)
			return
		}
		handler(msg)
	})
}

// toMessage converts the generic value decoded by the webview bridge into a Message.
func toMessage(v interface{}) (Message, error) {
	if msg, ok := v.(Message); ok {
		return msg, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return Message{}, err
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{}, err
	}
	if msg.Command == "" {
		return Message{}, fmt.Errorf("missing command")
	}
	return msg, nil
}

// MemoryMediator keeps posted messages in memory and lets callers inject view messages.
type MemoryMediator struct {
	mu       sync.Mutex
	posted   map[string][]Message
	handlers map[string]map[int]func(Message)
	nextID   int
}

func NewMemoryMediator() *MemoryMediator {
	return &MemoryMediator{
		posted:   make(map[string][]Message),
		handlers: make(map[string]map[int]func(Message)),
	}
}

func (m *MemoryMediator) Post(panel string, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posted[panel] = append(m.posted[panel], msg)
	return nil
}

func (m *MemoryMediator) Subscribe(panel string, handler func(Message)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	if m.handlers[panel] == nil {
		m.handlers[panel] = make(map[int]func(Message))
	}
	m.handlers[panel][id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.handlers[panel], id)
		})
	}
}

// Send delivers a view message to the subscribers of panel. It reports whether anyone listened.
func (m *MemoryMediator) Send(panel string, msg Message) bool {
	m.mu.Lock()
	handlers := make([]func(Message), 0, len(m.handlers[panel]))
	for _, h := range m.handlers[panel] {
		handlers = append(handlers, h)
	}
	m.mu.Unlock()

	for _, h := range handlers {
		h(msg)
	}
	return len(handlers) > 0
}

// Posted returns a copy of the messages posted to panel.
func (m *MemoryMediator) Posted(panel string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.posted[panel]))
	copy(out, m.posted[panel])
	return out
}

// Subscribers returns the number of live subscriptions for panel.
func (m *MemoryMediator) Subscribers(panel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handlers[panel])
}
