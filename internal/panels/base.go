package panels

import (
	"context"
	"sync"

	"codecompanion/internal/events"
	"codecompanion/internal/logging"
)

// Panel is one view instance driven by messages from the mediator.
type Panel interface {
	Kind() string
	State() string
	Init(ctx context.Context) error
	Dispose(ctx context.Context)
	Disposed() bool
	Wait()
}

// basePanel owns the subscription, lifecycle and goroutines shared by every panel.
type basePanel struct {
	kind      string
	lifecycle *Lifecycle
	mediator  events.Mediator
	notifier  events.Notifier

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	unsubscribe func()
	wg          sync.WaitGroup
}

func newBasePanel(kind string, mediator events.Mediator, notifier events.Notifier) basePanel {
	return basePanel{
		kind:      kind,
		lifecycle: NewLifecycle(),
		mediator:  mediator,
		notifier:  notifier,
	}
}

func (p *basePanel) Kind() string   { return p.kind }
func (p *basePanel) State() string  { return p.lifecycle.State() }
func (p *basePanel) Disposed() bool { return p.lifecycle.Disposed() }

// Wait blocks until every in-flight handler has returned.
func (p *basePanel) Wait() { p.wg.Wait() }

// start moves the panel to ready and subscribes handle to its inbound messages.
// Each message is handled on its own goroutine.
func (p *basePanel) start(ctx context.Context, handle func(ctx context.Context, msg events.Message)) error {
	p.ctx, p.cancel = context.WithCancel(logging.WithPanel(ctx, p.kind))
	if err := p.lifecycle.Init(p.ctx); err != nil {
		return err
	}

	unsubscribe := p.mediator.Subscribe(p.kind, func(msg events.Message) {
		if p.Disposed() {
			return
		}
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			handle(p.ctx, msg)
		}()
	})

	p.mu.Lock()
	p.unsubscribe = unsubscribe
	p.mu.Unlock()
	return nil
}

func (p *basePanel) Dispose(ctx context.Context) {
	if !p.lifecycle.Dispose(ctx) {
		return
	}
	p.mu.Lock()
	unsubscribe := p.unsubscribe
	p.unsubscribe = nil
	p.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
	if p.cancel != nil {
		p.cancel()
	}
	logging.FromContext(ctx).WithField("panel", p.kind).Debug("panel disposed")
}

// post sends a message to the view. Messages for a disposed panel are dropped.
func (p *basePanel) post(ctx context.Context, command string, data any) {
	if p.Disposed() {
		logging.FromContext(ctx).WithField("command", command).Debug("dropping message for disposed panel")
		return
	}
	msg, err := events.NewMessage(command, data)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Error("failed to encode message")
		return
	}
	if err := p.mediator.Post(p.kind, msg); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("command", command).Error("failed to post message")
	}
}

func (p *basePanel) notify(notice events.Notice) {
	if p.notifier == nil {
		return
	}
	notice.Panel = p.kind
	p.notifier.Notify(notice)
}
