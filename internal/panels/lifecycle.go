package panels

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/looplab/fsm"
)

const (
	StateUninitialized = "uninitialized"
	StateReady         = "ready"
	StateAwaiting      = "awaiting"
	StateDisposed      = "disposed"
)

const (
	eventInit    = "init"
	eventSubmit  = "submit"
	eventSettle  = "settle"
	eventDispose = "dispose"
)

var (
	ErrPanelDisposed   = errors.New("panel disposed")
	ErrPanelNotReady   = errors.New("panel not initialised")
	errUnexpectedEvent = errors.New("unexpected lifecycle event")
)

// Lifecycle tracks one panel: uninitialized -> ready -> awaiting* -> ready, and disposed from anywhere.
// Awaiting counts turns in flight and only settles back to ready when the last one finishes.
type Lifecycle struct {
	mu       sync.Mutex
	machine  *fsm.FSM
	inFlight int
}

func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		machine: fsm.NewFSM(
			StateUninitialized,
			fsm.Events{
				{Name: eventInit, Src: []string{StateUninitialized}, Dst: StateReady},
				{Name: eventSubmit, Src: []string{StateReady, StateAwaiting}, Dst: StateAwaiting},
				{Name: eventSettle, Src: []string{StateAwaiting}, Dst: StateReady},
				{Name: eventDispose, Src: []string{StateUninitialized, StateReady, StateAwaiting}, Dst: StateDisposed},
			},
			fsm.Callbacks{},
		),
	}
}

func (l *Lifecycle) State() string {
	return l.machine.Current()
}

func (l *Lifecycle) Disposed() bool {
	return l.machine.Is(StateDisposed)
}

func (l *Lifecycle) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight
}

func (l *Lifecycle) Init(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fire(ctx, eventInit)
}

// Begin marks one more turn in flight.
func (l *Lifecycle) Begin(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.fire(ctx, eventSubmit); err != nil {
		return err
	}
	l.inFlight++
	return nil
}

// End marks a turn as finished. It is a no-op once the panel is disposed.
func (l *Lifecycle) End(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inFlight > 0 {
		l.inFlight--
	}
	if l.inFlight == 0 && l.machine.Is(StateAwaiting) {
		_ = l.fire(ctx, eventSettle)
	}
}

// Dispose moves to the terminal state. It reports whether this call did the transition.
func (l *Lifecycle) Dispose(ctx context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.machine.Is(StateDisposed) {
		return false
	}
	l.inFlight = 0
	return l.fire(ctx, eventDispose) == nil
}

func (l *Lifecycle) fire(ctx context.Context, event string) error {
	err := l.machine.Event(ctx, event)
	if err == nil {
		return nil
	}

	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil
	}
	if l.machine.Is(StateDisposed) {
		return ErrPanelDisposed
	}
	if l.machine.Is(StateUninitialized) {
		return ErrPanelNotReady
	}
	return fmt.Errorf("%w %q in state %s: %v", errUnexpectedEvent, event, l.machine.Current(), err)
}
