package events

import (
	"context"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"codecompanion/internal/logging"
)

// Notifier shows transient notifications to the user.
type Notifier interface {
	Notify(notice Notice)
}

// WailsNotifier emits notices to the frontend and mirrors them in the log.
type WailsNotifier struct {
	ctx context.Context
}

func NewWailsNotifier() *WailsNotifier {
	return &WailsNotifier{}
}

func (n *WailsNotifier) Startup(ctx context.Context) {
	n.ctx = ctx
}

func (n *WailsNotifier) Notify(notice Notice) {
	logNotice(notice)
	if n == nil || n.ctx == nil {
		return
	}
	runtime.EventsEmit(n.ctx, NoticeEvent, notice)
}

func logNotice(notice Notice) {
	entry := logging.WithFields("notice", notice.ID, "panel", notice.Panel)
	switch notice.Type {
	case EventError:
		entry.Error(notice.Message)
	case EventWarn:
		entry.Warn(notice.Message)
	default:
		entry.Info(notice.Message)
	}
}

// MemoryNotifier records notices.
type MemoryNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

func (n *MemoryNotifier) Notify(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *MemoryNotifier) Notices() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notice, len(n.notices))
	copy(out, n.notices)
	return out
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(notice Notice) { f(notice) }
