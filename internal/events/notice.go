package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventInfo    EventType = "info"
	EventWarn    EventType = "warn"
	EventSuccess EventType = "success"
	EventError   EventType = "error"
)

// NoticeEvent is the topic transient notifications are emitted on.
const NoticeEvent = "events:notice"

// Notice is a transient user-facing notification.
type Notice struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Message   string    `json:"message"`
	Panel     string    `json:"panel,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func CreateNotice(eventType EventType, message string) Notice {
	return Notice{
		ID:        uuid.NewString(),
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewInfo creates an info Notice.
func NewInfo(message string) Notice {
	return CreateNotice(EventInfo, message)
}

// NewWarn creates a warn Notice.
func NewWarn(message string) Notice {
	return CreateNotice(EventWarn, message)
}

// NewError creates an error Notice.
func NewError(message string) Notice {
	return CreateNotice(EventError, message)
}

// NewSuccess creates a success Notice.
func NewSuccess(message string) Notice {
	return CreateNotice(EventSuccess, message)
}
