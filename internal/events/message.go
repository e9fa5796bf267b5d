package events

import (
	"encoding/json"
	"fmt"
)

// Panel names. Each panel type has at most one live instance.
const (
	PanelChat     = "chat"
	PanelImage    = "image"
	PanelSettings = "settings"
)

// Commands sent by the views.
const (
	CmdPromptCreated  = "prompt-created-command"
	CmdHistoryCleared = "history-cleared-command"
	CmdDownloadImage  = "download-image-command"
	CmdImageAsk       = "press-image-ask-button"
	CmdImageClicked   = "image-clicked"
	CmdStartChat      = "start-chat"
	CmdStartImage     = "start-image"
	CmdSaveSettings   = "save-settings"
)

// Commands sent to the views.
const (
	CmdInitView        = "init-view-command"
	CmdHistoryDataSent = "history-data-sended-to-webview-command"
	CmdPromptResponded = "prompt-responded-command"
	CmdPromptDelta     = "prompt-delta-command"
	CmdPromptFailed    = "prompt-failed-command"
	CmdSettingsExist   = "settings-exist"
	CmdImageURLs       = "image-urls-answer"
	CmdImageError      = "image-error-answer"
)

// Message is the envelope exchanged with a view. Messages are fire-and-forget notifications.
type Message struct {
	Command string          `json:"command"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// NewMessage encodes data into a message for command.
func NewMessage(command string, data any) (Message, error) {
	msg := Message{Command: command}
	if data == nil {
		return msg, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", command, err)
	}
	msg.Data = raw
	return msg, nil
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%s: empty payload", m.Command)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("%s: decode payload: %w", m.Command, err)
	}
	return nil
}
