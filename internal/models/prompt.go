package models

import "time"

// Prompt is what the chat view sends when the user submits a question.
type Prompt struct {
	Prompt    string    `json:"prompt"`
	HistoryID string    `json:"historyId"`
	ChatID    string    `json:"chatId"`
	Settings  Settings  `json:"settings"`
	Date      time.Time `json:"date"`
}

func (p Prompt) ThreadKey() ThreadKey {
	return ThreadKey{ID: p.HistoryID, Platform: p.Settings.Platform}
}

// PromptResponse echoes the prompt identifiers so the view can match late answers.
type PromptResponse struct {
	Prompt
	Answer       string        `json:"answer"`
	Base64Images []InlineImage `json:"base64Images"`
	CdnImages    []string      `json:"cdnImages"`
}

// InlineImage is an image returned by a provider, either as a remote URL or base64 payload.
type InlineImage struct {
	CdnURL   string `json:"cdnUrl"`
	Base64   string `json:"base64"`
	MimeType string `json:"mimeType"`
}

// GeneratedImage mirrors one entry of the image generation response.
type GeneratedImage struct {
	URL           string `json:"url,omitempty"`
	B64JSON       string `json:"b64_json,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// PromptDelta is one streamed increment of an answer.
type PromptDelta struct {
	HistoryID string `json:"historyId"`
	ChatID    string `json:"chatId"`
	Delta     string `json:"delta"`
}

// PromptFailure reports a turn that could not be answered.
type PromptFailure struct {
	HistoryID string `json:"historyId"`
	ChatID    string `json:"chatId"`
	Message   string `json:"message"`
}
