package models

import "time"

const (
	MaxThreads        = 15
	MaxTurnsPerThread = 5
	MaxTitleLength    = 100
	MaxAnswerLength   = 5000
)

// ChatTurn is one prompt/answer exchange within a thread.
type ChatTurn struct {
	ID     string    `json:"id"`
	Prompt string    `json:"prompt"`
	Answer string    `json:"answer"`
	Date   time.Time `json:"date"`
	URLs   []string  `json:"urls"`
}

// Thread groups turns sharing a topic, platform and model. Chats are most-recent-first.
type Thread struct {
	ID       string     `json:"id"`
	Platform string     `json:"platform"`
	Model    string     `json:"model"`
	Title    string     `json:"title"`
	Date     time.Time  `json:"date"`
	Chats    []ChatTurn `json:"chats"`
}

// ThreadKey identifies a thread. The same ID under another platform is a different thread.
type ThreadKey struct {
	ID       string
	Platform string
}

func (t Thread) Key() ThreadKey {
	return ThreadKey{ID: t.ID, Platform: t.Platform}
}
