package models

// Settings holds the per-platform credentials and request parameters.
// The collection is keyed by Platform.
type Settings struct {
	Platform       string  `json:"platform"`
	Model          string  `json:"model"`
	APIKey         string  `json:"apiKey"`
	Temperature    float64 `json:"temperature"`
	ImageSize      string  `json:"imageSize"`
	ResponseNumber int     `json:"responseNumber"`
}

// InitSettingsViewData is posted to the settings panel when it is resolved.
type InitSettingsViewData struct {
	Settings         []Settings `json:"settings"`
	SelectedPlatform string     `json:"selectedPlatform"`
}

// InitChatViewData is posted to the chat panel on init.
type InitChatViewData struct {
	InitSettingsViewData
	History  []Thread `json:"history"`
	LogoPath string   `json:"logoPath,omitempty"`
}
