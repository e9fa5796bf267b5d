package models

// PlatformModel is a model selectable for a platform.
type PlatformModel struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	APIURL string `json:"apiUrl"`
}

// Platform describes an AI provider exposed to the UI.
type Platform struct {
	ID      string          `json:"id"`
	Label   string          `json:"label"`
	BaseURL string          `json:"baseUrl"`
	Models  []PlatformModel `json:"models"`
}
