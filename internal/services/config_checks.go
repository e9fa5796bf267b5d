package services

import (
	"strings"

	"codecompanion/internal/models"
)

// ConfigError is a settings problem found before any provider call. Message is shown to the user as is.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// CheckChatSettings rejects settings that cannot drive a chat request. A zero temperature counts as unset.
func CheckChatSettings(s *models.Settings, platformLabel string) error {
	if s == nil || strings.TrimSpace(s.APIKey) == "" {
		return &ConfigError{Message: "Please add your " + platformLabel + " api key!"}
	}
	if s.Temperature == 0 {
		return &ConfigError{Message: "Please add temperature!"}
	}
	return nil
}

// CheckImageSettings rejects settings that cannot drive an image request.
func CheckImageSettings(s *models.Settings, platformLabel string) error {
	if s == nil || strings.TrimSpace(s.APIKey) == "" {
		return &ConfigError{Message: "Please add your " + platformLabel + " api key!"}
	}
	if strings.TrimSpace(s.ImageSize) == "" {
		return &ConfigError{Message: "Please add image size!"}
	}
	if s.ResponseNumber <= 0 {
		return &ConfigError{Message: "Please add response number!"}
	}
	return nil
}
