package services

import (
	"strings"

	"codecompanion/internal/logging"
	"codecompanion/internal/models"
)

// SecretStore is where API keys are kept outside of the settings collection.
type SecretStore interface {
	GetApiKey(platform string) (string, error)
}

// APIKeyResolver fills a missing settings key from the keyring, then from the environment.
type APIKeyResolver struct {
	secrets SecretStore
	env     func(platform string) string
}

func NewAPIKeyResolver(secrets SecretStore, env func(platform string) string) *APIKeyResolver {
	return &APIKeyResolver{secrets: secrets, env: env}
}

func (r *APIKeyResolver) Resolve(s models.Settings) models.Settings {
	if r == nil || strings.TrimSpace(s.APIKey) != "" || s.Platform == "" {
		return s
	}

	if r.secrets != nil {
		key, err := r.secrets.GetApiKey(s.Platform)
		if err != nil {
			logging.WithFields("platform", s.Platform).WithError(err).Warn("keyring lookup failed")
		} else if key != "" {
			s.APIKey = key
			return s
		}
	}

	if r.env != nil {
		s.APIKey = r.env(s.Platform)
	}
	return s
}
