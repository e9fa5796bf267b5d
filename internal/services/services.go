package services

import (
	"gorm.io/gorm"

	"codecompanion/internal/repositories"
)

// Services aggregates the stores that live in the host key-value storage.
type Services struct {
	Settings SettingsService
	History  HistoryService
}

// NewServices constructs the stores over a single key-value repository.
func NewServices(store repositories.KeyValueRepository) *Services {
	return &Services{
		Settings: NewSettingsService(store),
		History:  NewHistoryService(store),
	}
}

// NewDbServices constructs the stores backed by db.
func NewDbServices(db *gorm.DB) *Services {
	return NewServices(repositories.NewKeyValueRepository(db))
}
