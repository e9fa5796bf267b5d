package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/samber/lo"

	"codecompanion/internal/models"
	"codecompanion/internal/repositories"
)

const (
	SettingsKey         = "storeData"
	SelectedPlatformKey = "selectedPlatform"
)

type SettingsService interface {
	Startup(ctx context.Context)
	GetAll(ctx context.Context) ([]models.Settings, error)
	Get(ctx context.Context, platform string) (*models.Settings, error)
	Upsert(ctx context.Context, setting models.Settings) error
	GetSelectedPlatform(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

type settingsService struct {
	store   repositories.KeyValueRepository
	context context.Context
	mu      sync.Mutex
}

func NewSettingsService(store repositories.KeyValueRepository) SettingsService {
	return &settingsService{store: store}
}

func (s *settingsService) Startup(ctx context.Context) {
	s.context = ctx
}

func (s *settingsService) GetAll(ctx context.Context) ([]models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

// Get returns the entry for platform, or nil when none is stored.
func (s *settingsService) Get(ctx context.Context, platform string) (*models.Settings, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	found, ok := lo.Find(all, func(item models.Settings) bool {
		return item.Platform == platform
	})
	if !ok {
		return nil, nil
	}
	return &found, nil
}

func (s *settingsService) Upsert(ctx context.Context, setting models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read(ctx)
	if err != nil {
		return err
	}

	if _, idx, found := lo.FindIndexOf(all, func(item models.Settings) bool {
		return item.Platform == setting.Platform
	}); found {
		all[idx] = setting
	} else {
		all = append([]models.Settings{setting}, all...)
	}

	if err := s.write(ctx, SettingsKey, all); err != nil {
		return err
	}
	return s.write(ctx, SelectedPlatformKey, setting.Platform)
}

func (s *settingsService) GetSelectedPlatform(ctx context.Context) (string, error) {
	raw, ok, err := s.store.Get(ctx, SelectedPlatformKey)
	if err != nil {
		return "", fmt.Errorf("failed to read selected platform: %w", err)
	}
	if !ok {
		return "", nil
	}
	var platform string
	if err := json.Unmarshal(raw, &platform); err != nil {
		// older hosts stored the bare string
		return strings.TrimSpace(string(raw)), nil
	}
	return platform, nil
}

func (s *settingsService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, SettingsKey, []models.Settings{})
}

func (s *settingsService) read(ctx context.Context) ([]models.Settings, error) {
	raw, ok, err := s.store.Get(ctx, SettingsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if !ok || len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '{' {
		var single models.Settings
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, fmt.Errorf("failed to decode settings: %w", err)
		}
		return []models.Settings{single}, nil
	}

	var all []models.Settings
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return all, nil
}

func (s *settingsService) write(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
