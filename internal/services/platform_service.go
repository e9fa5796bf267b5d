package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"codecompanion/internal/models"
)

type PlatformCatalogService interface {
	Startup(ctx context.Context) error
	ListPlatforms() ([]models.Platform, error)
	GetPlatform(id string) (*models.Platform, error)
	Label(id string) string
}

type platformCatalogService struct {
	data []byte
	ctx  context.Context

	mu        sync.RWMutex
	order     []string
	platforms map[string]*models.Platform
}

type rawCatalogFile struct {
	Platforms []models.Platform `json:"platforms"`
}

func NewPlatformCatalogService(data []byte) PlatformCatalogService {
	return &platformCatalogService{
		data:      data,
		platforms: make(map[string]*models.Platform),
	}
}

func (s *platformCatalogService) Startup(ctx context.Context) error {
	s.ctx = ctx

	var parsed rawCatalogFile
	if err := json.Unmarshal(s.data, &parsed); err != nil {
		return fmt.Errorf("parse platforms asset: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = make([]string, 0, len(parsed.Platforms))
	s.platforms = make(map[string]*models.Platform, len(parsed.Platforms))
	for _, platform := range parsed.Platforms {
		id := strings.TrimSpace(platform.ID)
		if id == "" {
			continue
		}
		platform.ID = id
		platform.Label = strings.TrimSpace(platform.Label)
		p := platform
		s.platforms[id] = &p
		s.order = append(s.order, id)
	}
	return nil
}

func (s *platformCatalogService) ListPlatforms() ([]models.Platform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Platform, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, clonePlatform(s.platforms[id]))
	}
	return out, nil
}

func (s *platformCatalogService) GetPlatform(id string) (*models.Platform, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("platform id is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.platforms[id]
	if !ok {
		return nil, fmt.Errorf("platform %s not found", id)
	}
	out := clonePlatform(p)
	return &out, nil
}

// Label is the display name of a platform, falling back to its id.
func (s *platformCatalogService) Label(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.platforms[id]; ok && p.Label != "" {
		return p.Label
	}
	return id
}

func clonePlatform(p *models.Platform) models.Platform {
	out := *p
	out.Models = append([]models.PlatformModel(nil), p.Models...)
	return out
}
