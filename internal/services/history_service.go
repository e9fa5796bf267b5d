package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"codecompanion/internal/models"
	"codecompanion/internal/repositories"
	"codecompanion/internal/utils"
)

const HistoryKey = "historyData"

type HistoryService interface {
	Startup(ctx context.Context)
	Append(ctx context.Context, turn models.ChatTurn, key models.ThreadKey, model string) (*models.Thread, error)
	GetAll(ctx context.Context) ([]models.Thread, error)
	Clear(ctx context.Context) error
}

type historyService struct {
	store   repositories.KeyValueRepository
	context context.Context
	now     func() time.Time
	mu      sync.Mutex
}

func NewHistoryService(store repositories.KeyValueRepository) HistoryService {
	return &historyService{store: store, now: time.Now}
}

func (s *historyService) Startup(ctx context.Context) {
	s.context = ctx
}

// Append adds turn to the thread identified by key, creating the thread when it does not exist.
// Threads and turns are kept most-recent-first and the oldest entry is evicted past the caps.
func (s *historyService) Append(ctx context.Context, turn models.ChatTurn, key models.ThreadKey, model string) (*models.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	threads, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.Date.IsZero() {
		turn.Date = s.now()
	}
	turn.Answer = utils.Truncate(turn.Answer, models.MaxAnswerLength)

	var thread models.Thread
	_, idx, found := lo.FindIndexOf(threads, func(t models.Thread) bool {
		return t.ID == key.ID && t.Platform == key.Platform
	})
	if found {
		chats := append([]models.ChatTurn{turn}, threads[idx].Chats...)
		if len(chats) > models.MaxTurnsPerThread {
			chats = chats[:models.MaxTurnsPerThread]
		}
		threads[idx].Chats = chats
		thread = threads[idx]
	} else {
		if key.ID == "" {
			key.ID = uuid.NewString()
		}
		thread = models.Thread{
			ID:       key.ID,
			Platform: key.Platform,
			Model:    model,
			Title:    utils.Truncate(turn.Answer, models.MaxTitleLength),
			Date:     turn.Date,
			Chats:    []models.ChatTurn{turn},
		}
		threads = append([]models.Thread{thread}, threads...)
		if len(threads) > models.MaxThreads {
			threads = threads[:models.MaxThreads]
		}
	}

	if err := s.write(ctx, threads); err != nil {
		return nil, err
	}
	return &thread, nil
}

func (s *historyService) GetAll(ctx context.Context) ([]models.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

func (s *historyService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, []models.Thread{})
}

func (s *historyService) read(ctx context.Context) ([]models.Thread, error) {
	raw, ok, err := s.store.Get(ctx, HistoryKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if !ok || len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []models.Thread{}, nil
	}
	var threads []models.Thread
	if err := json.Unmarshal(raw, &threads); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return threads, nil
}

func (s *historyService) write(ctx context.Context, threads []models.Thread) error {
	raw, err := json.Marshal(threads)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := s.store.Set(ctx, HistoryKey, raw); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}
