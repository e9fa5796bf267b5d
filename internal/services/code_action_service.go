package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"codecompanion/internal/llm/actions"
)

// CodeActionService runs editor actions with the selected platform's settings.
type CodeActionService interface {
	Startup(ctx context.Context)
	Refactor(languageID, selection string) (string, error)
	AddComments(languageID, selection string) (string, error)
	AddDocumentation(languageID, selection string) (string, error)
	InsertGUID() string
}

type codeActionService struct {
	settings SettingsService
	keys     *APIKeyResolver
	runner   *actions.Runner
	context  context.Context
}

func NewCodeActionService(settings SettingsService, keys *APIKeyResolver, runner *actions.Runner) CodeActionService {
	return &codeActionService{settings: settings, keys: keys, runner: runner, context: context.Background()}
}

func (s *codeActionService) Startup(ctx context.Context) {
	s.context = ctx
}

func (s *codeActionService) Refactor(languageID, selection string) (string, error) {
	return s.run(actions.Refactor, languageID, selection)
}

func (s *codeActionService) AddComments(languageID, selection string) (string, error) {
	return s.run(actions.AddComments, languageID, selection)
}

func (s *codeActionService) AddDocumentation(languageID, selection string) (string, error) {
	return s.run(actions.AddDocumentation, languageID, selection)
}

func (s *codeActionService) InsertGUID() string {
	return uuid.NewString()
}

func (s *codeActionService) run(kind actions.Kind, languageID, selection string) (string, error) {
	ctx := s.context
	platform, err := s.settings.GetSelectedPlatform(ctx)
	if err != nil {
		return "", err
	}
	setting, err := s.settings.Get(ctx, platform)
	if err != nil {
		return "", err
	}
	if setting == nil {
		return "", &ConfigError{Message: fmt.Sprintf("Please add your %s api key!", platform)}
	}
	resolved := s.keys.Resolve(*setting)
	return s.runner.Run(ctx, kind, resolved, languageID, selection)
}
