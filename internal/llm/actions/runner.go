package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"codecompanion/internal/llm/client"
	"codecompanion/internal/logging"
	"codecompanion/internal/models"
)

// ModelFactory builds the chat model used to run an action.
type ModelFactory func(ctx context.Context, settings models.Settings) (model.BaseChatModel, error)

// Runner executes code actions against a chat model.
type Runner struct {
	newModel ModelFactory
}

func NewRunner(factory ModelFactory) *Runner {
	if factory == nil {
		factory = NewChatModel("", "")
	}
	return &Runner{newModel: factory}
}

// NewChatModel returns a factory for the eino chat model matching the settings' platform.
func NewChatModel(openAIBaseURL, geminiBaseURL string) ModelFactory {
	return func(ctx context.Context, settings models.Settings) (model.BaseChatModel, error) {
		if strings.TrimSpace(settings.APIKey) == "" {
			return nil, client.ErrMissingAPIKey
		}
		temperature := float32(settings.Temperature)

		switch settings.Platform {
		case client.PlatformOpenAI:
			cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
				APIKey:      settings.APIKey,
				Model:       settings.Model,
				BaseURL:     openAIBaseURL,
				Temperature: &temperature,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to create openai chat model: %w", err)
			}
			return cm, nil
		case client.PlatformGemini:
			cfg := &genai.ClientConfig{APIKey: settings.APIKey, Backend: genai.BackendGeminiAPI}
			if geminiBaseURL != "" {
				cfg.HTTPOptions = genai.HTTPOptions{BaseURL: geminiBaseURL}
			}
			gc, err := genai.NewClient(ctx, cfg)
			if err != nil {
				return nil, fmt.Errorf("failed to create gemini client: %w", err)
			}
			cm, err := gemini.NewChatModel(ctx, &gemini.Config{
				Client:      gc,
				Model:       settings.Model,
				Temperature: &temperature,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to create gemini chat model: %w", err)
			}
			return cm, nil
		default:
			return nil, fmt.Errorf("%w: %s", client.ErrUnsupportedPlatform, settings.Platform)
		}
	}
}

// Run asks the model for the action and returns the text that replaces the selection.
func (r *Runner) Run(ctx context.Context, kind Kind, settings models.Settings, languageID, selection string) (string, error) {
	prompt, err := BuildPrompt(kind, languageID, selection)
	if err != nil {
		return "", err
	}

	cm, err := r.newModel(ctx, settings)
	if err != nil {
		return "", err
	}

	logging.FromContext(ctx).WithField("action", string(kind)).WithField("language", languageID).Debug("running code action")

	msg, err := cm.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", fmt.Errorf("code action %s failed: %w", kind, err)
	}
	if msg == nil {
		return "", fmt.Errorf("code action %s returned no message", kind)
	}
	return Apply(kind, languageID, selection, msg.Content)
}
