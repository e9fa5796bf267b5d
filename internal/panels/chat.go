package panels

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"codecompanion/internal/events"
	"codecompanion/internal/format"
	"codecompanion/internal/llm/client"
	"codecompanion/internal/logging"
	"codecompanion/internal/models"
	"codecompanion/internal/services"
)

// ChatPanel answers prompts and keeps the conversation history in sync with the view.
type ChatPanel struct {
	basePanel
	deps Deps
	now  func() time.Time
}

func NewChatPanel(deps Deps) *ChatPanel {
	return &ChatPanel{
		basePanel: newBasePanel(events.PanelChat, deps.Mediator, deps.Notifier),
		deps:      deps,
		now:       time.Now,
	}
}

func (p *ChatPanel) Init(ctx context.Context) error {
	if err := p.start(ctx, p.handle); err != nil {
		return err
	}
	p.sendInitView(p.ctx)
	return nil
}

func (p *ChatPanel) handle(ctx context.Context, msg events.Message) {
	switch msg.Command {
	case events.CmdPromptCreated:
		var prompt models.Prompt
		if err := msg.Decode(&prompt); err != nil {
			logging.FromContext(ctx).WithError(err).Warn("invalid prompt message")
			p.notify(events.NewError("Invalid prompt."))
			return
		}
		p.ask(ctx, prompt)
	case events.CmdHistoryCleared:
		p.clearHistory(ctx)
	case events.CmdDownloadImage:
		var img models.InlineImage
		if err := msg.Decode(&img); err != nil {
			p.notify(events.NewError("Invalid image."))
			return
		}
		p.downloadImage(ctx, img)
	default:
		logging.FromContext(ctx).WithField("command", msg.Command).Debug("ignoring chat command")
	}
}

func (p *ChatPanel) sendInitView(ctx context.Context) {
	data := models.InitChatViewData{LogoPath: p.deps.LogoPath}

	settings, err := p.deps.Settings.GetAll(ctx)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Error("failed to load settings")
	}
	selected, err := p.deps.Settings.GetSelectedPlatform(ctx)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Error("failed to load selected platform")
	}
	history, err := p.deps.History.GetAll(ctx)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Error("failed to load history")
	}

	data.Settings = maskKeys(settings)
	data.SelectedPlatform = selected
	data.History = history
	p.post(ctx, events.CmdInitView, data)
}

// resolveSettings looks the prompt's platform up in the store. The view may choose another model.
func (p *ChatPanel) resolveSettings(ctx context.Context, prompt models.Prompt) (models.Settings, error) {
	platform := prompt.Settings.Platform
	if platform == "" {
		selected, err := p.deps.Settings.GetSelectedPlatform(ctx)
		if err != nil {
			return models.Settings{}, err
		}
		platform = selected
	}

	resolved := models.Settings{Platform: platform}
	stored, err := p.deps.Settings.Get(ctx, platform)
	if err != nil {
		return models.Settings{}, err
	}
	if stored != nil {
		resolved = *stored
	}
	if prompt.Settings.Model != "" {
		resolved.Model = prompt.Settings.Model
	}
	return p.deps.Keys.Resolve(resolved), nil
}

func (p *ChatPanel) ask(ctx context.Context, prompt models.Prompt) {
	if prompt.HistoryID == "" {
		prompt.HistoryID = uuid.NewString()
	}
	if prompt.ChatID == "" {
		prompt.ChatID = uuid.NewString()
	}
	if prompt.Date.IsZero() {
		prompt.Date = p.now()
	}
	ctx = logging.WithTurn(ctx, prompt.ChatID)
	log := logging.FromContext(ctx)

	settings, err := p.resolveSettings(ctx, prompt)
	if err != nil {
		log.WithError(err).Error("failed to resolve settings")
		p.fail(ctx, prompt, err)
		return
	}
	if err := services.CheckChatSettings(&settings, p.deps.platformLabel(settings.Platform)); err != nil {
		p.notify(events.NewInfo(err.Error()))
		return
	}
	prompt.Settings = settings

	if err := p.lifecycle.Begin(ctx); err != nil {
		log.WithError(err).Debug("prompt ignored")
		return
	}
	defer p.lifecycle.End(ctx)

	provider, err := p.deps.Clients.Provider(ctx, settings.Platform, settings.APIKey)
	if err != nil {
		p.fail(ctx, prompt, err)
		return
	}

	req := client.Request{
		Platform:    settings.Platform,
		Model:       settings.Model,
		Prompt:      prompt.Prompt,
		Temperature: settings.Temperature,
	}

	var result *client.ChatResult
	if p.deps.StreamChat && settings.Platform == client.PlatformOpenAI {
		result, err = p.stream(ctx, prompt, provider, req)
	} else {
		result, err = provider.Ask(ctx, req)
	}
	if p.Disposed() {
		log.Debug("panel disposed before the answer arrived")
		return
	}
	if err != nil {
		p.fail(ctx, prompt, err)
		return
	}

	p.respond(ctx, prompt, result)
}

// stream forwards deltas to the view and assembles them into a result.
func (p *ChatPanel) stream(ctx context.Context, prompt models.Prompt, provider client.Provider, req client.Request) (*client.ChatResult, error) {
	s, err := provider.Stream(ctx, req)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	var sb strings.Builder
	for {
		delta, err := s.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if perr, ok := client.AsProviderError(err); ok {
			return &client.ChatResult{Failure: perr}, nil
		}
		if err != nil {
			return nil, err
		}
		sb.WriteString(delta)
		p.post(ctx, events.CmdPromptDelta, models.PromptDelta{
			HistoryID: prompt.HistoryID,
			ChatID:    prompt.ChatID,
			Delta:     delta,
		})
	}

	text := sb.String()
	return &client.ChatResult{Text: text, Parts: []client.Part{{Text: text}}}, nil
}

func (p *ChatPanel) respond(ctx context.Context, prompt models.Prompt, result *client.ChatResult) {
	log := logging.FromContext(ctx)
	response := models.PromptResponse{Prompt: prompt}
	response.Settings.APIKey = ""

	if result.Failed() {
		log.WithField("status", result.Failure.StatusCode).Warn(result.Failure.Message)
		response.Answer = result.Answer()
		p.post(ctx, events.CmdPromptResponded, response)
		return
	}

	texts, images := format.SplitParts(result.Parts)
	if len(texts) == 0 && result.Text != "" {
		texts = []string{result.Text}
	}
	if len(images) == 0 {
		images = result.Images
	}
	rendered, err := format.ToHTML(strings.Join(texts, "\n\n"))
	if err != nil {
		p.fail(ctx, prompt, err)
		return
	}
	response.Answer = rendered
	response.Base64Images = images

	turn := models.ChatTurn{
		ID:     prompt.ChatID,
		Prompt: prompt.Prompt,
		Answer: rendered,
		Date:   prompt.Date,
	}
	if _, err := p.deps.History.Append(ctx, turn, prompt.ThreadKey(), prompt.Settings.Model); err != nil {
		log.WithError(err).Error("failed to save history")
		p.notify(events.NewWarn("The answer could not be saved to history."))
	} else {
		p.sendHistory(ctx)
	}

	p.post(ctx, events.CmdPromptResponded, response)
}

func (p *ChatPanel) fail(ctx context.Context, prompt models.Prompt, err error) {
	logging.FromContext(ctx).WithError(err).Error("prompt failed")
	if p.Disposed() {
		return
	}
	p.notify(events.NewError(err.Error()))
	p.post(ctx, events.CmdPromptFailed, models.PromptFailure{
		HistoryID: prompt.HistoryID,
		ChatID:    prompt.ChatID,
		Message:   err.Error(),
	})
}

func (p *ChatPanel) sendHistory(ctx context.Context) {
	history, err := p.deps.History.GetAll(ctx)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Error("failed to load history")
		return
	}
	p.post(ctx, events.CmdHistoryDataSent, history)
}

func (p *ChatPanel) clearHistory(ctx context.Context) {
	if err := p.deps.History.Clear(ctx); err != nil {
		logging.FromContext(ctx).WithError(err).Error("failed to clear history")
		p.notify(events.NewError("History could not be cleared."))
		return
	}
	p.sendHistory(ctx)
}

func (p *ChatPanel) downloadImage(ctx context.Context, img models.InlineImage) {
	if p.deps.Images == nil {
		p.notify(events.NewError("Saving images is not available."))
		return
	}
	path, err := p.deps.Images.Save(ctx, img)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Error("failed to save image")
		p.notify(events.NewError("Image could not be saved."))
		return
	}
	if path != "" {
		p.notify(events.NewSuccess("Image saved to " + path))
	}
}

// maskKeys hides stored API keys from the views.
func maskKeys(settings []models.Settings) []models.Settings {
	out := make([]models.Settings, len(settings))
	for i, s := range settings {
		if s.APIKey != "" {
			s.APIKey = maskedKey
		}
		out[i] = s
	}
	return out
}

const maskedKey = "********"
