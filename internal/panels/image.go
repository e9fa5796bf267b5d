package panels

import (
	"context"
	"encoding/json"
	"strings"

	"codecompanion/internal/events"
	"codecompanion/internal/llm/client"
	"codecompanion/internal/logging"
	"codecompanion/internal/models"
	"codecompanion/internal/services"
)

// imagePrompt is what the image view sends. Older views send the bare prompt string.
type imagePrompt struct {
	Prompt string `json:"prompt"`
}

func (ip *imagePrompt) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		ip.Prompt = s
		return nil
	}
	type plain imagePrompt
	return json.Unmarshal(data, (*plain)(ip))
}

// ImagePanel generates images with the OpenAI settings.
type ImagePanel struct {
	basePanel
	deps Deps
}

func NewImagePanel(deps Deps) *ImagePanel {
	return &ImagePanel{
		basePanel: newBasePanel(events.PanelImage, deps.Mediator, deps.Notifier),
		deps:      deps,
	}
}

func (p *ImagePanel) Init(ctx context.Context) error {
	if err := p.start(ctx, p.handle); err != nil {
		return err
	}

	settings, err := p.deps.Settings.GetAll(p.ctx)
	if err != nil {
		logging.FromContext(p.ctx).WithError(err).Error("failed to load settings")
	}
	selected, _ := p.deps.Settings.GetSelectedPlatform(p.ctx)
	p.post(p.ctx, events.CmdInitView, models.InitSettingsViewData{
		Settings:         maskKeys(settings),
		SelectedPlatform: selected,
	})
	return nil
}

func (p *ImagePanel) handle(ctx context.Context, msg events.Message) {
	switch msg.Command {
	case events.CmdImageAsk:
		var req imagePrompt
		if err := msg.Decode(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
			p.notify(events.NewInfo("Please enter a prompt!"))
			return
		}
		p.generate(ctx, req.Prompt)
	case events.CmdImageClicked:
		var url string
		if err := msg.Decode(&url); err != nil || url == "" {
			return
		}
		if p.deps.Dialogs == nil {
			return
		}
		if err := p.deps.Dialogs.OpenURL(ctx, url); err != nil {
			logging.FromContext(ctx).WithError(err).Warn("failed to open image")
		}
	case events.CmdDownloadImage:
		var img models.InlineImage
		if err := msg.Decode(&img); err != nil || p.deps.Images == nil {
			return
		}
		if path, err := p.deps.Images.Save(ctx, img); err != nil {
			p.notify(events.NewError("Image could not be saved."))
		} else if path != "" {
			p.notify(events.NewSuccess("Image saved to " + path))
		}
	default:
		logging.FromContext(ctx).WithField("command", msg.Command).Debug("ignoring image command")
	}
}

func (p *ImagePanel) generate(ctx context.Context, prompt string) {
	log := logging.FromContext(ctx)

	stored, err := p.deps.Settings.Get(ctx, client.PlatformOpenAI)
	if err != nil {
		log.WithError(err).Error("failed to load settings")
		p.notify(events.NewError(err.Error()))
		return
	}
	settings := models.Settings{Platform: client.PlatformOpenAI}
	if stored != nil {
		settings = *stored
	}
	settings = p.deps.Keys.Resolve(settings)

	if err := services.CheckImageSettings(&settings, p.deps.platformLabel(client.PlatformOpenAI)); err != nil {
		p.notify(events.NewInfo(err.Error()))
		return
	}

	if err := p.lifecycle.Begin(ctx); err != nil {
		return
	}
	defer p.lifecycle.End(ctx)

	generator, err := p.deps.Clients.Images(client.PlatformOpenAI, settings.APIKey)
	if err != nil {
		p.post(ctx, events.CmdImageError, err.Error())
		return
	}

	result, err := generator.Generate(ctx, client.ImageRequest{
		Prompt: prompt,
		N:      settings.ResponseNumber,
		Size:   settings.ImageSize,
	})
	if p.Disposed() {
		return
	}
	if err != nil {
		log.WithError(err).Error("image generation failed")
		p.notify(events.NewError(err.Error()))
		p.post(ctx, events.CmdImageError, err.Error())
		return
	}
	if result.Failure != nil {
		p.post(ctx, events.CmdImageError, result.Failure.Error())
		return
	}
	p.post(ctx, events.CmdImageURLs, result.Images)
}
