package panels

import (
	"context"

	"codecompanion/internal/events"
	"codecompanion/internal/logging"
	"codecompanion/internal/models"
)

// Opener opens another panel kind. The settings panel never touches other panels directly.
type Opener interface {
	Open(ctx context.Context, kind string) (Panel, error)
}

const settingsSavedMessage = "Settings saved successfully."

// SettingsPanel edits per-platform settings and launches the other panels.
type SettingsPanel struct {
	basePanel
	deps   Deps
	opener Opener
}

func NewSettingsPanel(deps Deps, opener Opener) *SettingsPanel {
	return &SettingsPanel{
		basePanel: newBasePanel(events.PanelSettings, deps.Mediator, deps.Notifier),
		deps:      deps,
		opener:    opener,
	}
}

func (p *SettingsPanel) Init(ctx context.Context) error {
	if err := p.start(ctx, p.handle); err != nil {
		return err
	}
	p.sendSettings(p.ctx)
	return nil
}

func (p *SettingsPanel) handle(ctx context.Context, msg events.Message) {
	switch msg.Command {
	case events.CmdSaveSettings:
		var setting models.Settings
		if err := msg.Decode(&setting); err != nil {
			p.notify(events.NewError("Invalid settings."))
			return
		}
		p.save(ctx, setting)
	case events.CmdStartChat:
		p.open(ctx, events.PanelChat)
	case events.CmdStartImage:
		p.open(ctx, events.PanelImage)
	default:
		logging.FromContext(ctx).WithField("command", msg.Command).Debug("ignoring settings command")
	}
}

func (p *SettingsPanel) save(ctx context.Context, setting models.Settings) {
	if setting.APIKey == maskedKey {
		stored, err := p.deps.Settings.Get(ctx, setting.Platform)
		if err == nil && stored != nil {
			setting.APIKey = stored.APIKey
		} else {
			setting.APIKey = ""
		}
	}
	if err := p.deps.Settings.Upsert(ctx, setting); err != nil {
		logging.FromContext(ctx).WithError(err).Error("failed to save settings")
		p.notify(events.NewError("Settings could not be saved."))
		return
	}
	p.notify(events.NewInfo(settingsSavedMessage))
	p.sendSettings(ctx)
}

func (p *SettingsPanel) sendSettings(ctx context.Context) {
	settings, err := p.deps.Settings.GetAll(ctx)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Error("failed to load settings")
	}
	selected, err := p.deps.Settings.GetSelectedPlatform(ctx)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Error("failed to load selected platform")
	}
	p.post(ctx, events.CmdSettingsExist, models.InitSettingsViewData{
		Settings:         maskKeys(settings),
		SelectedPlatform: selected,
	})
}

func (p *SettingsPanel) open(ctx context.Context, kind string) {
	if p.opener == nil {
		return
	}
	// the opened panel must outlive this one
	if _, err := p.opener.Open(context.WithoutCancel(ctx), kind); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("target", kind).Error("failed to open panel")
	}
}
