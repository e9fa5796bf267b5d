package panels

import (
	"codecompanion/internal/events"
	"codecompanion/internal/llm/client"
	"codecompanion/internal/services"
)

// Deps are the collaborators shared by all panels.
type Deps struct {
	Mediator  events.Mediator
	Notifier  events.Notifier
	Settings  services.SettingsService
	History   services.HistoryService
	Platforms services.PlatformCatalogService
	Keys      *services.APIKeyResolver
	Clients   client.Factory
	Images    services.ImageExportService
	Dialogs   Dialogs

	// StreamChat forwards OpenAI answers to the chat view as they arrive.
	StreamChat bool
	LogoPath   string
}

func (d Deps) platformLabel(id string) string {
	if d.Platforms == nil {
		return id
	}
	return d.Platforms.Label(id)
}
