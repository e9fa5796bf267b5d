package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"gorm.io/gorm"

	appassets "codecompanion/internal/assets"
	"codecompanion/internal/config"
	"codecompanion/internal/events"
	"codecompanion/internal/llm/actions"
	"codecompanion/internal/llm/client"
	"codecompanion/internal/logging"
	"codecompanion/internal/models"
	"codecompanion/internal/panels"
	"codecompanion/internal/services"
)

// App struct
type App struct {
	ctx     context.Context
	dbClose func() error

	mediator    *events.WailsMediator
	notifier    *events.WailsNotifier
	stores      *services.Services
	platforms   services.PlatformCatalogService
	keyring     *services.KeyringService
	codeActions services.CodeActionService
	panels      *panels.Manager
}

// NewApp wires the services over db
func NewApp(cfg *config.Config, db *gorm.DB) *App {
	a := &App{
		mediator:  events.NewWailsMediator(),
		notifier:  events.NewWailsNotifier(),
		stores:    services.NewDbServices(db),
		platforms: services.NewPlatformCatalogService(appassets.PlatformsData),
	}

	var secrets services.SecretStore
	if cfg.UseKeyring {
		ring, err := services.OpenKeyring()
		if err != nil {
			logging.Log().Warnf("keyring unavailable, falling back to stored keys: %v", err)
		} else {
			a.keyring = services.NewKeyringService(ring)
			secrets = a.keyring
		}
	}
	resolver := services.NewAPIKeyResolver(secrets, config.EnvAPIKey)

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	runner := actions.NewRunner(actions.NewChatModel(cfg.OpenAIBaseURL, cfg.GeminiBaseURL))
	a.codeActions = services.NewCodeActionService(a.stores.Settings, resolver, runner)

	a.panels = panels.NewManager(panels.Deps{
		Mediator:  a.mediator,
		Notifier:  a.notifier,
		Settings:  a.stores.Settings,
		History:   a.stores.History,
		Platforms: a.platforms,
		Keys:      resolver,
		Clients: &client.DefaultFactory{
			OpenAIBaseURL: cfg.OpenAIBaseURL,
			GeminiBaseURL: cfg.GeminiBaseURL,
			HTTPClient:    httpClient,
		},
		Images:     services.NewImageExportService(hostDialogs{a}, httpClient),
		Dialogs:    hostDialogs{a},
		StreamChat: cfg.StreamChat,
		LogoPath:   "/logo.svg",
	})

	if sqlDB, err := db.DB(); err != nil {
		logging.Log().Errorf("failed to get sql.DB: %v", err)
	} else {
		a.dbClose = sqlDB.Close
	}
	return a
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.mediator.Startup(ctx)
	a.notifier.Startup(ctx)
	a.stores.Settings.Startup(ctx)
	a.stores.History.Startup(ctx)
	a.codeActions.Startup(ctx)

	if err := a.platforms.Startup(ctx); err != nil {
		runtime.LogError(ctx, fmt.Sprintf("failed to load platform catalog: %v", err))
	}
}

// shutdown is called when the app is closing. Clean up resources here.
func (a *App) shutdown(ctx context.Context) {
	a.panels.CloseAll(ctx)

	if a.dbClose != nil {
		if err := a.dbClose(); err != nil {
			runtime.LogError(ctx, fmt.Sprintf("failed to close database: %v", err))
		} else {
			runtime.LogInfo(ctx, "database closed")
		}
		a.dbClose = nil
	}
}

// OpenPanel shows the chat, image or settings panel, reusing a live one
func (a *App) OpenPanel(kind string) error {
	if _, err := a.panels.Open(a.ctx, kind); err != nil {
		runtime.LogError(a.ctx, fmt.Sprintf("failed to open %s panel: %v", kind, err))
		return err
	}
	return nil
}

// ClosePanel disposes the panel of kind, cancelling its requests
func (a *App) ClosePanel(kind string) {
	a.panels.Close(a.ctx, kind)
}

func (a *App) ListPlatforms() ([]models.Platform, error) {
	return a.platforms.ListPlatforms()
}

func (a *App) GetSettings() ([]models.Settings, error) {
	return a.stores.Settings.GetAll(a.ctx)
}

func (a *App) GetHistory() ([]models.Thread, error) {
	return a.stores.History.GetAll(a.ctx)
}

// SaveApiKey stores a key in the OS keyring
func (a *App) SaveApiKey(platform, apiKey string) error {
	if a.keyring == nil {
		return fmt.Errorf("keyring not available")
	}
	return a.keyring.StoreApiKey(platform, []byte(apiKey))
}

func (a *App) DeleteApiKey(platform string) error {
	if a.keyring == nil {
		return fmt.Errorf("keyring not available")
	}
	return a.keyring.DeleteApiKey(platform)
}

func (a *App) ListApiKeys() ([]map[string]string, error) {
	if a.keyring == nil {
		return []map[string]string{}, nil
	}
	return a.keyring.ListApiKeys()
}

// hostDialogs exposes the native dialogs to the panels without binding them to the webview.
type hostDialogs struct {
	app *App
}

// ChooseSavePath opens a native save dialog
func (d hostDialogs) ChooseSavePath(ctx context.Context, defaultName string) (string, error) {
	return runtime.SaveFileDialog(d.app.ctx, runtime.SaveDialogOptions{
		Title:           "Save image",
		DefaultFilename: defaultName,
		Filters: []runtime.FileFilter{
			{DisplayName: "Images", Pattern: "*.png;*.jpg;*.jpeg;*.webp"},
		},
	})
}

// OpenURL opens url in the system browser
func (d hostDialogs) OpenURL(ctx context.Context, url string) error {
	runtime.BrowserOpenURL(d.app.ctx, url)
	return nil
}
