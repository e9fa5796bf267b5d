package main

import (
	"context"
	"embed"
	"fmt"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"gorm.io/gorm/logger"

	"codecompanion/internal/config"
	"codecompanion/internal/database"
	"codecompanion/internal/events"
	"codecompanion/internal/logging"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	cfg := config.Load()
	if err := logging.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		fmt.Println("Error configuring logging:", err)
	}

	db, err := database.Init(database.Config{
		Path:     cfg.DBPath,
		LogLevel: logger.Warn,
	})
	if err != nil {
		fmt.Println("Error opening database:", err)
		return
	}

	app := NewApp(cfg, db)

	err = wails.Run(&options.App{
		Title:  "Code Companion",
		Width:  1024,
		Height: 768,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		Linux: &linux.Options{
			WindowIsTranslucent: false,
			WebviewGpuPolicy:    linux.WebviewGpuPolicyAlways,
			ProgramName:         "Code Companion",
		},
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		Logger:           logging.NewWailsLogger(),
		OnStartup:        app.startup,
		OnDomReady: func(ctx context.Context) {
			if err := app.OpenPanel(events.PanelSettings); err != nil {
				fmt.Println("Error opening settings panel:", err)
			}
		},
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
			app.codeActions,
		},
	})

	if err != nil {
		println("Error:", err.Error())
	}
}
