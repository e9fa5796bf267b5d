package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"gorm.io/gorm/logger"

	"codecompanion/internal/assets"
	"codecompanion/internal/config"
	"codecompanion/internal/database"
	"codecompanion/internal/llm/client"
	"codecompanion/internal/logging"
	"codecompanion/internal/repositories"
	"codecompanion/internal/services"
)

const usage = `usage: companion [flags] <command> [args]

commands:
  ask <prompt>                  ask the selected platform and print the answer
  stream <prompt>               like ask, printing the answer as it arrives (openai)
  image <prompt>                generate images with the openai settings
  history                       list saved conversations
  history-clear                 delete saved conversations
  settings                      show stored settings
  set <platform> [key=value...] store settings (model, apiKey, temperature, imageSize, responseNumber, select)

flags:
`

func main() {
	var (
		memory   bool
		plain    bool
		platform string
		model    string
		thread   string
	)
	flag.BoolVar(&memory, "memory", false, "Keep settings and history in memory instead of the database")
	flag.BoolVar(&plain, "plain", false, "Print answers without terminal markdown rendering")
	flag.StringVar(&platform, "platform", "", "Platform to use instead of the selected one")
	flag.StringVar(&model, "model", "", "Model to use instead of the stored one")
	flag.StringVar(&thread, "thread", "", "Continue the conversation with this id")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if err := logging.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		color.Yellow("invalid logging configuration: %v", err)
	}
	logging.SetOutput(os.Stderr)

	var store repositories.KeyValueRepository
	if memory {
		store = repositories.NewMemoryKeyValueRepository()
	} else {
		db, err := database.Init(database.Config{Path: cfg.DBPath, LogLevel: logger.Silent})
		if err != nil {
			color.Red("Error opening database: %v", err)
			os.Exit(1)
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		store = repositories.NewKeyValueRepository(db)
	}

	var secrets services.SecretStore
	if cfg.UseKeyring {
		if ring, err := services.OpenKeyring(); err == nil {
			secrets = services.NewKeyringService(ring)
		} else {
			logging.Log().Debugf("keyring unavailable: %v", err)
		}
	}

	stores := services.NewServices(store)
	catalog := services.NewPlatformCatalogService(assets.PlatformsData)
	if err := catalog.Startup(context.Background()); err != nil {
		color.Red("Error loading platforms: %v", err)
		os.Exit(1)
	}

	c := &cli{
		settings:  stores.Settings,
		history:   stores.History,
		platforms: catalog,
		keys:      services.NewAPIKeyResolver(secrets, config.EnvAPIKey),
		clients: &client.DefaultFactory{
			OpenAIBaseURL: cfg.OpenAIBaseURL,
			GeminiBaseURL: cfg.GeminiBaseURL,
			HTTPClient:    &http.Client{Timeout: cfg.HTTPTimeout},
		},
		out:    os.Stdout,
		render: renderMarkdown,
	}
	if plain {
		c.render = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := askOptions{Platform: platform, Model: model, Thread: thread}
	args := flag.Args()
	if err := c.run(ctx, args[0], args[1:], opts); err != nil {
		var cerr *services.ConfigError
		switch {
		case errors.Is(err, errUnknownCommand):
			color.Red("%s", err)
			flag.Usage()
			os.Exit(2)
		case errors.As(err, &cerr):
			color.Yellow(cerr.Message)
		default:
			if _, ok := client.AsProviderError(err); ok {
				color.Red("%s", err)
			} else {
				color.Red("Error: %v", err)
			}
		}
		os.Exit(1)
	}
}
