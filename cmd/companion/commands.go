package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/google/uuid"

	"codecompanion/internal/format"
	"codecompanion/internal/llm/client"
	"codecompanion/internal/models"
	"codecompanion/internal/services"
	"codecompanion/internal/utils"
)

var errUnknownCommand = errors.New("unknown command")

type askOptions struct {
	Platform string
	Model    string
	Thread   string
}

type cli struct {
	settings  services.SettingsService
	history   services.HistoryService
	platforms services.PlatformCatalogService
	keys      *services.APIKeyResolver
	clients   client.Factory
	out       io.Writer
	render    func(string) (string, error)
	now       func() time.Time
}

func renderMarkdown(text string) (string, error) {
	return glamour.Render(text, "dark")
}

func (c *cli) run(ctx context.Context, command string, args []string, opts askOptions) error {
	switch command {
	case "ask":
		return c.ask(ctx, strings.Join(args, " "), opts, false)
	case "stream":
		return c.ask(ctx, strings.Join(args, " "), opts, true)
	case "image":
		return c.image(ctx, strings.Join(args, " "))
	case "history":
		return c.listHistory(ctx)
	case "history-clear":
		if err := c.history.Clear(ctx); err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintln(c.out, "History cleared.")
		return nil
	case "settings":
		return c.showSettings(ctx)
	case "set":
		return c.set(ctx, args)
	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, command)
	}
}

func (c *cli) label(platform string) string {
	if c.platforms == nil {
		return platform
	}
	return c.platforms.Label(platform)
}

func (c *cli) resolve(ctx context.Context, platform, model string) (models.Settings, error) {
	if platform == "" {
		selected, err := c.settings.GetSelectedPlatform(ctx)
		if err != nil {
			return models.Settings{}, err
		}
		platform = selected
	}
	if platform == "" {
		platform = client.PlatformOpenAI
	}

	resolved := models.Settings{Platform: platform}
	stored, err := c.settings.Get(ctx, platform)
	if err != nil {
		return models.Settings{}, err
	}
	if stored != nil {
		resolved = *stored
	}
	if model != "" {
		resolved.Model = model
	}
	return c.keys.Resolve(resolved), nil
}

func (c *cli) ask(ctx context.Context, prompt string, opts askOptions, stream bool) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return errors.New("prompt is empty")
	}

	settings, err := c.resolve(ctx, opts.Platform, opts.Model)
	if err != nil {
		return err
	}
	if err := services.CheckChatSettings(&settings, c.label(settings.Platform)); err != nil {
		return err
	}

	provider, err := c.clients.Provider(ctx, settings.Platform, settings.APIKey)
	if err != nil {
		return err
	}
	req := client.Request{
		Platform:    settings.Platform,
		Model:       settings.Model,
		Prompt:      prompt,
		Temperature: settings.Temperature,
	}

	var result *client.ChatResult
	if stream && settings.Platform == client.PlatformOpenAI {
		result, err = c.stream(ctx, provider, req)
	} else {
		result, err = provider.Ask(ctx, req)
	}
	if err != nil {
		return err
	}
	if result.Failed() {
		return result.Failure
	}

	texts, images := format.SplitParts(result.Parts)
	if len(texts) == 0 && result.Text != "" {
		texts = []string{result.Text}
	}
	if len(images) == 0 {
		images = result.Images
	}
	answer := strings.Join(texts, "\n\n")

	if !stream || settings.Platform != client.PlatformOpenAI {
		c.printMarkdown(answer)
	}
	for i, img := range images {
		fmt.Fprintf(c.out, "[image %d: %s, %d bytes base64]\n", i+1, img.MimeType, len(img.Base64))
	}

	rendered, err := format.ToHTML(answer)
	if err != nil {
		return err
	}
	threadID := opts.Thread
	if threadID == "" {
		threadID = uuid.NewString()
	}
	turn := models.ChatTurn{
		ID:     uuid.NewString(),
		Prompt: prompt,
		Answer: rendered,
		Date:   c.clock(),
	}
	thread, err := c.history.Append(ctx, turn, models.ThreadKey{ID: threadID, Platform: settings.Platform}, settings.Model)
	if err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	color.New(color.Faint).Fprintf(c.out, "thread %s\n", thread.ID)
	return nil
}

// stream prints deltas as they arrive and assembles the final answer.
func (c *cli) stream(ctx context.Context, provider client.Provider, req client.Request) (*client.ChatResult, error) {
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
		fmt.Fprint(c.out, delta)
	}
	fmt.Fprintln(c.out)

	text := sb.String()
	return &client.ChatResult{Text: text, Parts: []client.Part{{Text: text}}}, nil
}

func (c *cli) image(ctx context.Context, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return errors.New("prompt is empty")
	}

	settings, err := c.resolve(ctx, client.PlatformOpenAI, "")
	if err != nil {
		return err
	}
	if err := services.CheckImageSettings(&settings, c.label(settings.Platform)); err != nil {
		return err
	}

	gen, err := c.clients.Images(settings.Platform, settings.APIKey)
	if err != nil {
		return err
	}
	result, err := gen.Generate(ctx, client.ImageRequest{
		Prompt: prompt,
		N:      settings.ResponseNumber,
		Size:   settings.ImageSize,
	})
	if err != nil {
		return err
	}
	if result.Failure != nil {
		return result.Failure
	}
	for _, u := range result.URLs() {
		fmt.Fprintln(c.out, u)
	}
	return nil
}

func (c *cli) listHistory(ctx context.Context) error {
	threads, err := c.history.GetAll(ctx)
	if err != nil {
		return err
	}
	if len(threads) == 0 {
		fmt.Fprintln(c.out, "No history yet.")
		return nil
	}

	heading := color.New(color.FgCyan, color.Bold)
	for _, t := range threads {
		heading.Fprintf(c.out, "%s", format.VisibleText(t.Title))
		fmt.Fprintf(c.out, "  [%s/%s] %s %s\n", t.Platform, t.Model, t.Date.Format(time.DateTime), t.ID)
		for _, turn := range t.Chats {
			fmt.Fprintf(c.out, "  > %s\n", utils.Truncate(turn.Prompt, 80))
			fmt.Fprintf(c.out, "    %s\n", utils.Truncate(format.VisibleText(turn.Answer), 160))
		}
	}
	return nil
}

func (c *cli) showSettings(ctx context.Context) error {
	all, err := c.settings.GetAll(ctx)
	if err != nil {
		return err
	}
	selected, err := c.settings.GetSelectedPlatform(ctx)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Fprintln(c.out, "No settings stored.")
		return nil
	}

	for _, s := range all {
		marker := " "
		if s.Platform == selected {
			marker = "*"
		}
		key := "(unset)"
		if s.APIKey != "" {
			key = "********"
		}
		fmt.Fprintf(c.out, "%s %s model=%s temperature=%g apiKey=%s imageSize=%s responseNumber=%d\n",
			marker, c.label(s.Platform), s.Model, s.Temperature, key, s.ImageSize, s.ResponseNumber)
	}
	return nil
}

// set merges key=value pairs into the stored settings of a platform and selects it.
func (c *cli) set(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("set needs a platform")
	}
	platform := args[0]
	if _, err := c.platforms.GetPlatform(platform); err != nil {
		return err
	}

	current := models.Settings{Platform: platform}
	stored, err := c.settings.Get(ctx, platform)
	if err != nil {
		return err
	}
	if stored != nil {
		current = *stored
	}

	for _, pair := range args[1:] {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("expected key=value, got %q", pair)
		}
		switch key {
		case "model":
			current.Model = value
		case "apiKey":
			current.APIKey = value
		case "temperature":
			t, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("invalid temperature %q: %w", value, err)
			}
			current.Temperature = t
		case "imageSize":
			current.ImageSize = value
		case "responseNumber":
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid responseNumber %q: %w", value, err)
			}
			current.ResponseNumber = n
		default:
			return fmt.Errorf("unknown setting %q", key)
		}
	}

	if err := c.settings.Upsert(ctx, current); err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintln(c.out, "Settings saved successfully.")
	return nil
}

func (c *cli) printMarkdown(text string) {
	if c.render != nil {
		if out, err := c.render(text); err == nil {
			fmt.Fprint(c.out, out)
			return
		}
	}
	fmt.Fprintln(c.out, text)
}

func (c *cli) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}
