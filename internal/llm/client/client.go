package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"codecompanion/internal/models"
)

const (
	PlatformOpenAI = "openai"
	PlatformGemini = "gemini"
)

// Response modalities understood by multimodal providers.
const (
	ModalityText  = "TEXT"
	ModalityImage = "IMAGE"
)

// Request is one single-turn prompt.
type Request struct {
	Platform           string
	Model              string
	Prompt             string
	Temperature        float64
	ResponseModalities []string
}

// Part is one ordered piece of a multimodal reply: either text or an inline image.
type Part struct {
	Text  string
	Image *models.InlineImage
}

// ChatResult carries a completed reply or the provider's refusal. Transport failures are returned as errors instead.
type ChatResult struct {
	Text    string
	Parts   []Part
	Images  []models.InlineImage
	Failure *ProviderError
}

// Answer returns the reply text, or the failure message when the provider refused.
func (r *ChatResult) Answer() string {
	if r == nil {
		return ""
	}
	if r.Failure != nil {
		return r.Failure.Error()
	}
	return r.Text
}

// Failed reports whether the provider refused the request.
func (r *ChatResult) Failed() bool {
	return r != nil && r.Failure != nil
}

// DeltaStream yields answer increments in order. Recv returns io.EOF once the stream is finished,
// a *ProviderError when the provider reports a failure mid-stream and any other error for transport failures.
type DeltaStream interface {
	Recv() (string, error)
	Close() error
}

// Provider is a completion backend.
type Provider interface {
	Ask(ctx context.Context, req Request) (*ChatResult, error)
	Stream(ctx context.Context, req Request) (DeltaStream, error)
}

// ImageGenerator produces images from a prompt.
type ImageGenerator interface {
	Generate(ctx context.Context, req ImageRequest) (*ImageResult, error)
}

// Options tune how clients reach their provider.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return http.DefaultClient
}

// Factory builds clients for a platform.
type Factory interface {
	Provider(ctx context.Context, platform, apiKey string) (Provider, error)
	Images(platform, apiKey string) (ImageGenerator, error)
}

// DefaultFactory builds the real HTTP clients.
type DefaultFactory struct {
	OpenAIBaseURL string
	GeminiBaseURL string
	HTTPClient    *http.Client
}

// New builds the completion client for platform.
func New(ctx context.Context, platform, apiKey string, opts Options) (Provider, error) {
	switch strings.TrimSpace(platform) {
	case PlatformOpenAI:
		return NewOpenAIClient(apiKey, opts)
	case PlatformGemini:
		return NewGeminiClient(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, platform)
	}
}

func (f *DefaultFactory) Provider(ctx context.Context, platform, apiKey string) (Provider, error) {
	opts := Options{HTTPClient: f.HTTPClient}
	switch strings.TrimSpace(platform) {
	case PlatformOpenAI:
		opts.BaseURL = f.OpenAIBaseURL
	case PlatformGemini:
		opts.BaseURL = f.GeminiBaseURL
	}
	return New(ctx, platform, apiKey, opts)
}

func (f *DefaultFactory) Images(platform, apiKey string) (ImageGenerator, error) {
	if strings.TrimSpace(platform) != PlatformOpenAI {
		return nil, fmt.Errorf("%w: %s cannot generate images", ErrUnsupportedPlatform, platform)
	}
	return NewImageClient(apiKey, Options{BaseURL: f.OpenAIBaseURL, HTTPClient: f.HTTPClient})
}

// failedStream delivers a single provider failure and then ends.
type failedStream struct {
	err  error
	sent bool
}

func (s *failedStream) Recv() (string, error) {
	if s.sent {
		return "", io.EOF
	}
	s.sent = true
	return "", s.err
}

func (s *failedStream) Close() error { return nil }
