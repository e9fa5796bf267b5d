package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"codecompanion/internal/logging"
	"codecompanion/internal/models"
)

const (
	DefaultImageModel   = "dall-e-3"
	DefaultImageQuality = "standard"
)

// ImageRequest asks for N images of the given size.
type ImageRequest struct {
	Prompt  string
	N       int
	Size    string
	Model   string
	Quality string
}

// ImageResult holds generated images or the provider's refusal.
type ImageResult struct {
	Images  []models.GeneratedImage
	Failure *ProviderError
}

// URLs lists the remote URLs of the generated images.
func (r *ImageResult) URLs() []string {
	if r == nil {
		return nil
	}
	urls := make([]string, 0, len(r.Images))
	for _, img := range r.Images {
		if img.URL != "" {
			urls = append(urls, img.URL)
		}
	}
	return urls
}

type imageGenerationRequest struct {
	Prompt  string `json:"prompt"`
	N       int    `json:"n"`
	Size    string `json:"size"`
	Model   string `json:"model"`
	Quality string `json:"quality"`
}

type imageGenerationResponse struct {
	Data []models.GeneratedImage `json:"data"`
}

// ImageClient calls the OpenAI images endpoint.
type ImageClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewImageClient(apiKey string, opts Options) (*ImageClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = defaultOpenAIBaseURL
	}
	return &ImageClient{apiKey: apiKey, baseURL: base, http: opts.httpClient()}, nil
}

func (c *ImageClient) Generate(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	body := imageGenerationRequest{
		Prompt:  req.Prompt,
		N:       req.N,
		Size:    req.Size,
		Model:   req.Model,
		Quality: req.Quality,
	}
	if body.Model == "" {
		body.Model = DefaultImageModel
	}
	if body.Quality == "" {
		body.Quality = DefaultImageQuality
	}
	if body.N <= 0 {
		body.N = 1
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("image request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		failure := providerErrorFromBody(PlatformOpenAI, resp.StatusCode, raw)
		logging.WithFields("platform", PlatformOpenAI, "status", resp.StatusCode).Warnf("image generation refused: %s", failure.Message)
		return &ImageResult{Failure: failure}, nil
	}

	var decoded imageGenerationResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode image response: %w", err)
	}
	return &ImageResult{Images: decoded.Data}, nil
}
