package client

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"google.golang.org/genai"

	"codecompanion/internal/logging"
	"codecompanion/internal/models"
)

// GeminiClient wraps the genai SDK for text and multimodal completions.
type GeminiClient struct {
	client *genai.Client
}

func NewGeminiClient(ctx context.Context, apiKey string, opts Options) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}

	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{client: c}, nil
}

func generationConfig(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	modalities := req.ResponseModalities
	if len(modalities) == 0 {
		modalities = []string{ModalityText, ModalityImage}
	}
	cfg.ResponseModalities = append(cfg.ResponseModalities, modalities...)
	return cfg
}

func (c *GeminiClient) Ask(ctx context.Context, req Request) (*ChatResult, error) {
	resp, err := c.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), generationConfig(req))
	if err != nil {
		if failure, ok := geminiFailure(err); ok {
			logging.WithFields("platform", PlatformGemini, "status", failure.StatusCode).Warnf("completion refused: %s", failure.Message)
			return &ChatResult{Failure: failure}, nil
		}
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	result := &ChatResult{}
	var texts []string
	for _, part := range firstCandidateParts(resp) {
		if part.Text != "" {
			texts = append(texts, part.Text)
			result.Parts = append(result.Parts, Part{Text: part.Text})
		}
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			img := inlineImage(part.InlineData)
			result.Images = append(result.Images, img)
			result.Parts = append(result.Parts, Part{Image: &img})
		}
	}
	result.Text = strings.Join(texts, "")
	return result, nil
}

func (c *GeminiClient) Stream(ctx context.Context, req Request) (DeltaStream, error) {
	seq := c.client.Models.GenerateContentStream(ctx, req.Model, genai.Text(req.Prompt), generationConfig(req))
	next, stop := iter.Pull2(seq)
	return &geminiStream{next: next, stop: stop}, nil
}

type geminiStream struct {
	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()
	done bool
}

func (s *geminiStream) Recv() (string, error) {
	for {
		if s.done {
			return "", io.EOF
		}
		resp, err, ok := s.next()
		if !ok {
			s.finish()
			return "", io.EOF
		}
		if err != nil {
			s.finish()
			if failure, isFailure := geminiFailure(err); isFailure {
				return "", failure
			}
			return "", fmt.Errorf("gemini stream failed: %w", err)
		}

		var sb strings.Builder
		for _, part := range firstCandidateParts(resp) {
			sb.WriteString(part.Text)
		}
		if sb.Len() > 0 {
			return sb.String(), nil
		}
	}
}

func (s *geminiStream) Close() error {
	s.finish()
	return nil
}

func (s *geminiStream) finish() {
	if !s.done {
		s.done = true
		s.stop()
	}
}

func firstCandidateParts(resp *genai.GenerateContentResponse) []*genai.Part {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return nil
	}
	parts := make([]*genai.Part, 0, len(candidate.Content.Parts))
	for _, p := range candidate.Content.Parts {
		if p != nil {
			parts = append(parts, p)
		}
	}
	return parts
}

func inlineImage(blob *genai.Blob) models.InlineImage {
	return models.InlineImage{
		Base64:   base64.StdEncoding.EncodeToString(blob.Data),
		MimeType: blob.MIMEType,
	}
}

func geminiFailure(err error) (*ProviderError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return failureFromAPIError(apiErr), true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return failureFromAPIError(*apiErrPtr), true
	}
	return nil, false
}

func failureFromAPIError(apiErr genai.APIError) *ProviderError {
	msg := apiErr.Message
	if msg == "" {
		msg = apiErr.Status
	}
	return &ProviderError{Platform: PlatformGemini, StatusCode: apiErr.Code, Code: apiErr.Status, Message: msg}
}
