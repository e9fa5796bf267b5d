package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"codecompanion/internal/logging"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	doneSentinel         = "[DONE]"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// OpenAIClient talks to the chat completions endpoint.
type OpenAIClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewOpenAIClient(apiKey string, opts Options) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = defaultOpenAIBaseURL
	}
	return &OpenAIClient{apiKey: apiKey, baseURL: base, http: opts.httpClient()}, nil
}

func (c *OpenAIClient) Ask(ctx context.Context, req Request) (*ChatResult, error) {
	resp, err := c.post(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read completion: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		failure := providerErrorFromBody(PlatformOpenAI, resp.StatusCode, body)
		logging.WithFields("platform", PlatformOpenAI, "status", resp.StatusCode).Warnf("completion refused: %s", failure.Message)
		return &ChatResult{Failure: failure}, nil
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("failed to decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("completion contained no choices")
	}

	text := completion.Choices[0].Message.Content
	return &ChatResult{Text: text, Parts: []Part{{Text: text}}}, nil
}

func (c *OpenAIClient) Stream(ctx context.Context, req Request) (DeltaStream, error) {
	resp, err := c.post(ctx, req, true)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read stream error: %w", err)
		}
		return &failedStream{err: providerErrorFromBody(PlatformOpenAI, resp.StatusCode, body)}, nil
	}

	return &openAIStream{body: resp.Body, decoder: newSSEDecoder(resp.Body)}, nil
}

func (c *OpenAIClient) post(ctx context.Context, req Request, stream bool) (*http.Response, error) {
	payload, err := json.Marshal(chatCompletionRequest{
		Model:       req.Model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
		Stream:      stream,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	return resp, nil
}

type openAIStream struct {
	body    io.ReadCloser
	decoder *sseDecoder
	done    bool
}

func (s *openAIStream) Recv() (string, error) {
	for {
		if s.done {
			return "", io.EOF
		}

		ev, err := s.decoder.Next()
		if errors.Is(err, io.EOF) {
			s.done = true
			return "", io.EOF
		}
		if err != nil {
			return "", fmt.Errorf("stream read failed: %w", err)
		}

		if !ev.HasData {
			if isErrorPayload(ev.Raw) {
				s.done = true
				return "", providerErrorFromBody(PlatformOpenAI, 0, []byte(ev.Raw))
			}
			continue
		}

		payload := strings.TrimSpace(ev.Data)
		if payload == doneSentinel {
			s.done = true
			return "", io.EOF
		}
		if isErrorPayload(payload) {
			s.done = true
			return "", providerErrorFromBody(PlatformOpenAI, 0, []byte(payload))
		}

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return "", fmt.Errorf("failed to decode stream chunk: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			return delta, nil
		}
	}
}

func (s *openAIStream) Close() error {
	s.done = true
	return s.body.Close()
}

func isErrorPayload(payload string) bool {
	if strings.Contains(payload, quotaMarker) {
		return true
	}
	return gjson.Valid(payload) && gjson.Get(payload, "error").IsObject()
}
