package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenAITestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewOpenAIClient("sk-test", Options{BaseURL: srv.URL + "/", HTTPClient: srv.Client()})
	require.NoError(t, err)
	return c
}

func TestOpenAIClient_AskSendsSingleUserMessage(t *testing.T) {
	var got chatCompletionRequest
	c := newOpenAITestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"**hi**"}}]}`)
	})

	res, err := c.Ask(context.Background(), Request{Model: "gpt-4o", Prompt: "hello", Temperature: 0.7})
	require.NoError(t, err)
	assert.False(t, res.Failed())
	assert.Equal(t, "**hi**", res.Answer())
	assert.Equal(t, []Part{{Text: "**hi**"}}, res.Parts)

	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, []chatMessage{{Role: "user", Content: "hello"}}, got.Messages)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	assert.False(t, got.Stream)
}

func TestOpenAIClient_AskResolvesQuotaFailure(t *testing.T) {
	c := newOpenAITestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"quota exceeded"}}`)
	})

	res, err := c.Ask(context.Background(), Request{Model: "gpt-4o", Prompt: "hello", Temperature: 1})
	require.NoError(t, err)
	require.True(t, res.Failed())
	assert.True(t, res.Failure.IsQuota())
	assert.Contains(t, res.Answer(), "quota exceeded")
	assert.Equal(t, "Error message: quota exceeded", res.Answer())
}

func TestOpenAIClient_AskNonJSONBodyIsError(t *testing.T) {
	c := newOpenAITestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>gateway</html>")
	})

	_, err := c.Ask(context.Background(), Request{Model: "gpt-4o", Prompt: "hello", Temperature: 1})
	assert.Error(t, err)
}

func TestOpenAIClient_StreamOverHTTP(t *testing.T) {
	c := newOpenAITestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, chunk := range []string{
			"data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n",
			"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n",
			"data: [DONE]\n\n",
		} {
			_, _ = io.WriteString(w, chunk)
			flusher.Flush()
		}
	})

	s, err := c.Stream(context.Background(), Request{Model: "gpt-4o", Prompt: "hello", Temperature: 1})
	require.NoError(t, err)
	defer s.Close()

	deltas, err := collect(t, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo"}, deltas)
}

func TestOpenAIClient_StreamRejectedUpFront(t *testing.T) {
	c := newOpenAITestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key provided"}}`)
	})

	s, err := c.Stream(context.Background(), Request{Model: "gpt-4o", Prompt: "hello", Temperature: 1})
	require.NoError(t, err)

	_, err = s.Recv()
	perr, ok := AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, perr.StatusCode)
	assert.Equal(t, "Error message: Incorrect API key provided", perr.Error())

	_, err = s.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestNew_RejectsUnknownPlatformAndMissingKey(t *testing.T) {
	_, err := New(context.Background(), "claude", "key", Options{})
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)

	_, err = New(context.Background(), PlatformOpenAI, "  ", Options{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = New(context.Background(), PlatformGemini, "", Options{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestProviderErrorFromBody_FallsBackToStatusText(t *testing.T) {
	perr := providerErrorFromBody(PlatformOpenAI, http.StatusBadGateway, nil)
	assert.Equal(t, "Error message: Bad Gateway", perr.Error())
	assert.False(t, perr.IsQuota())
}
