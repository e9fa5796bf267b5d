package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codecompanion/internal/assets"
	"codecompanion/internal/llm/client"
	"codecompanion/internal/models"
	"codecompanion/internal/repositories"
	"codecompanion/internal/services"
)

func newTestCLI(t *testing.T, handler http.HandlerFunc) (*cli, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	catalog := services.NewPlatformCatalogService(assets.PlatformsData)
	require.NoError(t, catalog.Startup(context.Background()))

	stores := services.NewServices(repositories.NewMemoryKeyValueRepository())
	out := &bytes.Buffer{}
	return &cli{
		settings:  stores.Settings,
		history:   stores.History,
		platforms: catalog,
		keys:      services.NewAPIKeyResolver(nil, func(string) string { return "" }),
		clients:   &client.DefaultFactory{OpenAIBaseURL: srv.URL, HTTPClient: srv.Client()},
		out:       out,
		now:       func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	}, out
}

func storeOpenAI(t *testing.T, c *cli) {
	t.Helper()
	require.NoError(t, c.run(context.Background(), "set", []string{
		"openai", "model=gpt-4o", "apiKey=sk-test", "temperature=0.7", "imageSize=1024x1024", "responseNumber=2",
	}, askOptions{}))
}

func TestSet_StoresAndSelectsPlatform(t *testing.T) {
	c, out := newTestCLI(t, nil)
	storeOpenAI(t, c)
	assert.Contains(t, out.String(), "Settings saved successfully.")

	s, err := c.settings.Get(context.Background(), "openai")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "gpt-4o", s.Model)
	assert.InDelta(t, 0.7, s.Temperature, 1e-9)
	assert.Equal(t, 2, s.ResponseNumber)

	out.Reset()
	require.NoError(t, c.run(context.Background(), "settings", nil, askOptions{}))
	assert.Contains(t, out.String(), "* OpenAI model=gpt-4o")
	assert.Contains(t, out.String(), "apiKey=********")
	assert.NotContains(t, out.String(), "sk-test")
}

func TestSet_RejectsUnknownPlatformAndKeys(t *testing.T) {
	c, _ := newTestCLI(t, nil)
	assert.Error(t, c.run(context.Background(), "set", []string{"claude"}, askOptions{}))
	assert.Error(t, c.run(context.Background(), "set", []string{"openai", "color=blue"}, askOptions{}))
	assert.Error(t, c.run(context.Background(), "set", []string{"openai", "temperature=hot"}, askOptions{}))
}

func TestAsk_MissingKeyIsConfigError(t *testing.T) {
	c, _ := newTestCLI(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	err := c.run(context.Background(), "ask", []string{"hello"}, askOptions{})
	var cerr *services.ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "Please add your OpenAI api key!", cerr.Message)
}

func TestAsk_PrintsAnswerAndSavesHistory(t *testing.T) {
	c, out := newTestCLI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"**hi** there"}}]}`)
	})
	storeOpenAI(t, c)
	out.Reset()

	require.NoError(t, c.run(context.Background(), "ask", []string{"say", "hello"}, askOptions{Thread: "t-1"}))
	assert.Contains(t, out.String(), "**hi** there")
	assert.Contains(t, out.String(), "thread t-1")

	threads, err := c.history.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, "t-1", threads[0].ID)
	assert.Equal(t, "openai", threads[0].Platform)
	assert.Equal(t, "gpt-4o", threads[0].Model)
	require.Len(t, threads[0].Chats, 1)
	assert.Equal(t, "say hello", threads[0].Chats[0].Prompt)
	assert.Contains(t, threads[0].Chats[0].Answer, "<strong>hi</strong>")

	out.Reset()
	require.NoError(t, c.run(context.Background(), "history", nil, askOptions{}))
	assert.Contains(t, out.String(), "say hello")
	assert.Contains(t, out.String(), "hi there")
	assert.NotContains(t, out.String(), "<strong>")

	require.NoError(t, c.run(context.Background(), "history-clear", nil, askOptions{}))
	threads, err = c.history.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, threads)
}

func TestAsk_ModelOverride(t *testing.T) {
	var body string
	c, _ := newTestCLI(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`)
	})
	storeOpenAI(t, c)

	require.NoError(t, c.run(context.Background(), "ask", []string{"hi"}, askOptions{Model: "gpt-4"}))
	assert.Contains(t, body, `"model":"gpt-4"`)
}

func TestAsk_ProviderFailureIsNotSaved(t *testing.T) {
	c, _ := newTestCLI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"quota exceeded","code":"insufficient_quota"}}`)
	})
	storeOpenAI(t, c)

	err := c.run(context.Background(), "ask", []string{"hello"}, askOptions{})
	require.Error(t, err)
	perr, ok := client.AsProviderError(err)
	require.True(t, ok)
	assert.True(t, perr.IsQuota())
	assert.Equal(t, "Error message: quota exceeded", err.Error())

	threads, err := c.history.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, threads)
}

func TestStream_PrintsDeltas(t *testing.T) {
	c, out := newTestCLI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n"+
			"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n"+
			"data: [DONE]\n\n")
	})
	storeOpenAI(t, c)
	out.Reset()

	require.NoError(t, c.run(context.Background(), "stream", []string{"hi"}, askOptions{}))
	assert.True(t, strings.HasPrefix(out.String(), "Hello\n"))

	threads, err := c.history.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Contains(t, threads[0].Chats[0].Answer, "Hello")
}

func TestImage_PrintsURLs(t *testing.T) {
	c, out := newTestCLI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)
		_, _ = io.WriteString(w, `{"data":[{"url":"https://cdn/a.png"},{"url":"https://cdn/b.png"}]}`)
	})
	storeOpenAI(t, c)
	out.Reset()

	require.NoError(t, c.run(context.Background(), "image", []string{"a", "cat"}, askOptions{}))
	assert.Equal(t, "https://cdn/a.png\nhttps://cdn/b.png\n", out.String())
}

func TestImage_NeedsImageSettings(t *testing.T) {
	c, _ := newTestCLI(t, nil)
	require.NoError(t, c.settings.Upsert(context.Background(), models.Settings{
		Platform: "openai", APIKey: "sk-test", Temperature: 1,
	}))

	err := c.run(context.Background(), "image", []string{"a cat"}, askOptions{})
	var cerr *services.ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "Please add image size!", cerr.Message)
}

func TestRun_UnknownCommand(t *testing.T) {
	c, _ := newTestCLI(t, nil)
	err := c.run(context.Background(), "dance", nil, askOptions{})
	assert.ErrorIs(t, err, errUnknownCommand)
}
