package panels

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"codecompanion/internal/assets"
	"codecompanion/internal/events"
	"codecompanion/internal/llm/client"
	"codecompanion/internal/models"
	"codecompanion/internal/repositories"
	"codecompanion/internal/services"
)

type fakeProvider struct {
	ask    func(ctx context.Context, req client.Request) (*client.ChatResult, error)
	stream func(ctx context.Context, req client.Request) (client.DeltaStream, error)
}

func (f *fakeProvider) Ask(ctx context.Context, req client.Request) (*client.ChatResult, error) {
	return f.ask(ctx, req)
}

func (f *fakeProvider) Stream(ctx context.Context, req client.Request) (client.DeltaStream, error) {
	return f.stream(ctx, req)
}

type fakeImages struct {
	generate func(ctx context.Context, req client.ImageRequest) (*client.ImageResult, error)
}

func (f *fakeImages) Generate(ctx context.Context, req client.ImageRequest) (*client.ImageResult, error) {
	return f.generate(ctx, req)
}

type fakeFactory struct {
	mu       sync.Mutex
	provider client.Provider
	images   client.ImageGenerator
	err      error
	calls    int
}

func (f *fakeFactory) Provider(context.Context, string, string) (client.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.provider, f.err
}

func (f *fakeFactory) Images(string, string) (client.ImageGenerator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.images, f.err
}

func (f *fakeFactory) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type sliceStream struct {
	deltas []string
	err    error
}

func (s *sliceStream) Recv() (string, error) {
	if len(s.deltas) == 0 {
		if s.err != nil {
			err := s.err
			s.err = nil
			return "", err
		}
		return "", io.EOF
	}
	d := s.deltas[0]
	s.deltas = s.deltas[1:]
	return d, nil
}

func (s *sliceStream) Close() error { return nil }

type fakeDialogs struct {
	mu     sync.Mutex
	opened []string
	path   string
}

func (d *fakeDialogs) ChooseSavePath(context.Context, string) (string, error) {
	return d.path, nil
}

func (d *fakeDialogs) OpenURL(_ context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened = append(d.opened, url)
	return nil
}

type harness struct {
	deps     Deps
	mediator *events.MemoryMediator
	notifier *events.MemoryNotifier
	factory  *fakeFactory
	dialogs  *fakeDialogs
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := repositories.NewMemoryKeyValueRepository()
	catalog := services.NewPlatformCatalogService(assets.PlatformsData)
	require.NoError(t, catalog.Startup(context.Background()))

	h := &harness{
		mediator: events.NewMemoryMediator(),
		notifier: events.NewMemoryNotifier(),
		factory:  &fakeFactory{},
		dialogs:  &fakeDialogs{},
	}
	h.deps = Deps{
		Mediator:  h.mediator,
		Notifier:  h.notifier,
		Settings:  services.NewSettingsService(store),
		History:   services.NewHistoryService(store),
		Platforms: catalog,
		Keys:      services.NewAPIKeyResolver(nil, func(string) string { return "" }),
		Clients:   h.factory,
		Dialogs:   h.dialogs,
	}
	h.deps.Images = services.NewImageExportService(h.dialogs, nil)
	return h
}

func (h *harness) saveSettings(t *testing.T, s models.Settings) {
	t.Helper()
	require.NoError(t, h.deps.Settings.Upsert(context.Background(), s))
}

// send delivers a view message and waits for the panel to finish handling it.
func (h *harness) send(t *testing.T, p Panel, command string, data any) {
	t.Helper()
	msg, err := events.NewMessage(command, data)
	require.NoError(t, err)
	h.mediator.Send(p.Kind(), msg)
	p.Wait()
}

func (h *harness) commands(panel string) []string {
	var out []string
	for _, m := range h.mediator.Posted(panel) {
		out = append(out, m.Command)
	}
	return out
}

func (h *harness) last(t *testing.T, panel, command string, v any) {
	t.Helper()
	posted := h.mediator.Posted(panel)
	for i := len(posted) - 1; i >= 0; i-- {
		if posted[i].Command == command {
			require.NoError(t, posted[i].Decode(v))
			return
		}
	}
	t.Fatalf("no %s posted to %s", command, panel)
}

func (h *harness) noticeMessages() []string {
	var out []string
	for _, n := range h.notifier.Notices() {
		out = append(out, n.Message)
	}
	return out
}
