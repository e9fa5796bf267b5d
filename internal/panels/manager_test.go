package panels

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codecompanion/internal/events"
)

func TestManager_ReusesLiveInstance(t *testing.T) {
	h := newHarness(t)
	m := NewManager(h.deps)
	ctx := context.Background()

	first, err := m.Open(ctx, events.PanelChat)
	require.NoError(t, err)
	second, err := m.Open(ctx, events.PanelChat)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, h.mediator.Subscribers(events.PanelChat))
}

func TestManager_CloseAllowsNewInstance(t *testing.T) {
	h := newHarness(t)
	m := NewManager(h.deps)
	ctx := context.Background()

	first, err := m.Open(ctx, events.PanelImage)
	require.NoError(t, err)
	m.Close(ctx, events.PanelImage)
	assert.True(t, first.Disposed())
	assert.Zero(t, h.mediator.Subscribers(events.PanelImage))

	_, ok := m.Get(events.PanelImage)
	assert.False(t, ok)

	second, err := m.Open(ctx, events.PanelImage)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, StateReady, second.State())

	m.CloseAll(ctx)
	assert.True(t, second.Disposed())
}

func TestManager_UnknownPanel(t *testing.T) {
	m := NewManager(newHarness(t).deps)
	_, err := m.Open(context.Background(), "models")
	assert.Error(t, err)
}
