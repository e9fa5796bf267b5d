package actions

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codecompanion/internal/models"
)

type fakeChatModel struct {
	reply    string
	err      error
	received []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.received = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func runnerWith(cm *fakeChatModel) *Runner {
	return NewRunner(func(context.Context, models.Settings) (model.BaseChatModel, error) { return cm, nil })
}

func TestBuildPrompt(t *testing.T) {
	p, err := BuildPrompt(Refactor, "go", "func a() {}")
	require.NoError(t, err)
	assert.Equal(t, "Refactor the following go code func a() {}", p)

	p, err = BuildPrompt(AddComments, "html", `<div class="x"></div>`)
	require.NoError(t, err)
	assert.Equal(t, "Add comments for the following HTML code and format with 80 colums.<div class='x'></div>", p)

	_, err = BuildPrompt(AddDocumentation, "go", "func a() {}")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)

	_, err = BuildPrompt(Refactor, "go", "   ")
	assert.ErrorIs(t, err, ErrEmptySelection)

	_, err = BuildPrompt(Kind("explain"), "go", "x")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestRunAddDocumentationCutsAtClosingMarker(t *testing.T) {
	cm := &fakeChatModel{reply: "/**\n * Adds numbers.\n * @returns {number}\n */\nfunction add(a, b) {}"}

	out, err := runnerWith(cm).Run(context.Background(), AddDocumentation, models.Settings{}, "javascript", "function add(a, b) {}")
	require.NoError(t, err)
	assert.Equal(t, "/**\n * Adds numbers.\n * @returns {number}\n */ \nfunction add(a, b) {}", out)
	require.Len(t, cm.received, 1)
	assert.Equal(t, schema.User, cm.received[0].Role)
}

func TestRunAddDocumentationCSharp(t *testing.T) {
	cm := &fakeChatModel{reply: "/// <summary>Sum</summary>\n/// <returns>int</returns>\npublic int Sum() {}"}

	out, err := runnerWith(cm).Run(context.Background(), AddDocumentation, models.Settings{}, "csharp", "public int Sum() {}")
	require.NoError(t, err)
	assert.Equal(t, "/// <summary>Sum</summary>\n/// <returns>int</returns> \npublic int Sum() {}", out)
}

func TestRunAddCommentsPrependsCompletion(t *testing.T) {
	cm := &fakeChatModel{reply: "// adds"}

	out, err := runnerWith(cm).Run(context.Background(), AddComments, models.Settings{}, "go", "a + b")
	require.NoError(t, err)
	assert.Equal(t, "// adds\na + b", out)
}

func TestRunRefactorUnwrapsFence(t *testing.T) {
	cm := &fakeChatModel{reply: "```go\nfunc a() int { return 1 }\n```"}

	out, err := runnerWith(cm).Run(context.Background(), Refactor, models.Settings{}, "go", "func a() int { x := 1; return x }")
	require.NoError(t, err)
	assert.Equal(t, "func a() int { return 1 }", out)
}

func TestRunPropagatesModelError(t *testing.T) {
	cm := &fakeChatModel{err: errors.New("boom")}

	_, err := runnerWith(cm).Run(context.Background(), Refactor, models.Settings{}, "go", "x")
	assert.ErrorContains(t, err, "boom")
}

func TestNewChatModelRequiresKeyAndKnownPlatform(t *testing.T) {
	factory := NewChatModel("", "")

	_, err := factory(context.Background(), models.Settings{Platform: "openai"})
	assert.Error(t, err)

	_, err = factory(context.Background(), models.Settings{Platform: "mistral", APIKey: "k"})
	assert.Error(t, err)
}
