package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codecompanion/internal/llm/client"
	"codecompanion/internal/models"
)

func TestToHTML_RendersBold(t *testing.T) {
	out, err := ToHTML("**hi**")
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>hi</strong>")
}

func TestToHTML_KeepsCodeLanguageClass(t *testing.T) {
	out, err := ToHTML("```go\nfmt.Println(1)\n```")
	require.NoError(t, err)
	assert.Contains(t, out, `<code class="language-go">`)
}

func TestToHTML_RendersGFMTables(t *testing.T) {
	out, err := ToHTML("| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>2</td>")
}

func TestToHTML_DropsScripts(t *testing.T) {
	out, err := ToHTML("hello <script>alert(1)</script>\n\n<a href=\"javascript:alert(1)\">x</a>")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "javascript:")
}

func TestVisibleText_PlainTextRoundTrip(t *testing.T) {
	for _, s := range []string{"hello world", "just a sentence.", "Numbers 1 2 3 & letters"} {
		out, err := ToHTML(s)
		require.NoError(t, err)
		assert.Equal(t, s, VisibleText(out))
	}
}

func TestSplitParts(t *testing.T) {
	img := models.InlineImage{Base64: "aGk=", MimeType: "image/png"}
	texts, images := SplitParts([]client.Part{
		{Text: "first"},
		{Image: &img},
		{Text: ""},
		{Text: "second"},
	})
	assert.Equal(t, []string{"first", "second"}, texts)
	assert.Equal(t, []models.InlineImage{img}, images)
}
