// Package format turns provider replies into HTML safe to inject into a panel.
package format

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"codecompanion/internal/llm/client"
	"codecompanion/internal/models"
)

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(goldmarkhtml.WithXHTML()),
	)
	sanitizer = newSanitizer()
	stripper  = bluemonday.StrictPolicy()

	blankLines = regexp.MustCompile(`\n{3,}`)
)

func newSanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w+#-]+$`)).OnElements("code")
	return p
}

// ToHTML renders markdown to sanitized HTML.
func ToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return sanitizer.Sanitize(buf.String()), nil
}

// SplitParts separates a multimodal reply into its text pieces and its inline images, keeping order within each.
func SplitParts(parts []client.Part) ([]string, []models.InlineImage) {
	var (
		texts  []string
		images []models.InlineImage
	)
	for _, part := range parts {
		if part.Image != nil {
			images = append(images, *part.Image)
			continue
		}
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return texts, images
}

// VisibleText returns the text a reader sees in rendered HTML.
func VisibleText(rendered string) string {
	text := html.UnescapeString(stripper.Sanitize(rendered))
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
