package render

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toothbrush/content-replicate/content"
)

func TestHTMLRewritesInternalLinks(t *testing.T) {
	node := &content.Node{
		Path: "/content/example/pages/index",
		Kind: content.Page,
		Properties: map[string]any{
			"title": "Home",
			"body": `<p><a href="/content/example/pages/contact">Contact</a>` +
				` <a href="/content/example/pages/contact#map">Map</a>` +
				` <a href="/content/example/assets/brochure.pdf">PDF</a>` +
				` <a href="https://example.com/">Out</a></p>`,
		},
	}

	out, err := NewDefault().HTML(node)
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "<title>Home</title>")
	assert.Contains(t, html, `href="/content/example/pages/contact.html"`)
	assert.Contains(t, html, `href="/content/example/pages/contact.html#map"`)
	assert.Contains(t, html, `href="/content/example/assets/brochure.pdf"`)
	assert.Contains(t, html, `href="https://example.com/"`)
}

func TestHTMLFromMarkdown(t *testing.T) {
	node := &content.Node{
		Path: "/content/example/pages/news",
		Kind: content.Page,
		Properties: map[string]any{
			"format": "markdown",
			"body":   "# Hello\n\nSee [contact](/content/example/pages/contact).\n",
		},
	}

	out, err := NewDefault().HTML(node)
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "<title>news</title>")
	assert.Contains(t, html, "<h1>Hello</h1>")
	assert.Contains(t, html, `href="/content/example/pages/contact.html"`)
}

func TestHTMLFromMarkdownKeepsInlineHTML(t *testing.T) {
	node := &content.Node{
		Path: "/content/example/pages/hero",
		Kind: content.Page,
		Properties: map[string]any{
			"format": "markdown",
			"body":   "Hello <em>inline</em>\n\n<div class=\"hero\">Block</div>\n",
		},
	}

	out, err := NewDefault().HTML(node)
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "<em>inline</em>")
	assert.Contains(t, html, `<div class="hero">Block</div>`)
	assert.NotContains(t, html, "raw HTML omitted")
}

func TestData(t *testing.T) {
	node := &content.Node{
		Path:         "/content/example/pages/index",
		Kind:         content.Page,
		LastModified: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Properties:   map[string]any{"title": "Home"},
	}

	out, err := NewDefault().Data(node)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "/content/example/pages/index", decoded["path"])
	assert.Equal(t, "page", decoded["kind"])
	assert.Equal(t, "2024-01-02T03:04:05Z", decoded["lastModified"])
	assert.Equal(t, map[string]any{"title": "Home"}, decoded["properties"])
}
