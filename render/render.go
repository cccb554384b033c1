// Package render produces the static representations of a page: the HTML document and the
// structured-data JSON document.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/toothbrush/content-replicate/content"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

type Renderer interface {
	HTML(node *content.Node) ([]byte, error)
	Data(node *content.Node) ([]byte, error)
}

const defaultLayout = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
{{.Body}}
</body>
</html>
`

// Default renders the "body" property into a minimal layout.  Bodies with format "markdown" are
// converted first; links pointing into the content tree get the .html suffix the static copy
// uses.
type Default struct {
	Layout *template.Template

	// Paths with this prefix are treated as internal links.  Defaults to "/content/".
	LinkPrefix string

	markdown goldmark.Markdown
}

func NewDefault() *Default {
	return &Default{
		Layout:     template.Must(template.New("page").Parse(defaultLayout)),
		LinkPrefix: "/content/",
		markdown:   goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			// bodies come from the repository and may carry their own markup
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

type pageView struct {
	Title string
	Path  string
	Body  template.HTML
}

func (d *Default) HTML(node *content.Node) ([]byte, error) {
	body := node.StringProperty("body")

	if strings.EqualFold(node.StringProperty("format"), "markdown") {
		var buf bytes.Buffer
		if err := d.markdown.Convert([]byte(body), &buf); err != nil {
			return nil, fmt.Errorf("render: couldn't convert Markdown of %s: %w", node.Path, err)
		}
		body = buf.String()
	}

	body, err := d.rewriteLinks(body)
	if err != nil {
		return nil, fmt.Errorf("render: couldn't rewrite links of %s: %w", node.Path, err)
	}

	title := node.StringProperty("title")
	if title == "" {
		title = node.Name()
	}

	var out bytes.Buffer
	err = d.Layout.Execute(&out, pageView{
		Title: title,
		Path:  node.Path,
		Body:  template.HTML(body),
	})
	if err != nil {
		return nil, fmt.Errorf("render: couldn't execute layout for %s: %w", node.Path, err)
	}
	return out.Bytes(), nil
}

func (d *Default) rewriteLinks(body string) (string, error) {
	if body == "" || d.LinkPrefix == "" {
		return body, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", err
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if rewritten, ok := d.staticHref(href); ok {
			s.SetAttr("href", rewritten)
		}
	})

	return doc.Find("body").Html()
}

// staticHref maps /content/site/page#x to /content/site/page.html#x.
func (d *Default) staticHref(href string) (string, bool) {
	if !strings.HasPrefix(href, d.LinkPrefix) {
		return "", false
	}
	u, err := url.Parse(href)
	if err != nil || u.Host != "" || path.Ext(u.Path) != "" {
		return "", false
	}
	u.Path += ".html"
	return u.String(), true
}

type dataView struct {
	Path         string         `json:"path"`
	Kind         string         `json:"kind"`
	LastModified *time.Time     `json:"lastModified,omitempty"`
	Properties   map[string]any `json:"properties"`
}

func (d *Default) Data(node *content.Node) ([]byte, error) {
	view := dataView{
		Path:       node.Path,
		Kind:       node.Kind.String(),
		Properties: node.Properties,
	}
	if !node.LastModified.IsZero() {
		lm := node.LastModified.UTC()
		view.LastModified = &lm
	}
	if view.Properties == nil {
		view.Properties = map[string]any{}
	}

	b, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render: couldn't marshal data of %s: %w", node.Path, err)
	}
	return append(b, '\n'), nil
}
