package sitemap

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ohler55/ojg/jp"
	"github.com/toothbrush/content-replicate/content"
	"golang.org/x/net/html"
)

// PropertyProvider contributes one named property to every entry.  A nil value leaves the
// property out.
type PropertyProvider interface {
	PropertyName() string
	ExtractValue(node *content.Node) any
}

// LastModified provides "lastmod" as an RFC 3339 timestamp in UTC.
type LastModified struct{}

func (LastModified) PropertyName() string {
	return "lastmod"
}

func (LastModified) ExtractValue(node *content.Node) any {
	if node == nil || node.LastModified.IsZero() {
		return nil
	}
	return node.LastModified.UTC().Format(time.RFC3339)
}

// Static provides the same value for every page.
type Static struct {
	Name  string
	Value any
}

func (s Static) PropertyName() string {
	return s.Name
}

func (s Static) ExtractValue(*content.Node) any {
	return s.Value
}

// JSONPath selects a value out of the node's properties, e.g. "$.seo.priority".
type JSONPath struct {
	name string
	expr jp.Expr
}

func NewJSONPath(name, selector string) (*JSONPath, error) {
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("sitemap: invalid jsonpath '%s': %w", selector, err)
	}
	return &JSONPath{name: name, expr: x}, nil
}

func (j *JSONPath) PropertyName() string {
	return j.name
}

// ExtractValue returns the single match, all matches as a slice, or nil when nothing matches.
func (j *JSONPath) ExtractValue(node *content.Node) any {
	if node == nil || node.Properties == nil {
		return nil
	}
	results := j.expr.Get(node.Properties)
	switch len(results) {
	case 0:
		return nil
	case 1:
		return results[0]
	default:
		return results
	}
}

// Summary formats for Summary.Format.
const (
	SummaryText     = "text"
	SummaryMarkdown = "markdown"
)

// Summary turns an HTML property into a short abstract, plain text unless Format is
// SummaryMarkdown.  The zero value reads "body".
type Summary struct {
	Name      string
	Property  string
	MaxLength int
	Format    string

	converter *md.Converter
}

func NewSummary(name, property string, maxLength int) *Summary {
	return &Summary{
		Name:      name,
		Property:  property,
		MaxLength: maxLength,
		converter: md.NewConverter("", true, nil),
	}
}

func (s *Summary) PropertyName() string {
	return s.Name
}

func (s *Summary) ExtractValue(node *content.Node) any {
	if node == nil {
		return nil
	}
	property := s.Property
	if property == "" {
		property = "body"
	}
	body := node.StringProperty(property)
	if body == "" {
		return nil
	}

	var (
		text string
		err  error
	)
	if s.Format == SummaryMarkdown {
		conv := s.converter
		if conv == nil {
			conv = md.NewConverter("", true, nil)
		}
		text, err = conv.ConvertString(body)
	} else {
		text, err = plainText(body)
	}
	if err != nil {
		return nil
	}

	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}
	return truncate(text, s.MaxLength)
}

// blockElements end a run of text; their content never runs into the next block.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true, "dd": true,
	"div": true, "dl": true, "dt": true, "figcaption": true, "figure": true, "footer": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hr": true, "li": true, "main": true, "nav": true, "ol": true, "p": true, "pre": true,
	"section": true, "table": true, "td": true, "th": true, "tr": true, "ul": true,
}

func plainText(body string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, template").Remove()

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			b.WriteByte(' ')
		}
	}
	for _, n := range doc.Find("body").Nodes {
		walk(n)
	}
	return b.String(), nil
}

func truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max])) + "..."
}
