// Package sitemap walks a content tree and builds the entries of a sitemap.
package sitemap

import (
	"regexp"

	"github.com/toothbrush/content-replicate/content"
)

// PageRecognizer decides which nodes become entries and which are descended into.  A node can be
// both, or neither, in which case its subtree is pruned.
type PageRecognizer interface {
	IsPage(node *content.Node) bool
	IsBucket(node *content.Node) bool
}

// KindRecognizer treats page nodes as pages unless HideProperty is set on them, and descends into
// everything but assets.
type KindRecognizer struct {
	HideProperty string
}

func (k KindRecognizer) IsPage(node *content.Node) bool {
	if !node.IsPage() {
		return false
	}
	return k.HideProperty == "" || !node.BoolProperty(k.HideProperty)
}

func (k KindRecognizer) IsBucket(node *content.Node) bool {
	return node != nil && node.Kind != content.Asset
}

// Configuration is optional in every field.  Missing pieces fall back to: match every path,
// everything is a page and a bucket, no extra providers, and path + ".html" as URL.
type Configuration struct {
	PagePathPattern   *regexp.Regexp
	PageRecognizer    PageRecognizer
	PropertyProviders []PropertyProvider
	Externalizer      Externalizer
}

type Tree interface {
	Children(node *content.Node) []*content.Node
}

type Extractor struct {
	Config *Configuration
	Tree   Tree

	// DefaultProviders follow the configured ones; a configured provider with the same name wins.
	DefaultProviders []PropertyProvider
	URLBuilder       URLBuilder

	// Applies is an extra check in AppliesTo, only consulted when the path pattern matches.
	Applies func(root *content.Node) bool
}

func New(config *Configuration, tree Tree) *Extractor {
	return &Extractor{
		Config:           config,
		Tree:             tree,
		DefaultProviders: []PropertyProvider{LastModified{}},
		URLBuilder:       IndexedURLBuilder{},
	}
}

func (x *Extractor) config() Configuration {
	if x.Config == nil {
		return Configuration{}
	}
	return *x.Config
}

func (x *Extractor) AppliesTo(root *content.Node) bool {
	if root == nil {
		return false
	}
	if p := x.config().PagePathPattern; p != nil && !p.MatchString(root.Path) {
		return false
	}
	if x.Applies == nil {
		return true
	}
	return x.Applies(root)
}

// Extract returns the entries for node and its subtree, depth first, in child order.
func (x *Extractor) Extract(node *content.Node) []*Entry {
	if node == nil {
		return nil
	}
	return x.extract(node, x.providers())
}

func (x *Extractor) extract(node *content.Node, providers []PropertyProvider) []*Entry {
	var result []*Entry
	if x.isPage(node) {
		result = append(result, x.createEntry(node, providers))
	}
	if x.isBucket(node) && x.Tree != nil {
		for _, child := range x.Tree.Children(node) {
			result = append(result, x.extract(child, providers)...)
		}
	}
	return result
}

func (x *Extractor) isPage(node *content.Node) bool {
	r := x.config().PageRecognizer
	if r == nil {
		return true
	}
	return r.IsPage(node)
}

func (x *Extractor) isBucket(node *content.Node) bool {
	if node == nil {
		return false
	}
	r := x.config().PageRecognizer
	if r == nil {
		return true
	}
	return r.IsBucket(node)
}

func (x *Extractor) createEntry(node *content.Node, providers []PropertyProvider) *Entry {
	entry := NewEntry(node.Path)
	entry.URL = x.externalizePage(node)
	for _, p := range providers {
		if v := p.ExtractValue(node); v != nil {
			entry.PutProperty(p.PropertyName(), v)
		}
	}
	return entry
}

// providers merges configured and default providers, keeping the first of each name.
func (x *Extractor) providers() []PropertyProvider {
	seen := make(map[string]bool)
	var result []PropertyProvider
	add := func(list []PropertyProvider) {
		for _, p := range list {
			if p == nil || seen[p.PropertyName()] {
				continue
			}
			seen[p.PropertyName()] = true
			result = append(result, p)
		}
	}
	add(x.config().PropertyProviders)
	add(x.DefaultProviders)
	return result
}

func (x *Extractor) externalizePage(node *content.Node) string {
	e := x.config().Externalizer
	if e == nil {
		return node.Path + DotHTML
	}
	return e.MapPage(node)
}

func (x *Extractor) urlBuilder() URLBuilder {
	if x.URLBuilder == nil {
		return IndexedURLBuilder{}
	}
	return x.URLBuilder
}

// BuildSiteMapURL returns the public URL of the index-th sitemap document of root.
func (x *Extractor) BuildSiteMapURL(root *content.Node, index int) string {
	if root == nil {
		return ""
	}
	url := x.urlBuilder().BuildSiteMapURL(root, index)
	e := x.config().Externalizer
	if e == nil {
		return url
	}
	return e.MapURL(url)
}

func (x *Extractor) Index(requestPath string) int {
	return x.urlBuilder().Index(requestPath)
}
