package sitemap

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/toothbrush/content-replicate/content"
)

const DotHTML = ".html"

// Externalizer turns repository paths into public URLs.
type Externalizer interface {
	MapPage(node *content.Node) string
	MapURL(url string) string
}

// URLBuilder names the sitemap documents of a root.
type URLBuilder interface {
	BuildSiteMapURL(root *content.Node, index int) string
	Index(requestPath string) int
}

type Mapping struct {
	Prefix  string
	BaseURL string
}

// PrefixExternalizer replaces the longest matching path prefix with its base URL.  Paths that match
// no mapping are returned unchanged.
type PrefixExternalizer struct {
	mappings []Mapping
}

func NewPrefixExternalizer(mappings ...Mapping) *PrefixExternalizer {
	m := append([]Mapping(nil), mappings...)
	sort.SliceStable(m, func(i, j int) bool {
		return len(m[i].Prefix) > len(m[j].Prefix)
	})
	return &PrefixExternalizer{mappings: m}
}

func (p *PrefixExternalizer) MapPage(node *content.Node) string {
	return p.MapURL(node.Path + DotHTML)
}

func (p *PrefixExternalizer) MapURL(url string) string {
	for _, m := range p.mappings {
		prefix := strings.TrimSuffix(m.Prefix, "/")
		if url != prefix && !strings.HasPrefix(url, prefix+"/") && !strings.HasPrefix(url, prefix+".") {
			continue
		}
		rest := strings.TrimPrefix(url, prefix)
		base := strings.TrimSuffix(m.BaseURL, "/")
		switch {
		case rest == "":
			rest = "/"
		case strings.HasPrefix(rest, "."):
			// the prefix node itself is the site's index
			rest = "/index" + rest
		}
		return base + rest
	}
	return url
}

// IndexedURLBuilder names sitemaps <root>.sitemap.xml for the first document and
// <root>.sitemap.<n>.xml for the following ones.
type IndexedURLBuilder struct{}

var sitemapIndex = regexp.MustCompile(`\.sitemap(?:\.(\d+))?\.xml$`)

func (IndexedURLBuilder) BuildSiteMapURL(root *content.Node, index int) string {
	if index <= 0 {
		return root.Path + ".sitemap.xml"
	}
	return fmt.Sprintf("%s.sitemap.%d.xml", root.Path, index)
}

// Index returns the document number in requestPath, 0 when it has none.
func (IndexedURLBuilder) Index(requestPath string) int {
	m := sitemapIndex.FindStringSubmatch(requestPath)
	if m == nil || m[1] == "" {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
