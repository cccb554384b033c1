package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toothbrush/content-replicate/content"
	"github.com/toothbrush/content-replicate/state"
)

const site = `
path: /content/example
children:
  - name: pages
    children:
      - name: index
        kind: page
        properties:
          title: Home
          publish: true
          body: <p>Welcome</p>
          seo:
            priority: 0.5
      - name: contact
        kind: page
        properties:
          title: Contact
`

type workspace struct {
	dir     string
	config  string
	content string
	out     string
	db      string
}

func newWorkspace(t *testing.T, extraConfig string) *workspace {
	t.Helper()
	resetFlags()

	dir := t.TempDir()
	w := &workspace{
		dir:     dir,
		config:  filepath.Join(dir, "config.yaml"),
		content: filepath.Join(dir, "content.yaml"),
		out:     filepath.Join(dir, "out"),
		db:      filepath.Join(dir, "state.db"),
	}
	require.NoError(t, os.WriteFile(w.content, []byte(site), 0o644))

	config := "store: " + w.out + "\n" +
		"state-db: " + w.db + "\n" +
		"logging:\n  level: error\n" +
		extraConfig
	require.NoError(t, os.WriteFile(w.config, []byte(config), 0o644))
	return w
}

func (w *workspace) run(args ...string) error {
	rootCmd.SetArgs(append(args, "--config", w.config, "--content", w.content))
	return rootCmd.Execute()
}

// output runs the command and returns what it printed.
func (w *workspace) output(args ...string) (string, error) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	defer rootCmd.SetOut(nil)
	err := w.run(args...)
	return buf.String(), err
}

func (w *workspace) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(w.out, rel))
	return err == nil
}

// resetFlags undoes what an earlier Execute left behind in the shared command tree.
func resetFlags() {
	reset := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace([]string{})
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
	}
	rootCmd.SetOut(nil)
	reset(rootCmd.PersistentFlags())
	for _, c := range rootCmd.Commands() {
		reset(c.Flags())
	}
	Config = ""
}

func TestReplicateThenDeactivate(t *testing.T) {
	w := newWorkspace(t, "recursive: true\n")

	require.NoError(t, w.run("replicate", "/content/example/pages"))
	assert.True(t, w.exists("content/example/pages/index.html"))
	assert.True(t, w.exists("content/example/pages/index.data.json"))
	assert.True(t, w.exists("content/example/pages/contact.html"))

	require.NoError(t, w.run("deactivate", "/content/example/pages/contact"))
	assert.False(t, w.exists("content/example/pages/contact.html"))
	assert.False(t, w.exists("content/example/pages/contact.data.json"))
	assert.True(t, w.exists("content/example/pages/index.html"))
	assert.True(t, w.exists("content/example/pages/index.data.json"))

	store, err := state.OpenSQLite(w.db)
	require.NoError(t, err)
	defer store.Close()
	tracker := state.NewTracker(store, "localFS")

	ctx := context.Background()
	ok, err := tracker.IsReplicated(ctx, &content.Node{Path: "/content/example/pages/index"})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = tracker.IsReplicated(ctx, &content.Node{Path: "/content/example/pages/contact"})
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, w.run("status", "/content/example"))
}

func TestReplicateNonRecursiveByDefault(t *testing.T) {
	w := newWorkspace(t, "")

	require.NoError(t, w.run("replicate", "/content/example/pages/index"))
	assert.True(t, w.exists("content/example/pages/index.html"))
	assert.False(t, w.exists("content/example/pages/contact.html"))
}

func TestReplicateOnlyModified(t *testing.T) {
	w := newWorkspace(t, "recursive: true\n")

	require.NoError(t, w.run("replicate", "/content/example/pages"))
	require.NoError(t, os.Remove(filepath.Join(w.out, "content/example/pages/index.html")))
	require.NoError(t, os.Remove(filepath.Join(w.out, "content/example/pages/contact.html")))

	// contact changes after it was published, index does not
	changed := strings.Replace(site,
		"        kind: page\n        properties:\n          title: Contact",
		"        kind: page\n        lastModified: 2999-01-01T00:00:00Z\n        properties:\n          title: Contact", 1)
	require.NotEqual(t, site, changed)
	require.NoError(t, os.WriteFile(w.content, []byte(changed), 0o644))

	require.NoError(t, w.run("replicate", "/content/example/pages", "--only-modified"))
	assert.True(t, w.exists("content/example/pages/contact.html"))
	assert.False(t, w.exists("content/example/pages/index.html"))
}

func TestStatus(t *testing.T) {
	w := newWorkspace(t, "recursive: true\n")
	require.NoError(t, w.run("replicate", "/content/example/pages"))

	// contact disappears from the repository after it was published
	gone := strings.Replace(site, "      - name: contact\n        kind: page\n        properties:\n          title: Contact\n", "", 1)
	require.NotEqual(t, site, gone)
	require.NoError(t, os.WriteFile(w.content, []byte(gone), 0o644))

	out, err := w.output("status", "/content/example")
	require.NoError(t, err)

	lines := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n")[1:] {
		fields := strings.Fields(line)
		require.GreaterOrEqual(t, len(fields), 3, line)
		lines[fields[0]] = fields[2]
	}
	assert.Equal(t, "unpublished", lines["/content/example"])
	assert.Equal(t, "published", lines["/content/example/pages"])
	assert.Equal(t, "published", lines["/content/example/pages/index"])
	assert.Equal(t, "orphaned", lines["/content/example/pages/contact"])
}

func TestReplicateMarked(t *testing.T) {
	w := newWorkspace(t, "")

	require.NoError(t, w.run("replicate", "/content/example/pages", "--recursive", "--marked", "publish"))
	assert.True(t, w.exists("content/example/pages/index.html"))
	assert.False(t, w.exists("content/example/pages/contact.html"))
}

func TestUnknownTarget(t *testing.T) {
	w := newWorkspace(t, "")

	err := w.run("replicate", "/content/example/pages/index", "--target", "s3")
	assert.ErrorContains(t, err, "unknown target")
}

func TestMissingContent(t *testing.T) {
	w := newWorkspace(t, "")

	assert.Error(t, w.run("replicate", "/content/example/nope"))
}

func TestConfigIsStrict(t *testing.T) {
	w := newWorkspace(t, "bogus: true\n")
	assert.ErrorContains(t, w.run("config", "which"), "bogus")

	w = newWorkspace(t, "workers: 0\n")
	assert.ErrorContains(t, w.run("config", "which"), "Workers")

	w = newWorkspace(t, "sitemap:\n  properties:\n    - name: empty\n")
	assert.Error(t, w.run("config", "which"))
}

func TestConfigWhich(t *testing.T) {
	w := newWorkspace(t, "")

	out, err := w.output("config", "which")
	require.NoError(t, err)
	assert.Contains(t, out, "Config path: "+w.config)
	assert.NotContains(t, out, "not found")
}

func TestSitemapCommand(t *testing.T) {
	w := newWorkspace(t, `
sitemap:
  pattern: ^/content/example(/.*)?$
  externalize:
    - prefix: /content/example/pages
      base-url: https://www.example.com
  properties:
    - name: priority
      jsonpath: $.seo.priority
    - name: changefreq
      value: weekly
`)
	out, err := w.output("sitemap", "/content/example", "--index", "2")
	require.NoError(t, err)

	var doc struct {
		SiteMap string `json:"sitemap"`
		Entries []struct {
			Path       string          `json:"path"`
			URL        string          `json:"url"`
			Properties json.RawMessage `json:"properties"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc), out)

	assert.Equal(t, "/content/example.sitemap.2.xml", doc.SiteMap)
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, "/content/example/pages/index", doc.Entries[0].Path)
	assert.Equal(t, "https://www.example.com/index.html", doc.Entries[0].URL)
	assert.Equal(t, "https://www.example.com/contact.html", doc.Entries[1].URL)

	props := string(doc.Entries[0].Properties)
	require.Contains(t, props, `"priority"`)
	require.Contains(t, props, `"changefreq"`)
	assert.Less(t, strings.Index(props, `"priority"`), strings.Index(props, `"changefreq"`), props)
	assert.NotContains(t, string(doc.Entries[1].Properties), `"priority"`)

	assert.Error(t, w.run("sitemap", "/content"))
}

func TestNewExtractor(t *testing.T) {
	repo, err := content.DecodeYAML(strings.NewReader(site), t.TempDir())
	require.NoError(t, err)

	x, err := newExtractor(SitemapConfig{
		Externalize: []MappingConfig{{Prefix: "/content/example/pages", BaseURL: "https://www.example.com"}},
		Properties: []PropertyConfig{
			{Name: "priority", JSONPath: "$.seo.priority"},
			{Name: "summary", Summary: "body"},
			{Name: "changefreq", Value: "weekly"},
		},
	}, repo)
	require.NoError(t, err)

	root, _ := repo.Get("/content/example")
	entries := x.Extract(root)
	require.Len(t, entries, 2)
	assert.Equal(t, "https://www.example.com/index.html", entries[0].URL)

	names := []string{}
	for _, p := range entries[0].Properties() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"priority", "summary", "changefreq"}, names)

	_, err = newExtractor(SitemapConfig{Pattern: "("}, repo)
	assert.Error(t, err)
}
