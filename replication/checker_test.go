package replication

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toothbrush/content-replicate/content"
	"github.com/toothbrush/content-replicate/localfs"
)

func TestMarkedOnly(t *testing.T) {
	c := MarkedOnly("replicate")

	assert.Equal(t, Include, c.Check(&content.Node{Path: "/a", Properties: map[string]any{"replicate": true}}))
	assert.Equal(t, Include, c.Check(&content.Node{Path: "/a", Properties: map[string]any{"replicate": "true"}}))
	assert.Equal(t, Exclude, c.Check(&content.Node{Path: "/a", Properties: map[string]any{"replicate": false}}))
	assert.Equal(t, Include, c.Check(&content.Node{Path: "/a", Properties: map[string]any{"replicate": float64(1)}}))
	assert.Equal(t, Exclude, c.Check(&content.Node{Path: "/a", Properties: map[string]any{"replicate": float64(0)}}))
	assert.Equal(t, Exclude, c.Check(&content.Node{Path: "/a"}))
}

func TestExcludePaths(t *testing.T) {
	c := ExcludePaths(AcceptAll, "/content/example/assets/")

	assert.Equal(t, SkipSubtree, c.Check(&content.Node{Path: "/content/example/assets"}))
	assert.Equal(t, SkipSubtree, c.Check(&content.Node{Path: "/content/example/assets/logo.png"}))
	assert.Equal(t, Include, c.Check(&content.Node{Path: "/content/example/assetsmore"}))
	assert.Equal(t, Include, c.Check(&content.Node{Path: "/content/example"}))
}

func TestExcludeStillVisitsChildren(t *testing.T) {
	f := newFixture(t)
	ft := &flakyTarget{Target: f.target}
	f.engine.Target = ft

	onlyPages := CheckerFunc(func(n *content.Node) Decision {
		if n.IsPage() {
			return Include
		}
		return Exclude
	})
	require.NoError(t, f.engine.Replicate(context.Background(), f.node(t, "/content/example"), true, onlyPages))

	assert.Equal(t, []string{
		"/content/example/pages/index",
		"/content/example/pages/index/news",
		"/content/example/pages/contact",
	}, ft.written)
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "include", Include.String())
	assert.Equal(t, "exclude", Exclude.String())
	assert.Equal(t, "skip-subtree", SkipSubtree.String())
}

func TestRegistry(t *testing.T) {
	target := localfs.NewWithFilesystem(nil, nil, zerolog.Nop())

	r := NewRegistry()
	_, err := r.Get(localfs.Name)
	assert.Error(t, err)

	require.NoError(t, r.Register(target))
	assert.Error(t, r.Register(target))
	assert.Error(t, r.Register(nil))

	got, err := r.Get(localfs.Name)
	require.NoError(t, err)
	assert.Same(t, target, got)

	_, err = r.Get("")
	assert.ErrorContains(t, err, "localFS")

	assert.Equal(t, []string{"localFS"}, r.Names())
}
