package sling

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toothbrush/content-replicate/content"
	"gopkg.in/dnaeon/go-vcr.v3/cassette"
	"gopkg.in/dnaeon/go-vcr.v3/recorder"
)

const exampleTree = `{
  "jcr:primaryType": "sling:Folder",
  "jcr:created": "Mon Jan 01 2024 00:00:00 GMT+0000",
  "pages": {
    "jcr:primaryType": "sling:OrderedFolder",
    "contact": {
      "jcr:primaryType": "per:Page",
      "jcr:content": {
        "jcr:primaryType": "per:PageContent",
        "jcr:title": "Contact",
        "jcr:lastModified": "Tue Apr 02 2024 10:15:30 GMT+0200"
      }
    },
    "index": {
      "jcr:primaryType": "per:Page",
      "jcr:content": {
        "jcr:primaryType": "per:PageContent",
        "jcr:title": "Home",
        "body": "<p>Hi</p>",
        "seo": {"priority": 0.8}
      },
      "news": {
        "jcr:primaryType": "per:Page",
        "jcr:content": {"jcr:title": "News"}
      }
    }
  },
  "assets": {
    "jcr:primaryType": "sling:Folder",
    "notes.txt": {
      "jcr:primaryType": "nt:file",
      "jcr:created": "2024-03-01T08:00:00.000+01:00",
      "jcr:content": {
        "jcr:primaryType": "nt:resource",
        "jcr:lastModified": "Fri Mar 01 2024 09:00:00 GMT+0100"
      }
    }
  },
  "rep:policy": {"jcr:primaryType": "rep:ACL"}
}`

func exampleServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, p, ok := r.BasicAuth(); !ok || u != "admin" || p != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/content/example.infinity.json":
			assert.Equal(t, "utf-8", r.URL.Query().Get("_charset_"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(exampleTree))
		case "/content/example/assets/notes.txt":
			_, _ = w.Write([]byte("hello"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRecorder(t *testing.T, cassetteName string, mode recorder.Mode) *recorder.Recorder {
	t.Helper()
	r, err := recorder.NewWithOptions(&recorder.Options{
		CassetteName:       cassetteName,
		Mode:               mode,
		SkipRequestLatency: true,
		RealTransport:      http.DefaultTransport,
	})
	require.NoError(t, err)

	// Add a hook which removes Authorization headers from all requests
	r.AddHook(func(i *cassette.Interaction) error {
		delete(i.Request.Headers, "Authorization")
		return nil
	}, recorder.AfterCaptureHook)
	return r
}

func checkExampleRepository(t *testing.T, repo *content.Repository) {
	t.Helper()
	assert.Equal(t, 7, repo.Len())

	pages, ok := repo.Get("/content/example/pages")
	require.True(t, ok)
	assert.Equal(t, content.Folder, pages.Kind)

	var names []string
	for _, c := range repo.Children(pages) {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"contact", "index"}, names)

	contact, ok := repo.Get("/content/example/pages/contact")
	require.True(t, ok)
	assert.Equal(t, content.Page, contact.Kind)
	assert.Equal(t, "Contact", contact.StringProperty("title"))
	assert.True(t, contact.LastModified.Equal(time.Date(2024, 4, 2, 8, 15, 30, 0, time.UTC)))

	index, ok := repo.Get("/content/example/pages/index")
	require.True(t, ok)
	assert.Equal(t, "<p>Hi</p>", index.StringProperty("body"))
	assert.Equal(t, map[string]any{"priority": 0.8}, index.Properties["seo"])

	_, ok = repo.Get("/content/example/pages/index/news")
	assert.True(t, ok)

	notes, ok := repo.Get("/content/example/assets/notes.txt")
	require.True(t, ok)
	assert.Equal(t, content.Asset, notes.Kind)
	assert.Equal(t, []byte("hello"), notes.Data)
	assert.True(t, notes.LastModified.Equal(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)))

	_, ok = repo.Get("/content/example/rep:policy")
	assert.False(t, ok)
}

func TestLoadRepositoryRecordAndReplay(t *testing.T) {
	srv := exampleServer(t)
	cassetteName := filepath.Join(t.TempDir(), "example")
	ctx := context.Background()

	api, err := NewAPI(srv.URL, "admin", "secret")
	require.NoError(t, err)

	rec := newRecorder(t, cassetteName, recorder.ModeRecordOnly)
	api.Client = rec.GetDefaultClient()
	repo, err := LoadRepository(ctx, api, "/content/example", Infinity)
	require.NoError(t, err)
	require.NoError(t, rec.Stop())
	checkExampleRepository(t, repo)

	recorded, err := os.ReadFile(cassetteName + ".yaml")
	require.NoError(t, err)
	assert.NotContains(t, string(recorded), "Authorization")

	// the server is gone, everything has to come from the cassette
	srv.Close()

	rec = newRecorder(t, cassetteName, recorder.ModeReplayOnly)
	defer rec.Stop()
	api.Client = rec.GetDefaultClient()
	repo, err = LoadRepository(ctx, api, "/content/example", Infinity)
	require.NoError(t, err)
	checkExampleRepository(t, repo)
}

func TestRequestErrors(t *testing.T) {
	srv := exampleServer(t)
	ctx := context.Background()

	api, err := NewAPI(srv.URL, "admin", "wrong")
	require.NoError(t, err)
	_, err = api.GetTree(ctx, TreeQuery{Path: "/content/example", Depth: Infinity})
	assert.ErrorContains(t, err, "authentication failed")

	api, err = NewAPI(srv.URL, "admin", "secret")
	require.NoError(t, err)
	_, err = api.GetBinary(ctx, "/content/missing.png")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = api.GetTree(ctx, TreeQuery{Path: "content/example"})
	assert.Error(t, err)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type brokenBody struct{ closed bool }

func (b *brokenBody) Read([]byte) (int, error) { return 0, errors.New("connection reset by peer") }
func (b *brokenBody) Close() error             { b.closed = true; return nil }

func TestBodyClosedWhenReadFails(t *testing.T) {
	body := &brokenBody{}
	api, err := NewAPI("http://localhost:4502", "", "")
	require.NoError(t, err)
	api.Client = &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Status: "200 OK", Header: http.Header{}, Body: body, Request: r}, nil
	})}

	_, err = api.GetBinary(context.Background(), "/content/example/assets/logo.png")
	assert.ErrorContains(t, err, "connection reset by peer")
	assert.True(t, body.closed)
}

func TestTreeEndpoint(t *testing.T) {
	api, err := NewAPI("http://localhost:4502/author/", "", "")
	require.NoError(t, err)

	ep, err := api.getTreeEndpoint(TreeQuery{Path: "/content/example/", Depth: 2, Charset: "utf-8"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4502/author/content/example.2.json?_charset_=utf-8", ep.String())

	ep, err = api.getTreeEndpoint(TreeQuery{Path: "/content", Depth: Infinity})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4502/author/content.infinity.json", ep.String())

	_, err = NewAPI("", "", "")
	assert.Error(t, err)
	_, err = NewAPI("localhost:4502", "", "")
	assert.Error(t, err)
	_, err = NewAPI("http://localhost:4502", "admin", "")
	assert.Error(t, err)
}

func TestDecodeObjectKeepsOrder(t *testing.T) {
	obj, err := DecodeObject(strings.NewReader(`{"b": 1, "a": {"z": [1, {"y": true}], "x": null}, "b": 2}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, obj.Keys)
	assert.Equal(t, 2.0, obj.Values["b"])

	a, ok := obj.Child("a")
	require.True(t, ok)
	assert.Equal(t, []string{"z", "x"}, a.Keys)
	assert.Equal(t, map[string]any{"z": []any{1.0, map[string]any{"y": true}}, "x": nil}, a.Plain())

	_, err = DecodeObject(strings.NewReader(`[1, 2]`))
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("Tue Apr 02 2024 10:15:30 GMT+0200")
	require.NoError(t, err)
	assert.True(t, d.Equal(time.Date(2024, 4, 2, 8, 15, 30, 0, time.UTC)))

	d, err = parseDate("2024-04-02T10:15:30.000+02:00")
	require.NoError(t, err)
	assert.True(t, d.Equal(time.Date(2024, 4, 2, 8, 15, 30, 0, time.UTC)))

	_, err = parseDate("yesterday")
	assert.Error(t, err)
}
