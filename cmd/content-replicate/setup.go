package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/toothbrush/content-replicate/content"
	"github.com/toothbrush/content-replicate/internal/logging"
	"github.com/toothbrush/content-replicate/localfs"
	"github.com/toothbrush/content-replicate/replication"
	"github.com/toothbrush/content-replicate/sling"
	"github.com/toothbrush/content-replicate/state"
	"gopkg.in/dnaeon/go-vcr.v3/cassette"
	"gopkg.in/dnaeon/go-vcr.v3/recorder"
)

// loadRepository reads the content tree from --content or --sling-instance.
func loadRepository(ctx context.Context) (*content.Repository, error) {
	switch {
	case ContentFile != "" && SlingInstance != "":
		return nil, fmt.Errorf("cmd: use either --content or --sling-instance, not both")

	case ContentFile != "":
		p, err := homedir.Expand(ContentFile)
		if err != nil {
			return nil, fmt.Errorf("cmd: couldn't expand homedir: %w", err)
		}
		return content.LoadYAML(p)

	case SlingInstance != "":
		api, stop, err := slingAPI()
		if err != nil {
			return nil, err
		}
		defer stop()

		loader := &sling.Loader{API: api, Logger: logging.Component(Logger, "sling")}
		return loader.Load(ctx, SlingRoot, SlingDepth)

	default:
		return nil, fmt.Errorf("cmd: no content source.  Use --content or --sling-instance, or set one in your config file")
	}
}

func slingAPI() (*sling.API, func(), error) {
	token := ""
	if len(AuthTokenCmd) > 0 {
		out, err := exec.Command(AuthTokenCmd[0], AuthTokenCmd[1:]...).Output()
		if err != nil {
			return nil, nil, fmt.Errorf("cmd: couldn't execute auth-token-cmd '%v': %w", AuthTokenCmd, err)
		}
		token = strings.Split(string(out), "\n")[0]
	}

	api, err := sling.NewAPI(SlingInstance, AuthUsername, token)
	if err != nil {
		return nil, nil, fmt.Errorf("cmd: repository API creation failed: %w", err)
	}

	if !WithVCR {
		return api, func() {}, nil
	}

	// set up VCR recordings.
	opts := &recorder.Options{
		CassetteName:       "fixtures/sling",
		Mode:               recorder.ModeReplayWithNewEpisodes,
		SkipRequestLatency: true,
		RealTransport:      http.DefaultTransport,
	}
	r, err := recorder.NewWithOptions(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("cmd: couldn't set up go-vcr recording: %w", err)
	}

	// Add a hook which removes Authorization headers from all requests
	hook := func(i *cassette.Interaction) error {
		delete(i.Request.Headers, "Authorization")
		return nil
	}
	r.AddHook(hook, recorder.AfterCaptureHook)
	r.SetReplayableInteractions(true)

	api.Client = r.GetDefaultClient()
	return api, func() {
		if err := r.Stop(); err != nil {
			Logger.Warn().Err(err).Msg("couldn't save go-vcr cassette")
		}
	}, nil
}

// openStore returns the SQLite store for --state-db, or a memory store that lives as long as the
// process.
func openStore() (state.Store, io.Closer, error) {
	if StateDB == "" {
		Logger.Debug().Msg("no --state-db, publication state is not kept between runs")
		return state.NewMemoryStore(), nopCloser{}, nil
	}

	p, err := homedir.Expand(StateDB)
	if err != nil {
		return nil, nil, fmt.Errorf("cmd: couldn't expand homedir: %w", err)
	}
	s, err := state.OpenSQLite(p)
	if err != nil {
		return nil, nil, fmt.Errorf("cmd: couldn't open state database: %w", err)
	}
	return s, s, nil
}

// targets registers every target this tool knows how to build.
func targets() (*replication.Registry, error) {
	registry := replication.NewRegistry()

	if StorePath != "" {
		storePath, err := homedir.Expand(StorePath)
		if err != nil {
			return nil, fmt.Errorf("cmd: couldn't expand homedir: %w", err)
		}
		if err := os.MkdirAll(storePath, 0o755); err != nil {
			return nil, fmt.Errorf("cmd: couldn't create directory %s: %w", storePath, err)
		}
		t, err := localfs.New(storePath, nil, Logger)
		if err != nil {
			return nil, fmt.Errorf("cmd: couldn't set up local target: %w", err)
		}
		if err := registry.Register(t); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// engine is everything a replication command needs.
type engine struct {
	*replication.Engine
	repo  *content.Repository
	close func() error
}

func newEngine(ctx context.Context) (*engine, error) {
	repo, err := loadRepository(ctx)
	if err != nil {
		return nil, err
	}

	registry, err := targets()
	if err != nil {
		return nil, err
	}
	name := TargetName
	if name == "" && StorePath != "" {
		// --store alone names the local target unambiguously
		name = localfs.Name
	}
	target, err := registry.Get(name)
	if err != nil {
		return nil, fmt.Errorf("cmd: %w (did you set --store?)", err)
	}

	store, closer, err := openStore()
	if err != nil {
		return nil, err
	}

	e := replication.New(target, state.NewTracker(store, target.Name()), repo, Logger)
	e.Progress = os.Stderr
	return &engine{Engine: e, repo: repo, close: closer.Close}, nil
}

func (e *engine) node(p string) (*content.Node, error) {
	n, ok := e.repo.Get(p)
	if !ok {
		return nil, fmt.Errorf("cmd: no content at %s", p)
	}
	return n, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
