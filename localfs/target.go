// Package localfs is a replication target that writes static copies of content into a directory.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/rs/zerolog"
	"github.com/toothbrush/content-replicate/content"
	"github.com/toothbrush/content-replicate/render"
)

const (
	Name = "localFS"

	HTMLSuffix = ".html"
	DataSuffix = ".data.json"
)

// IOError is returned for any filesystem failure of the target.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("localfs: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Target holds no per-node state, so concurrent calls for different nodes are safe.
type Target struct {
	fs       billy.Filesystem
	renderer render.Renderer
	logger   zerolog.Logger
}

// New returns a target writing below storePath.  The directory must exist.
func New(storePath string, renderer render.Renderer, logger zerolog.Logger) (*Target, error) {
	stat, err := os.Stat(storePath)
	if err != nil {
		return nil, fmt.Errorf("localfs: cannot stat '%s': %w", storePath, err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("localfs: store path not a directory: '%s'", storePath)
	}
	return NewWithFilesystem(osfs.New(storePath), renderer, logger), nil
}

func NewWithFilesystem(fs billy.Filesystem, renderer render.Renderer, logger zerolog.Logger) *Target {
	if renderer == nil {
		renderer = render.NewDefault()
	}
	return &Target{
		fs:       fs,
		renderer: renderer,
		logger:   logger.With().Str("component", "localfs").Logger(),
	}
}

func (t *Target) Name() string {
	return Name
}

type artifact struct {
	filename string
	produce  func() ([]byte, error)
}

// artifacts lists the files owned by node.  Write creates exactly these and Remove deletes exactly
// these.
func (t *Target) artifacts(node *content.Node) ([]artifact, error) {
	p, err := content.CleanPath(node.Path)
	if err != nil {
		return nil, err
	}
	if p == "/" {
		return nil, nil
	}
	rel := strings.TrimPrefix(p, "/")

	switch node.Kind {
	case content.Page:
		return []artifact{
			{rel + HTMLSuffix, func() ([]byte, error) { return t.renderer.HTML(node) }},
			{rel + DataSuffix, func() ([]byte, error) { return t.renderer.Data(node) }},
		}, nil
	case content.Asset:
		return []artifact{
			{rel, func() ([]byte, error) { return node.Data, nil }},
		}, nil
	default:
		// folders only exist as directories of their children
		return nil, nil
	}
}

func (t *Target) Write(ctx context.Context, node *content.Node) error {
	files, err := t.artifacts(node)
	if err != nil {
		return &IOError{Op: "write", Path: node.Path, Err: err}
	}

	for _, a := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := a.produce()
		if err != nil {
			return fmt.Errorf("localfs: couldn't render %s: %w", a.filename, err)
		}
		if err := util.WriteFile(t.fs, a.filename, data, 0o644); err != nil {
			return &IOError{Op: "write", Path: a.filename, Err: err}
		}
		t.logger.Debug().Str("file", a.filename).Int("bytes", len(data)).Msg("wrote")
	}
	return nil
}

func (t *Target) Remove(ctx context.Context, node *content.Node) error {
	files, err := t.artifacts(node)
	if err != nil {
		return &IOError{Op: "remove", Path: node.Path, Err: err}
	}

	for _, a := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.fs.Remove(a.filename); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return &IOError{Op: "remove", Path: a.filename, Err: err}
		}
		t.logger.Debug().Str("file", a.filename).Msg("removed")
	}
	return nil
}

// Exists reports whether every artifact of node is present.  Folders always exist.
func (t *Target) Exists(node *content.Node) (bool, error) {
	files, err := t.artifacts(node)
	if err != nil {
		return false, err
	}
	for _, a := range files {
		if _, err := t.fs.Stat(a.filename); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return false, nil
			}
			return false, &IOError{Op: "stat", Path: a.filename, Err: err}
		}
	}
	return true, nil
}
