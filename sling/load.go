package sling

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/rs/zerolog"
	"github.com/toothbrush/content-replicate/content"
)

// Loader converts a JSON tree from the repository into a content.Repository.
type Loader struct {
	API    *API
	Logger zerolog.Logger
}

// LoadRepository fetches root down to depth levels and returns the resulting snapshot.
func LoadRepository(ctx context.Context, api *API, root string, depth int) (*content.Repository, error) {
	l := &Loader{API: api, Logger: zerolog.Nop()}
	return l.Load(ctx, root, depth)
}

func (l *Loader) Load(ctx context.Context, root string, depth int) (*content.Repository, error) {
	root, err := content.CleanPath(root)
	if err != nil {
		return nil, fmt.Errorf("sling: %w", err)
	}

	tree, err := l.API.GetTree(ctx, TreeQuery{Path: root, Depth: depth, Charset: "utf-8"})
	if err != nil {
		return nil, fmt.Errorf("sling: couldn't fetch tree at %s: %w", root, err)
	}

	repo := content.NewRepository()
	if err := l.add(ctx, repo, root, tree, true); err != nil {
		return nil, err
	}
	l.Logger.Info().Str("root", root).Int("nodes", repo.Len()).Msg("loaded repository")
	return repo, nil
}

func (l *Loader) add(ctx context.Context, repo *content.Repository, nodePath string, obj *Object, isRoot bool) error {
	primaryType := obj.Str(PrimaryType)
	kind, ok := kindOf(primaryType)
	if !ok {
		if !isRoot {
			l.Logger.Debug().Str("path", nodePath).Str("type", primaryType).Msg("skipping node of unknown type")
			return nil
		}
		kind = content.Folder
	}

	node := &content.Node{Path: nodePath, Kind: kind}
	var children []string

	switch kind {
	case content.Page:
		if jc, ok := obj.Child(JCRContent); ok {
			node.Properties = jc.Plain()
			node.LastModified = l.modified(nodePath, jc, obj)
			if _, ok := node.Properties["title"]; !ok {
				if title := jc.Str(Title); title != "" {
					node.Properties["title"] = title
				}
			}
		} else {
			node.Properties = scalars(obj)
			node.LastModified = l.modified(nodePath, obj)
		}
		children = childKeys(obj)

	case content.Asset:
		node.Properties = scalars(obj)
		if jc, ok := obj.Child(JCRContent); ok {
			node.LastModified = l.modified(nodePath, jc, obj)
		} else {
			node.LastModified = l.modified(nodePath, obj)
		}
		data, err := l.API.GetBinary(ctx, nodePath)
		if err != nil {
			return fmt.Errorf("sling: couldn't fetch asset %s: %w", nodePath, err)
		}
		node.Data = data

	default:
		node.Properties = scalars(obj)
		node.LastModified = l.modified(nodePath, obj)
		children = childKeys(obj)
	}

	if err := repo.Add(node); err != nil {
		return fmt.Errorf("sling: %w", err)
	}

	for _, name := range children {
		child, _ := obj.Child(name)
		if err := l.add(ctx, repo, path.Join(nodePath, name), child, false); err != nil {
			return err
		}
	}
	return nil
}

// modified returns the first parseable jcr:lastModified, then jcr:created, of the given objects.
func (l *Loader) modified(nodePath string, objs ...*Object) time.Time {
	for _, key := range []string{LastModified, Created} {
		for _, o := range objs {
			s := o.Str(key)
			if s == "" {
				continue
			}
			t, err := parseDate(s)
			if err != nil {
				l.Logger.Warn().Err(err).Str("path", nodePath).Msg("ignoring date")
				continue
			}
			return t
		}
	}
	return time.Time{}
}

func childKeys(obj *Object) []string {
	var keys []string
	for _, k := range obj.Keys {
		if k == JCRContent {
			continue
		}
		if _, ok := obj.Values[k].(*Object); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

func scalars(obj *Object) map[string]any {
	m := make(map[string]any)
	for _, k := range obj.Keys {
		if _, ok := obj.Values[k].(*Object); ok {
			continue
		}
		m[k] = plain(obj.Values[k])
	}
	return m
}
