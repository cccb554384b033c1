package content

import (
	"fmt"
	"path"
	"strings"
	"time"

	"golang.org/x/exp/maps"
)

type Kind int

const (
	Folder Kind = iota
	Page
	Asset
)

func (k Kind) String() string {
	switch k {
	case Page:
		return "page"
	case Asset:
		return "asset"
	default:
		return "folder"
	}
}

// ParseKind accepts the names produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "folder":
		return Folder, nil
	case "page":
		return Page, nil
	case "asset":
		return Asset, nil
	}
	return Folder, fmt.Errorf("content: unknown node kind '%s'", s)
}

// Node is one addressable item of the content tree.  Children are not held here; ask the
// Repository for them so that lookups always see the current tree.
type Node struct {
	Path         string
	Kind         Kind
	Properties   map[string]any
	LastModified time.Time

	// payload of an asset
	Data []byte
}

func (n *Node) Name() string {
	return path.Base(n.Path)
}

func (n *Node) ParentPath() string {
	if n.Path == "/" {
		return ""
	}
	return path.Dir(n.Path)
}

func (n *Node) IsPage() bool {
	return n != nil && n.Kind == Page
}

func (n *Node) Property(key string) (any, bool) {
	if n == nil || n.Properties == nil {
		return nil, false
	}
	v, ok := n.Properties[key]
	return v, ok
}

// StringProperty returns the property formatted as a string, or "" when absent.
func (n *Node) StringProperty(key string) string {
	v, ok := n.Property(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// BoolProperty treats true, "true", "yes", "1" and any non-zero number as set.
func (n *Node) BoolProperty(key string) bool {
	v, ok := n.Property(key)
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(b) {
		case "true", "yes", "1":
			return true
		}
	case int:
		return b != 0
	case int64:
		return b != 0
	case float64:
		return b != 0
	}
	return false
}

func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Properties != nil {
		c.Properties = maps.Clone(n.Properties)
	}
	if n.Data != nil {
		c.Data = append([]byte(nil), n.Data...)
	}
	return &c
}

// CleanPath normalises a repository path.  Paths must be absolute and may not climb above the
// root.
func CleanPath(p string) (string, error) {
	if !strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("content: path must be absolute: '%s'", p)
	}
	for _, segment := range strings.Split(p, "/") {
		if segment == ".." {
			return "", fmt.Errorf("content: path may not contain '..': '%s'", p)
		}
	}
	return path.Clean(p), nil
}
