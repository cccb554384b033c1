package content

import (
	"fmt"
	"sync"
	"time"
)

// Repository is an in-memory snapshot of a content tree.  Every read hands out a copy of the
// stored node, so holders never observe later mutations through an old pointer.
type Repository struct {
	mu       sync.RWMutex
	nodes    map[string]*Node
	children map[string][]string
}

func NewRepository() *Repository {
	return &Repository{
		nodes:    make(map[string]*Node),
		children: make(map[string][]string),
	}
}

// Add stores a node.  Its parent, if already present, gains it as the last child; parents added
// later pick up children registered before them.
func (r *Repository) Add(node *Node) error {
	if node == nil {
		return fmt.Errorf("content: cannot add nil node")
	}
	p, err := CleanPath(node.Path)
	if err != nil {
		return err
	}

	stored := node.Clone()
	stored.Path = p

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.nodes[p]; ok {
		return fmt.Errorf("content: duplicate path %s", p)
	}
	r.nodes[p] = stored
	if parent := stored.ParentPath(); parent != "" {
		r.children[parent] = append(r.children[parent], p)
	}
	return nil
}

func (r *Repository) Get(path string) (*Node, bool) {
	p, err := CleanPath(path)
	if err != nil {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.nodes[p]
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// Children returns the direct children of node in insertion order.
func (r *Repository) Children(node *Node) []*Node {
	if node == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*Node{}
	for _, p := range r.children[node.Path] {
		if child, ok := r.nodes[p]; ok {
			result = append(result, child.Clone())
		}
	}
	return result
}

// Touch sets the last-modified timestamp of the node at path.
func (r *Repository) Touch(path string, t time.Time) error {
	return r.update(path, func(n *Node) {
		n.LastModified = t
	})
}

func (r *Repository) SetProperty(path, key string, value any) error {
	return r.update(path, func(n *Node) {
		if n.Properties == nil {
			n.Properties = make(map[string]any)
		}
		n.Properties[key] = value
	})
}

func (r *Repository) update(path string, fn func(n *Node)) error {
	p, err := CleanPath(path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[p]
	if !ok {
		return fmt.Errorf("content: no node at %s", p)
	}
	fn(n)
	return nil
}

// Walk visits root and its descendants depth-first, pre-order.  Returning SkipChildren from fn
// prunes the subtree below the current node; any other error stops the walk.
func (r *Repository) Walk(root *Node, fn func(n *Node) error) error {
	if root == nil {
		return nil
	}
	if err := fn(root); err != nil {
		if err == SkipChildren {
			return nil
		}
		return err
	}
	for _, child := range r.Children(root) {
		if err := r.Walk(child, fn); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}

// SkipChildren is returned from a Walk callback to avoid descending into a node.
var SkipChildren = fmt.Errorf("content: skip children")
