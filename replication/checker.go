package replication

import (
	"context"
	"strings"

	"github.com/toothbrush/content-replicate/content"
	"github.com/toothbrush/content-replicate/state"
)

type Decision int

const (
	// Include replicates the node.
	Include Decision = iota
	// Exclude skips the node but still visits its children.
	Exclude
	// SkipSubtree skips the node and everything below it.
	SkipSubtree
)

func (d Decision) String() string {
	switch d {
	case Include:
		return "include"
	case Exclude:
		return "exclude"
	default:
		return "skip-subtree"
	}
}

// Checker decides, node by node, what a replication run includes.  Checkers hold no state.
type Checker interface {
	Check(node *content.Node) Decision
}

type CheckerFunc func(node *content.Node) Decision

func (f CheckerFunc) Check(node *content.Node) Decision {
	return f(node)
}

// AcceptAll includes every node unconditionally.
var AcceptAll Checker = CheckerFunc(func(*content.Node) Decision { return Include })

// MarkedOnly includes nodes whose property is set to a true value.
func MarkedOnly(property string) Checker {
	return CheckerFunc(func(node *content.Node) Decision {
		if node.BoolProperty(property) {
			return Include
		}
		return Exclude
	})
}

// ExcludePaths prunes every subtree rooted at one of the prefixes and defers to inner elsewhere.
func ExcludePaths(inner Checker, prefixes ...string) Checker {
	return CheckerFunc(func(node *content.Node) Decision {
		for _, prefix := range prefixes {
			prefix = strings.TrimSuffix(prefix, "/")
			if node.Path == prefix || strings.HasPrefix(node.Path, prefix+"/") {
				return SkipSubtree
			}
		}
		return inner.Check(node)
	})
}

// ModifiedOnly narrows inner to nodes that are unpublished or stale on the tracker's target.
// Lookup failures count as modified so nothing is silently left out.
func ModifiedOnly(ctx context.Context, tracker *state.Tracker, inner Checker) Checker {
	return CheckerFunc(func(node *content.Node) Decision {
		d := inner.Check(node)
		if d != Include {
			return d
		}
		st, ok, err := tracker.State(ctx, node)
		if err != nil || !ok || !st.Published || st.Stale(node.LastModified) {
			return Include
		}
		return Exclude
	})
}
