package state

import (
	"context"
	"time"

	"github.com/toothbrush/content-replicate/content"
)

// Tracker answers publication questions for one target.  Staleness is computed from the node
// handed in, so callers must pass a freshly fetched node rather than one captured before an edit.
type Tracker struct {
	store  Store
	target string
}

func NewTracker(store Store, target string) *Tracker {
	return &Tracker{store: store, target: target}
}

func (t *Tracker) State(ctx context.Context, node *content.Node) (ReplicationState, bool, error) {
	if node == nil {
		return ReplicationState{}, false, nil
	}
	return t.store.Get(ctx, t.target, node.Path)
}

func (t *Tracker) IsReplicated(ctx context.Context, node *content.Node) (bool, error) {
	st, ok, err := t.State(ctx, node)
	if err != nil || !ok {
		return false, err
	}
	return st.Published, nil
}

func (t *Tracker) IsStale(ctx context.Context, node *content.Node) (bool, error) {
	st, ok, err := t.State(ctx, node)
	if err != nil || !ok {
		return false, err
	}
	return st.Stale(node.LastModified), nil
}

// Replicated returns when node was last published, if it currently is.
func (t *Tracker) Replicated(ctx context.Context, node *content.Node) (time.Time, bool, error) {
	st, ok, err := t.State(ctx, node)
	if err != nil || !ok || !st.Published {
		return time.Time{}, false, err
	}
	return st.PublishedAt, true, nil
}

func (t *Tracker) List(ctx context.Context) ([]ReplicationState, error) {
	return t.store.List(ctx, t.target)
}

// MarkPublished is for the replication engine only.
func (t *Tracker) MarkPublished(ctx context.Context, node *content.Node, at time.Time) error {
	return t.store.Update(ctx, t.target, node.Path, func(ReplicationState, bool) (ReplicationState, bool) {
		return ReplicationState{
			Published:        true,
			PublishedAt:      at,
			SourceModifiedAt: node.LastModified,
		}, true
	})
}

// MarkUnpublished is for the replication engine only.  Nodes that were never published are left
// without a record.
func (t *Tracker) MarkUnpublished(ctx context.Context, node *content.Node) error {
	return t.store.Update(ctx, t.target, node.Path, func(current ReplicationState, exists bool) (ReplicationState, bool) {
		if !exists || !current.Published {
			return current, false
		}
		current.Published = false
		return current, true
	})
}
