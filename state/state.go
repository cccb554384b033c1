package state

import (
	"context"
	"time"
)

// ReplicationState is what we know about one node's copy on one target.  It is created on first
// publish and kept after unpublishing, with Published flipped to false.
type ReplicationState struct {
	Target           string
	Path             string
	Published        bool
	PublishedAt      time.Time
	SourceModifiedAt time.Time
}

// Stale reports whether the published copy is older than the source, given the source's current
// modification time.
func (s ReplicationState) Stale(current time.Time) bool {
	return s.Published && current.After(s.PublishedAt)
}

type UpdateFunc func(current ReplicationState, exists bool) (next ReplicationState, write bool)

type Store interface {
	// Get returns ok=false when the node was never published to target.
	Get(ctx context.Context, target, path string) (ReplicationState, bool, error)
	// Update applies fn to the current state of one node while holding that node's lock.  fn
	// returns the new state and whether it should be written.
	Update(ctx context.Context, target, path string, fn UpdateFunc) error
	List(ctx context.Context, target string) ([]ReplicationState, error)
}
