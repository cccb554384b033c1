// Package replication copies content nodes to a target and keeps their publication state.
package replication

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/toothbrush/content-replicate/content"
	"github.com/toothbrush/content-replicate/state"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/sync/errgroup"
)

// Tree resolves the children of a node.  *content.Repository satisfies it.
type Tree interface {
	Children(node *content.Node) []*content.Node
}

type Engine struct {
	Target  Target
	Tracker *state.Tracker
	Tree    Tree
	Logger  zerolog.Logger

	// Now stamps publications.  Defaults to time.Now.
	Now func() time.Time

	// Progress receives the ReplicateAll progress bar.  Nil discards it.
	Progress io.Writer
}

func New(target Target, tracker *state.Tracker, tree Tree, logger zerolog.Logger) *Engine {
	return &Engine{
		Target:  target,
		Tracker: tracker,
		Tree:    tree,
		Logger:  logger.With().Str("component", "replication").Str("target", target.Name()).Logger(),
		Now:     time.Now,
	}
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// Replicate copies root, and with recursive its whole subtree, to the target.  A node that fails is
// recorded and the walk carries on; the returned *ReplicationError lists every failure.
func (e *Engine) Replicate(ctx context.Context, root *content.Node, recursive bool, checker Checker) error {
	if root == nil {
		return nil
	}
	if checker == nil {
		checker = AcceptAll
	}

	var failures []*NodeError
	if err := e.walk(ctx, root, recursive, checker, &failures); err != nil {
		return err
	}
	return failuresOrNil("replicate", failures)
}

// walk only returns an error when ctx is done.  Node failures are appended to failures.
func (e *Engine) walk(ctx context.Context, node *content.Node, recursive bool, checker Checker, failures *[]*NodeError) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	decision := checker.Check(node)
	switch decision {
	case SkipSubtree:
		e.Logger.Debug().Str("path", node.Path).Msg("skipping subtree")
		return nil
	case Include:
		if ferr := e.replicateNode(ctx, node); ferr != nil {
			if errors.Is(ferr.Err, context.Canceled) || errors.Is(ferr.Err, context.DeadlineExceeded) {
				return ferr.Err
			}
			e.Logger.Warn().Err(ferr.Err).Str("path", node.Path).Str("op", ferr.Op).Msg("node failed")
			*failures = append(*failures, ferr)
		}
	default:
		e.Logger.Debug().Str("path", node.Path).Msg("excluded")
	}

	if !recursive || e.Tree == nil {
		return nil
	}
	for _, child := range e.Tree.Children(node) {
		if err := e.walk(ctx, child, recursive, checker, failures); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) replicateNode(ctx context.Context, node *content.Node) *NodeError {
	if err := e.Target.Write(ctx, node); err != nil {
		return &NodeError{Op: "write", Path: node.Path, Err: err}
	}
	if err := e.Tracker.MarkPublished(ctx, node, e.now()); err != nil {
		return &NodeError{Op: "track", Path: node.Path, Err: err}
	}
	e.Logger.Info().Str("path", node.Path).Msg("replicated")
	return nil
}

// Deactivate removes the artifacts of node, and only of node, from the target and marks it
// unpublished.  Deactivating a node that was never published is a no-op.
func (e *Engine) Deactivate(ctx context.Context, node *content.Node) error {
	if node == nil {
		return nil
	}
	if err := e.Target.Remove(ctx, node); err != nil {
		return &ReplicationError{Op: "deactivate", Failures: []*NodeError{{Op: "remove", Path: node.Path, Err: err}}}
	}
	if err := e.Tracker.MarkUnpublished(ctx, node); err != nil {
		return &ReplicationError{Op: "deactivate", Failures: []*NodeError{{Op: "track", Path: node.Path, Err: err}}}
	}
	e.Logger.Info().Str("path", node.Path).Msg("deactivated")
	return nil
}

// ReplicateAll replicates the subtrees under roots on a pool of workers.  Roots must not overlap.
func (e *Engine) ReplicateAll(ctx context.Context, roots []*content.Node, checker Checker, workers int) error {
	if checker == nil {
		checker = AcceptAll
	}
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobQueue := make(chan *content.Node, len(roots))
	for _, r := range roots {
		if r != nil {
			jobQueue <- r
		}
	}
	close(jobQueue)
	total := len(jobQueue)
	if total == 0 {
		return nil
	}

	var (
		failuresMu sync.Mutex
		failures   []*NodeError
	)
	done := make(chan string, workers*3)

	grp, gctx := errgroup.WithContext(ctx)

	remaining := int32(workers)
	for i := 0; i < workers; i++ {
		grp.Go(func() error {
			defer func() {
				// last one out closes the shop
				if atomic.AddInt32(&remaining, -1) == 0 {
					close(done)
				}
			}()
			for root := range jobQueue {
				var local []*NodeError
				if err := e.walk(gctx, root, true, checker, &local); err != nil {
					return fmt.Errorf("replication: %s: %w", root.Path, err)
				}
				if len(local) > 0 {
					failuresMu.Lock()
					failures = append(failures, local...)
					failuresMu.Unlock()
				}
				select {
				case done <- root.Path:
				case <-gctx.Done():
					return context.Cause(gctx)
				}
			}
			return nil
		})
	}

	out := e.Progress
	if out == nil {
		out = io.Discard
	}
	p := mpb.NewWithContext(ctx, mpb.WithWidth(64), mpb.WithOutput(out))
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(fmt.Sprintf("%s:", e.Target.Name()),
				decor.WC{C: decor.DindentRight | decor.DextraSpace}),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("(%d/%d) "),
			decor.NewPercentage("%d"),
		),
	)

	grp.Go(func() error {
		for path := range done {
			e.Logger.Debug().Str("root", path).Msg("subtree finished")
			bar.Increment()
		}
		return nil
	})

	err := grp.Wait()
	if err != nil {
		bar.Abort(false)
	}
	p.Wait()

	if err != nil {
		return err
	}
	return failuresOrNil("replicate", failures)
}
