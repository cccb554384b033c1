package replication

import (
	"fmt"
	"strings"
)

// NodeError is the failure of a single node within a run.
type NodeError struct {
	Op   string
	Path string
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// ReplicationError collects every node that failed during one operation.  Nodes that succeeded
// before or after a failure stay replicated.
type ReplicationError struct {
	Op       string
	Failures []*NodeError
}

func (e *ReplicationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "replication: %s failed for %d node(s)", e.Op, len(e.Failures))
	for _, f := range e.Failures {
		b.WriteString("; ")
		b.WriteString(f.Error())
	}
	return b.String()
}

func (e *ReplicationError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// Paths lists the failed node paths in the order they failed.
func (e *ReplicationError) Paths() []string {
	paths := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		paths[i] = f.Path
	}
	return paths
}

func failuresOrNil(op string, failures []*NodeError) error {
	if len(failures) == 0 {
		return nil
	}
	return &ReplicationError{Op: op, Failures: failures}
}
