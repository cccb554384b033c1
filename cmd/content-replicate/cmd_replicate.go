/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/toothbrush/content-replicate/content"
	"github.com/toothbrush/content-replicate/replication"
)

var replicateCmd = &cobra.Command{
	Use:   "replicate <path>...",
	Short: "Publish content to the target",
	Long: `
Write the static copy of each given path to the target and record it as published.  With
--recursive the whole subtree below each path is published; several disjoint subtrees are handled
in parallel by --workers.
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReplicate(cmd.Context(), args)
	},
}

var (
	Recursive    bool
	OnlyModified bool
	Workers      int
	Exclude      []string
	Marked       string
)

func init() {
	rootCmd.AddCommand(replicateCmd)

	replicateCmd.Flags().BoolVarP(&Recursive, "recursive", "r", false, "publish the subtree below each path as well")
	replicateCmd.Flags().BoolVar(&OnlyModified, "only-modified", false, "skip nodes whose published copy is current")
	replicateCmd.Flags().IntVar(&Workers, "workers", 4, "subtrees to publish in parallel")
	replicateCmd.Flags().StringSliceVar(&Exclude, "exclude", []string{}, "paths whose subtrees are never published")
	replicateCmd.Flags().StringVar(&Marked, "marked", "", "only publish nodes with this property set, e.g. replicate")
}

func runReplicate(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	e, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	var checker replication.Checker = replication.AcceptAll
	if Marked != "" {
		checker = replication.MarkedOnly(Marked)
	}
	if len(Exclude) > 0 {
		checker = replication.ExcludePaths(checker, Exclude...)
	}
	if OnlyModified {
		checker = replication.ModifiedOnly(ctx, e.Tracker, checker)
	}

	roots := make([]*content.Node, 0, len(args))
	for _, p := range args {
		n, err := e.node(p)
		if err != nil {
			return err
		}
		roots = append(roots, n)
	}

	if Recursive && len(roots) > 1 {
		if err := disjoint(roots); err != nil {
			return err
		}
		err = e.ReplicateAll(ctx, roots, checker, Workers)
	} else {
		var failures []*replication.NodeError
		for _, root := range roots {
			err := e.Replicate(ctx, root, Recursive, checker)
			var rerr *replication.ReplicationError
			switch {
			case errors.As(err, &rerr):
				failures = append(failures, rerr.Failures...)
			case err != nil:
				return err
			}
		}
		if len(failures) > 0 {
			err = &replication.ReplicationError{Op: "replicate", Failures: failures}
		}
	}

	var rerr *replication.ReplicationError
	if errors.As(err, &rerr) {
		for _, f := range rerr.Failures {
			fmt.Printf("FAILED %s: %v\n", f.Path, f.Err)
		}
	}
	if err != nil {
		return err
	}

	fmt.Printf("Published %s to %s.\n", strings.Join(args, ", "), e.Target.Name())
	return nil
}

// disjoint rejects roots where one contains another, they would be published twice.
func disjoint(roots []*content.Node) error {
	for i, a := range roots {
		for j, b := range roots {
			if i == j {
				continue
			}
			if a.Path == b.Path || a.Path == "/" || strings.HasPrefix(b.Path, a.Path+"/") {
				return fmt.Errorf("cmd: %s overlaps %s, give disjoint subtrees", a.Path, b.Path)
			}
		}
	}
	return nil
}
