/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/toothbrush/content-replicate/content"
)

var statusCmd = &cobra.Command{
	Use:   "status <path>",
	Short: "Show what is published below a path",
	Long: `
List every node below the given path with its publication state on the target.  A node is stale
when its content changed after it was last published.
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(ctx context.Context, out io.Writer, root string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	e, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	n, err := e.node(root)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tKIND\tSTATE\tPUBLISHED AT")
	err = e.repo.Walk(n, func(node *content.Node) error {
		at, published, err := e.Tracker.Replicated(ctx, node)
		if err != nil {
			return err
		}
		status, when := "unpublished", "-"
		if published {
			status = "published"
			when = at.Local().Format(time.DateTime)
			stale, err := e.Tracker.IsStale(ctx, node)
			if err != nil {
				return err
			}
			if stale {
				status = "stale"
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", node.Path, node.Kind, status, when)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cmd: couldn't read state: %w", err)
	}

	// published copies whose source is gone from the repository
	states, err := e.Tracker.List(ctx)
	if err != nil {
		return fmt.Errorf("cmd: couldn't list state: %w", err)
	}
	for _, st := range states {
		if !st.Published || (st.Path != n.Path && !strings.HasPrefix(st.Path, strings.TrimSuffix(n.Path, "/")+"/")) {
			continue
		}
		if _, ok := e.repo.Get(st.Path); ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", st.Path, "-", "orphaned", st.PublishedAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}
