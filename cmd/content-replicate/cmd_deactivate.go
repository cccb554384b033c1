/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var deactivateCmd = &cobra.Command{
	Use:   "deactivate <path>...",
	Short: "Take published content down again",
	Long: `
Remove the static copy of each given path from the target and record it as unpublished.  Only the
node itself is removed; its children and siblings stay published.
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeactivate(cmd.Context(), args)
	},
}

func init() {
	rootCmd.AddCommand(deactivateCmd)
}

func runDeactivate(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	e, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	for _, p := range args {
		n, err := e.node(p)
		if err != nil {
			return err
		}
		if err := e.Deactivate(ctx, n); err != nil {
			return err
		}
		fmt.Printf("Deactivated %s on %s.\n", n.Path, e.Target.Name())
	}
	return nil
}
