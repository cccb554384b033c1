/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var whichCmd = &cobra.Command{
	Use:   "which",
	Short: "Print the path of the config file in use",
	Long: `
Print the config file content-replicate resolved from --config, CONTENT_REPLICATE_CONFIG or the
default location, and whether it exists.
`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Config path: %s\n", ConfigActual)
		if _, err := os.Stat(ConfigActual); errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(out, "(not found, running on flags and defaults)")
		}
	},
}

func init() {
	configCmd.AddCommand(whichCmd)
}
