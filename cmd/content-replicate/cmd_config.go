/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var configUsage = strings.TrimSpace(`
Inspect the YAML config content-replicate reads its defaults from: the content source, the store
and state database, the sitemap section and logging.  Flags given on the command line always win
over the file.
`)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the content-replicate config file",
	Long:  configUsage,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
