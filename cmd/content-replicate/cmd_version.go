/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var versionUsage = strings.TrimSpace(`
Show version information
`)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: versionUsage,
	Long:  versionUsage,
	RunE:  versionRun,
	Args:  cobra.ExactArgs(0),
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

var (
	// Version is the module version when built with "go install url/tool@version", "(devel)"
	// otherwise.  It can also be set with -ldflags.
	Version = "unknown"
	// Revision is taken from the vcs.revision build setting.
	Revision = "unknown"
	// LastCommit is taken from the vcs.time build setting.
	LastCommit time.Time
	// DirtyBuild is taken from the vcs.modified build setting.
	DirtyBuild = true
)

func shortVersion() (string, error) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", fmt.Errorf("cmd_version: could not read build info")
	}
	if Version == "unknown" {
		Version = info.Main.Version
	}
	for _, kv := range info.Settings {
		switch kv.Key {
		case "vcs.revision":
			Revision = kv.Value
		case "vcs.time":
			LastCommit, _ = time.Parse(time.RFC3339, kv.Value)
		case "vcs.modified":
			DirtyBuild = kv.Value == "true"
		}
	}

	parts := make([]string, 0, 4)
	if Version != "unknown" && Version != "(devel)" && Version != "" {
		parts = append(parts, Version)
	}
	if Revision != "unknown" && Revision != "" {
		parts = append(parts, "rev", Revision)
		if DirtyBuild {
			parts = append(parts, "dirty")
		}
	}
	if len(parts) == 0 {
		return "devel", nil
	}
	return strings.Join(parts, "-"), nil
}

func versionRun(cmd *cobra.Command, args []string) error {
	v, err := shortVersion()
	if err != nil {
		return err
	}
	fmt.Printf("content-replicate version %s\n", v)
	if !LastCommit.IsZero() {
		fmt.Printf("last commit %s\n", LastCommit.Format(time.RFC3339))
	}
	return nil
}
