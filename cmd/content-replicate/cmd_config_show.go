/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Output current config",
	Long: `
Is something not working for you?  Have a look whether your config is as you expect.
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Only persistent flags are visible here, command-specific ones are not.
		fmt.Printf("Current config state:\n\n")

		fmt.Printf("  Config file: %s\n", ConfigActual)
		fmt.Printf("  Debug: %v\n", Debug)
		fmt.Println()
		fmt.Printf("  Content: %s\n", ContentFile)
		fmt.Printf("  SlingInstance: %s\n", SlingInstance)
		fmt.Printf("  SlingRoot: %s (depth %d)\n", SlingRoot, SlingDepth)
		fmt.Printf("  AuthUsername: %s\n", AuthUsername)
		fmt.Printf("  AuthTokenCmd: %v\n", AuthTokenCmd)
		fmt.Printf("  Store: %s\n", StorePath)
		fmt.Printf("  StateDB: %s\n", StateDB)
		fmt.Printf("  Target: %s\n", TargetName)
		fmt.Println()
		fmt.Printf("  Parsed YAML:\n")

		out, err := yaml.Marshal(ParsedConfig)
		if err != nil {
			return fmt.Errorf("cmd: couldn't render config: %w", err)
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}

func init() {
	configCmd.AddCommand(showCmd)
}
