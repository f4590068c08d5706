package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate <tool-name>",
	Short: "Force regeneration of one tool from its specification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.manager.Regenerate(cmd.Context(), name); err != nil {
			return err
		}
		def, ok := a.manager.Definition(name)
		if !ok {
			return fmt.Errorf("no definition for %s after generation", name)
		}
		fmt.Printf("generated %s -> %s\n", name, def.ArtifactPath)
		return nil
	},
}
