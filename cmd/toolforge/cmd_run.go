package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"toolforge/internal/registry"
)

var runParams string

var runCmd = &cobra.Command{
	Use:   "run <tool-name>",
	Short: "Execute one tool with JSON parameters",
	Long: `Executes a tool by catalog name. Generated tools are addressed as
user.<name>, remote tools as mcp.<serverID>__<name>, native tools by bare
name. Parameters are passed as a JSON object via --params.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]any{}
		if runParams != "" {
			if err := json.Unmarshal([]byte(runParams), &params); err != nil {
				return fmt.Errorf("parsing --params: %w", err)
			}
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.manager.Sync(cmd.Context()); err != nil {
			return err
		}

		result := a.registry.ExecuteTool(cmd.Context(), registry.ToolRequest{
			ToolName:   args[0],
			Parameters: params,
		})

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
		if !result.Success {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runParams, "params", "p", "{}", "JSON object of tool parameters")
}
