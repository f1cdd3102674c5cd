package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/harunnryd/pgpt/internal/model"
	"github.com/harunnryd/pgpt/internal/model/contract"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// toolFile is the on-disk format for tool definitions.
type toolFile struct {
	Tools []contract.ToolDef `yaml:"tools"`
}

var toolsCmd = &cobra.Command{
	Use:   "tools <prompt...>",
	Short: "Send a prompt with tool definitions and show requested tool calls",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		tools, err := loadTools(path)
		if err != nil {
			return err
		}

		return executeWithRegistry(cmd, func(ctx context.Context, registry *model.Registry) error {
			opts, err := chatOptions(cmd)
			if err != nil {
				return err
			}

			name, _ := cmd.Flags().GetString("model")
			provider, err := registry.Get(name)
			if err != nil {
				return err
			}

			var turns []contract.Turn
			if system, _ := cmd.Flags().GetString("system"); system != "" {
				turns = append(turns, contract.SystemTurn{Text: system})
			}
			turns = append(turns, contract.UserTurn{Text: strings.Join(args, " ")})

			resp, err := provider.ChatWithTools(ctx, turns, tools, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if resp.Text != "" {
				fmt.Fprintln(out, resp.Text)
			}
			if provider.Dialect().FlattensTools() {
				fmt.Fprintf(out, "(%s does not forward tool definitions)\n", provider.Name())
			}
			fmt.Fprintln(out, newTableFormatter().formatToolCalls(resp.ToolCalls))
			return nil
		})
	},
}

func loadTools(path string) ([]contract.ToolDef, error) {
	if path == "" {
		return nil, fmt.Errorf("--file is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tool file %s: %w", path, err)
	}

	var f toolFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse tool file %s: %w", path, err)
	}

	for i, tool := range f.Tools {
		if tool.Name == "" {
			return nil, fmt.Errorf("tool %d in %s has no name", i, path)
		}
		if tool.Parameters == nil {
			f.Tools[i].Parameters = map[string]any{"type": "object", "properties": map[string]any{}}
		}
	}
	return f.Tools, nil
}

func init() {
	addChatFlags(toolsCmd)
	toolsCmd.Flags().StringP("file", "f", "", "YAML file with a top-level tools list")
	rootCmd.AddCommand(toolsCmd)
}
