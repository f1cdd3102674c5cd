package main

import (
	"context"
	"os"
	"strings"

	"github.com/harunnryd/pgpt/internal/model"
	"github.com/harunnryd/pgpt/internal/model/contract"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat [prompt...]",
	Short: "Send a prompt, or start an interactive session without one",
	RunE: func(cmd *cobra.Command, args []string) error {
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

			system, _ := cmd.Flags().GetString("system")
			stream, _ := cmd.Flags().GetBool("stream")
			s := newSession(registry, provider, system, opts, stream)

			if len(args) == 0 {
				return NewREPL(s, os.Stdin, cmd.OutOrStdout()).Start(ctx)
			}
			return s.send(ctx, strings.Join(args, " "), cmd.OutOrStdout())
		})
	},
}

// chatOptions reads the per-call overrides shared by chat and tools.
func chatOptions(cmd *cobra.Command) (contract.Options, error) {
	var opts contract.Options

	if cmd.Flags().Changed("temperature") {
		temperature, err := cmd.Flags().GetFloat64("temperature")
		if err != nil {
			return opts, err
		}
		opts.Temperature = &temperature
	}

	maxTokens, err := cmd.Flags().GetInt("max-tokens")
	if err != nil {
		return opts, err
	}
	opts.MaxTokens = maxTokens

	return opts, nil
}

func addChatFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("model", "m", "", "registry entry to use (default is models.default)")
	cmd.Flags().StringP("system", "s", "", "system prompt")
	cmd.Flags().Float64("temperature", 0, "sampling temperature override")
	cmd.Flags().Int("max-tokens", 0, "maximum tokens in the reply")
}

func init() {
	addChatFlags(chatCmd)
	chatCmd.Flags().Bool("stream", false, "print the reply as it arrives")
	rootCmd.AddCommand(chatCmd)
}
