package main

import (
	"fmt"

	"github.com/oukeidos/pressask/internal/metadata"
	"github.com/spf13/cobra"
)

type modelsOptions struct {
	live     bool
	allowEnv bool
}

func newModelsCmd() *cobra.Command {
	opts := modelsOptions{}
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List available Gemini models",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(cmd, &opts)
		},
		SilenceUsage: true,
	}

	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.Flags().BoolVar(&opts.live, "live", false, "Query the API for models the key can access")
	cmd.Flags().BoolVar(&opts.allowEnv, "allow-env", false, "Allow reading API key from environment variables")
	return cmd
}

func runModels(cmd *cobra.Command, opts *modelsOptions) error {
	out := cmd.OutOrStdout()

	if !opts.live {
		for _, m := range metadata.GeminiModels {
			marker := " "
			if m.ID == metadata.DefaultModel {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %-28s %s\n", marker, m.ID, m.Label)
		}
		fmt.Fprintln(out, "\nUse --live to query the API for the full list.")
		return nil
	}

	resolver, _, err := openResolver()
	if err != nil {
		return err
	}
	if _, err := applyKeyOverride(resolver, opts.allowEnv, false); err != nil {
		return err
	}
	resolved := resolver.ResolveAPIKey()
	if !resolved.Configured() {
		return fmt.Errorf("no API key available; configure one with 'pressask keys'")
	}

	ctx, stop := signalContext()
	defer stop()

	models, err := metadata.ListLiveModels(ctx, resolved.APIKey)
	if err != nil {
		return err
	}
	for _, m := range models {
		fmt.Fprintf(out, "%-36s %s\n", m.Name, m.DisplayName)
	}
	return nil
}
