package main

import (
	"fmt"

	"github.com/oukeidos/pressask/internal/apperrors"
	"github.com/oukeidos/pressask/internal/config"
	"github.com/oukeidos/pressask/internal/credential"
	"github.com/oukeidos/pressask/internal/metadata"
	"github.com/spf13/cobra"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change persisted settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettingsShow(cmd)
		},
	}

	cmd.SetUsageTemplate(keysUsageTemplate)
	cmd.AddCommand(
		newSettingsShowCmd(),
		newSettingsSetURLCmd(),
		newSettingsSetModelCmd(),
		newSettingsResetCmd(),
	)
	return cmd
}

func newSettingsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print current settings (default if no action given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettingsShow(cmd)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newSettingsSetURLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-url <base-url>",
		Short: "Persist a custom API base URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettingsSetURL(cmd, args[0])
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newSettingsSetModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-model <model-id>",
		Short: "Persist the default model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettingsSetModel(cmd, args[0])
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newSettingsResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear all settings including the stored API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettingsReset(cmd)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func runSettingsShow(cmd *cobra.Command) error {
	resolver, store, err := openResolver()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	keyState := "not set"
	if resolver.ResolveAPIKey().Source == credential.SourcePersisted {
		keyState = "set (stored encoded)"
	}
	fmt.Fprintf(out, "API key:       %s\n", keyState)
	fmt.Fprintf(out, "Base URL:      %s\n", resolver.ResolveBaseURL())
	fmt.Fprintf(out, "Default model: %s\n", store.StringWithFallback(config.KeyDefaultModel, metadata.DefaultModel))
	fmt.Fprintf(out, "Setup done:    %v\n", store.BoolWithFallback(config.KeyFirstTimeSetupDone, false))
	return nil
}

func runSettingsSetURL(cmd *cobra.Command, raw string) error {
	resolver, _, err := openResolver()
	if err != nil {
		return err
	}
	if err := resolver.SetBaseURL(raw); err != nil {
		return fmt.Errorf("%s", apperrors.PublicMessage(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Base URL set to %s\n", resolver.ResolveBaseURL())
	return nil
}

func runSettingsSetModel(cmd *cobra.Command, modelID string) error {
	_, store, err := openResolver()
	if err != nil {
		return err
	}
	if _, known := metadata.Lookup(modelID); !known {
		fmt.Fprintf(cmd.OutOrStdout(), "Note: %q is not in the built-in catalog; using it as-is.\n", modelID)
	}
	store.SetString(config.KeyDefaultModel, modelID)
	fmt.Fprintf(cmd.OutOrStdout(), "Default model set to %s\n", modelID)
	return nil
}

func runSettingsReset(cmd *cobra.Command) error {
	resolver, _, err := openResolver()
	if err != nil {
		return err
	}
	resolver.Reset()
	fmt.Fprintln(cmd.OutOrStdout(), "Settings reset to defaults.")
	return nil
}
