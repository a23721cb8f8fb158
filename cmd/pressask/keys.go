package main

import (
	"fmt"

	"github.com/oukeidos/pressask/internal/apperrors"
	"github.com/oukeidos/pressask/internal/config"
	"github.com/oukeidos/pressask/internal/credential"
	"github.com/spf13/cobra"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the Gemini API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeysStatus(cmd)
		},
	}

	cmd.SetUsageTemplate(keysUsageTemplate)
	cmd.AddCommand(
		newKeysSetupCmd(),
		newKeysDeleteCmd(),
		newKeysStatusCmd(),
		newKeysSetCmd(),
		newKeysClearCmd(),
	)
	return cmd
}

func newKeysSetupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Save API key to OS keychain (prompt only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeysSetup(cmd)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newKeysDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete key from OS keychain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeysDelete(cmd)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newKeysStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show key status (default if no action given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeysStatus(cmd)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newKeysSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Validate and store the key in the settings file (prompt only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeysSet(cmd)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newKeysClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the key from the settings file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeysClear(cmd)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func runKeysSetup(cmd *cobra.Command) error {
	promptKey, err := promptForKey("Gemini API Key: ")
	if err != nil {
		return fmt.Errorf("error reading key: %w", err)
	}
	if promptKey == "" {
		return fmt.Errorf("API key is required for setup")
	}
	if err := saveKey(promptKey); err != nil {
		return fmt.Errorf("error saving key: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Saved Gemini API key to keychain.")
	return nil
}

func runKeysDelete(cmd *cobra.Command) error {
	if err := deleteKey(); err != nil {
		return fmt.Errorf("error deleting key: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Deleted Gemini API key from keychain.")
	return nil
}

func runKeysStatus(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	if getStatus() {
		fmt.Fprintln(out, "Keychain: key found")
	} else {
		fmt.Fprintln(out, "Keychain: empty")
	}

	if _, ok := getEnvKey(); ok {
		fmt.Fprintf(out, "Environment (%s): set (disabled by default, use --allow-env)\n", keyEnvVar)
	} else {
		fmt.Fprintf(out, "Environment (%s): not set\n", keyEnvVar)
	}

	resolver, _, err := openResolver()
	if err != nil {
		return err
	}
	resolved := resolver.ResolveAPIKey()
	if resolved.Source == credential.SourcePersisted {
		fmt.Fprintln(out, "Settings file: key stored")
	} else {
		fmt.Fprintln(out, "Settings file: no key")
	}
	return nil
}

func runKeysSet(cmd *cobra.Command) error {
	resolver, store, err := openResolver()
	if err != nil {
		return err
	}

	promptKey, err := promptForKey("Gemini API Key: ")
	if err != nil {
		return fmt.Errorf("error reading key: %w", err)
	}
	if promptKey == "" {
		return fmt.Errorf("API key is required")
	}
	if err := resolver.SetAPIKey(promptKey); err != nil {
		return fmt.Errorf("%s", apperrors.PublicMessage(err))
	}
	if !store.Bool(config.KeyFirstTimeSetupDone) {
		store.SetBool(config.KeyFirstTimeSetupDone, true)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Saved API key to settings.")
	return nil
}

func runKeysClear(cmd *cobra.Command) error {
	resolver, _, err := openResolver()
	if err != nil {
		return err
	}
	resolver.ClearAPIKey()
	fmt.Fprintln(cmd.OutOrStdout(), "Removed API key from settings.")
	return nil
}
