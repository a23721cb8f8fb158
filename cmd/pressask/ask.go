package main

import (
	"fmt"
	"io"
	"os"

	"github.com/oukeidos/pressask/internal/analyze"
	"github.com/oukeidos/pressask/internal/apperrors"
	"github.com/oukeidos/pressask/internal/cleanup"
	"github.com/oukeidos/pressask/internal/config"
	"github.com/oukeidos/pressask/internal/files"
	"github.com/oukeidos/pressask/internal/logger"
	"github.com/oukeidos/pressask/internal/metadata"
	"github.com/oukeidos/pressask/internal/transport"
	"github.com/spf13/cobra"
)

type askOptions struct {
	modelName   string
	baseURL     string
	logFilePath string
	allowEnv    bool
	envOnly     bool
	noPrompt    bool
	debug       bool
}

func newAskCmd() *cobra.Command {
	opts := askOptions{}
	cmd := &cobra.Command{
		Use:   "ask <image-url> [question]",
		Short: "Ask a question about an image",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				_ = cmd.Usage()
				return fmt.Errorf("an image URL is required")
			}
			return runAsk(cmd, args, &opts)
		},
		SilenceUsage: true,
	}

	cmd.SetUsageTemplate(subcommandUsageTemplate)
	addAskFlags(cmd, &opts)
	return cmd
}

func addAskFlags(cmd *cobra.Command, opts *askOptions) {
	cmd.Flags().StringVar(&opts.modelName, "model", "", "Gemini model name (default from settings)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "API base URL override for this invocation")
	cmd.Flags().StringVar(&opts.logFilePath, "log-file", "", "Path to save machine-readable JSONL logs")
	cmd.Flags().BoolVar(&opts.allowEnv, "allow-env", false, "Allow reading API key from environment variables")
	cmd.Flags().BoolVar(&opts.envOnly, "env-only", false, "Use only environment variables for API keys")
	cmd.Flags().BoolVar(&opts.noPrompt, "no-prompt", false, "Never prompt for a key on the terminal")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
}

// defaultQuestion mirrors the press-and-hold flow, where asking without
// typing anything means "describe what I'm pressing on".
const defaultQuestion = "What is in this image? Describe it briefly."

func runAsk(cmd *cobra.Command, args []string, opts *askOptions) error {
	imageURL := args[0]
	question := defaultQuestion
	if len(args) >= 2 {
		question = args[1]
	}
	if len(args) > 2 {
		fmt.Fprintf(os.Stderr, "Warning: expected at most 2 arguments but got %d. Did you forget quotes around the question?\n", len(args))
	}

	logLevel := logger.LevelInfo
	if opts.debug {
		logLevel = logger.LevelDebug
	}
	var logFileW io.Writer
	if opts.logFilePath != "" {
		if err := files.RejectSymlinkPath(opts.logFilePath); err != nil {
			return err
		}
		f, err := os.OpenFile(opts.logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		cleanup.Register(f.Close)
		logFileW = f
	}
	logger.Init(logLevel, logFileW)

	resolver, store, err := openResolver()
	if err != nil {
		return err
	}

	source, err := applyKeyOverride(resolver, opts.allowEnv, opts.envOnly)
	if err != nil {
		return err
	}
	if source != "" {
		logger.Info("Using API Key", "source", source)
	}
	if opts.baseURL != "" {
		resolver.SetOverrideBaseURL(opts.baseURL)
	}

	if !resolver.ResolveAPIKey().Configured() && !opts.noPrompt && !opts.envOnly {
		if err := promptSessionKey(resolver); err != nil {
			return err
		}
	}

	model := opts.modelName
	if model == "" {
		model = store.StringWithFallback(config.KeyDefaultModel, metadata.DefaultModel)
	}

	ctx, stop := signalContext()
	defer stop()

	session := analyze.NewSession(resolver, transport.NewHTTPTransport(nil))
	ticket := session.Submit(imageURL, question, model)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Asking %s about %s\n", model, truncateGraphemes(imageURL, 80))

	select {
	case outcome := <-ticket.Outcome:
		return renderOutcome(cmd, store, outcome)
	case <-ctx.Done():
		session.Cancel()
		outcome := <-ticket.Outcome
		return renderOutcome(cmd, store, outcome)
	}
}

func renderOutcome(cmd *cobra.Command, store *config.Store, outcome analyze.Outcome) error {
	out := cmd.OutOrStdout()
	if outcome.Err != nil {
		if apperrors.IsCanceled(outcome.Err) {
			fmt.Fprintln(out, "Canceled.")
			return nil
		}
		return fmt.Errorf("%s", apperrors.PublicMessage(outcome.Err))
	}

	fmt.Fprintln(out, outcome.Text)

	// First successful answer flips the onboarding marker.
	if !store.BoolWithFallback(config.KeyFirstTimeSetupDone, false) {
		store.SetBool(config.KeyFirstTimeSetupDone, true)
	}
	return nil
}
