package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/oukeidos/pressask/internal/config"
	"github.com/oukeidos/pressask/internal/credential"
	"github.com/oukeidos/pressask/internal/logger"
	"github.com/rivo/uniseg"
	"golang.org/x/term"
)

var (
	isTerminal   = term.IsTerminal
	getKey       = keychainKey
	getEnvKey    = envKey
	getStatus    = keychainStatus
	promptForKey = promptForAPIKey
	saveKey      = saveKeychainKey
	deleteKey    = deleteKeychainKey
	settingsPath = ""
)

// openResolver opens the settings store and builds a resolver over it.
// The --settings flag, when set, replaces the per-user default path.
func openResolver() (*credential.Resolver, *config.Store, error) {
	path := settingsPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, nil, err
		}
	}
	store, err := config.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open settings: %w", err)
	}
	return credential.NewResolver(store), store, nil
}

// applyKeyOverride feeds the host-trusted key sources into the resolver's
// override channel: keychain first, then environment when allowed. The
// resolver's own persisted and session layers stay untouched.
func applyKeyOverride(resolver *credential.Resolver, allowEnv, envOnly bool) (string, error) {
	if envOnly {
		key, ok := getEnvKey()
		if !ok {
			return "", fmt.Errorf("env-only set but %s is not set", keyEnvVar)
		}
		resolver.SetOverrideKey(key)
		return "Environment Variable", nil
	}

	if key, source := getKey(false); key != "" {
		resolver.SetOverrideKey(key)
		return source, nil
	}
	if allowEnv {
		if key, ok := getEnvKey(); ok {
			resolver.SetOverrideKey(key)
			return "Environment Variable", nil
		}
	}
	return "", nil
}

// promptSessionKey asks for a key interactively and installs it as the
// transient session credential. Skipped on non-interactive shells.
func promptSessionKey(resolver *credential.Resolver) error {
	if !isTerminal(int(os.Stdin.Fd())) {
		return nil
	}
	key, err := promptForKey("Gemini API Key (press Enter to skip): ")
	if err != nil {
		return fmt.Errorf("error reading API key: %w", err)
	}
	if strings.TrimSpace(key) != "" {
		resolver.SetSessionKey(key)
	}
	return nil
}

// truncateGraphemes shortens s to at most max user-perceived characters,
// appending an ellipsis when something was cut. Splitting on graphemes keeps
// emoji and combining marks intact.
func truncateGraphemes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	gr := uniseg.NewGraphemes(s)
	var b strings.Builder
	count := 0
	for gr.Next() {
		if count == max {
			return b.String() + "…"
		}
		b.WriteString(gr.Str())
		count++
	}
	return s
}

func signalContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Warn("Cancellation requested")
		cancel()
	}()
	stop := func() {
		signal.Stop(sigCh)
		cancel()
	}
	return ctx, stop
}
