package main

import (
	"strings"
	"testing"
)

func TestSettingsSetURLAndShow(t *testing.T) {
	cleanup := withTempSettings(t)
	defer cleanup()

	out, err := executeCommand(t, "settings", "set-url", "https://proxy.example.com/v1beta/")
	if err != nil {
		t.Fatalf("set-url failed: %v", err)
	}
	if !strings.Contains(out, "https://proxy.example.com/v1beta") {
		t.Fatalf("unexpected output: %s", out)
	}

	out, err = executeCommand(t, "settings", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "https://proxy.example.com/v1beta") {
		t.Fatalf("show does not reflect persisted URL: %s", out)
	}
}

func TestSettingsSetURLRejectsGarbage(t *testing.T) {
	cleanup := withTempSettings(t)
	defer cleanup()

	_, err := executeCommand(t, "settings", "set-url", "not a url")
	if err == nil {
		t.Fatal("expected malformed URL to be rejected")
	}
}

func TestSettingsSetModel(t *testing.T) {
	cleanup := withTempSettings(t)
	defer cleanup()

	out, err := executeCommand(t, "settings", "set-model", "gemini-3-pro-preview")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Default model set to gemini-3-pro-preview") {
		t.Fatalf("unexpected output: %s", out)
	}

	out, err = executeCommand(t, "settings")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "gemini-3-pro-preview") {
		t.Fatalf("model not shown: %s", out)
	}
}

func TestSettingsSetModelWarnsUnknown(t *testing.T) {
	cleanup := withTempSettings(t)
	defer cleanup()

	out, err := executeCommand(t, "settings", "set-model", "gemini-weird-model")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "not in the built-in catalog") {
		t.Fatalf("expected catalog note, got: %s", out)
	}
}

func TestSettingsReset(t *testing.T) {
	cleanup := withTempSettings(t)
	defer cleanup()

	if _, err := executeCommand(t, "settings", "set-url", "https://proxy.example.com/v1"); err != nil {
		t.Fatal(err)
	}
	if _, err := executeCommand(t, "settings", "reset"); err != nil {
		t.Fatal(err)
	}

	out, err := executeCommand(t, "settings", "show")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "proxy.example.com") {
		t.Fatalf("custom URL survived reset: %s", out)
	}
	if !strings.Contains(out, "generativelanguage.googleapis.com") {
		t.Fatalf("default URL missing after reset: %s", out)
	}
}
