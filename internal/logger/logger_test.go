package logger

import (
	"log/slog"
	"testing"
)

func TestRedactAttrByKey(t *testing.T) {
	cases := []struct {
		key    string
		value  string
		redact bool
	}{
		{"api_key", "AIzaSyA1234567890abcdefghijklmnopqrstuvw", true},
		{"question", "what is in this picture", true},
		{"answer", "a cat on a windowsill", true},
		{"base_url_key", "anything", true},
		{"model", "gemini-3-flash-preview", false},
		{"source", "persisted", false},
	}

	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			attr := RedactAttr(nil, slog.String(tc.key, tc.value))
			got := attr.Value.String() == "[REDACTED]"
			if got != tc.redact {
				t.Fatalf("key %q: redacted=%v, want %v", tc.key, got, tc.redact)
			}
		})
	}
}

func TestRedactAttrByValuePattern(t *testing.T) {
	cases := []struct {
		name   string
		value  string
		redact bool
	}{
		{"google_key", "got AIzaSyA1234567890abcdef in output", true},
		{"openai_key", "sk-abcdefghijklmnopqrstuvwx", true},
		{"url_key_param", "https://example.com/v1/models/m:generateContent?key=AIza123-abc", true},
		{"plain_url", "https://example.com/v1", false},
		{"plain_text", "request finished", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			attr := RedactAttr(nil, slog.String("detail", tc.value))
			got := attr.Value.String() == "[REDACTED]"
			if got != tc.redact {
				t.Fatalf("value %q: redacted=%v, want %v", tc.value, got, tc.redact)
			}
		})
	}
}
