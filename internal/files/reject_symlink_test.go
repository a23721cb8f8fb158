package files

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestRejectSymlinkPath(t *testing.T) {
	t.Run("EmptyPath", func(t *testing.T) {
		if err := RejectSymlinkPath("  "); err == nil {
			t.Fatal("expected error for empty path")
		}
	})

	t.Run("MissingPathAllowed", func(t *testing.T) {
		dir := t.TempDir()
		if err := RejectSymlinkPath(filepath.Join(dir, "not-yet", "settings.json")); err != nil {
			t.Fatalf("missing path components should be allowed: %v", err)
		}
	})

	t.Run("SymlinkRejected", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("symlink creation requires privileges on windows")
		}
		dir := t.TempDir()
		target := filepath.Join(dir, "real")
		if err := os.Mkdir(target, 0700); err != nil {
			t.Fatal(err)
		}
		link := filepath.Join(dir, "link")
		if err := os.Symlink(target, link); err != nil {
			t.Fatal(err)
		}
		if err := RejectSymlinkPath(filepath.Join(link, "settings.json")); err == nil {
			t.Fatal("expected symlink parent to be rejected")
		}
	})
}

func TestAtomicWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	if err := AtomicWrite(path, []byte(`{"a":1}`), 0600); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"a":1}` {
		t.Fatalf("unexpected content: %s", data)
	}

	// Overwrite in place.
	if err := AtomicWrite(path, []byte(`{"a":2}`), 0600); err != nil {
		t.Fatalf("AtomicWrite overwrite failed: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != `{"a":2}` {
		t.Fatalf("unexpected content after overwrite: %s", data)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the settings file, found %d entries", len(entries))
	}
}
