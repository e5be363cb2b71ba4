package hostharness

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFixturesMissingPathIsNotAnError(t *testing.T) {
	f, err := LoadFixtures(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Files) != 0 || len(f.Responses) != 0 {
		t.Fatalf("expected empty tables, got %+v", f)
	}
}

func TestLoadFixturesEmptyPathIsNotAnError(t *testing.T) {
	f, err := LoadFixtures("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f == nil {
		t.Fatal("expected a non-nil Fixtures")
	}
}

func TestReloadPicksUpEdits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixtures.yaml")
	if err := os.WriteFile(path, []byte("files:\n  a: \"one\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := LoadFixtures(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if v, _ := f.file("a"); v != "one" {
		t.Fatalf("expected %q, got %q", "one", v)
	}

	if err := os.WriteFile(path, []byte("files:\n  a: \"two\"\n"), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if err := f.Reload(path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if v, _ := f.file("a"); v != "two" {
		t.Fatalf("expected %q after reload, got %q", "two", v)
	}
}
