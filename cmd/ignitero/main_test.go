package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeSearchFixture writes a config with one command alias and an empty
// cache path, and points the package flag vars at it for the test.
func writeSearchFixture(t *testing.T) {
	t.Helper()
	dir := t.TempDir()

	cfg := `cache_path = "` + filepath.Join(dir, "cache.db") + `"

[[commands]]
alias = "deploy"
command = "make deploy"
`
	cfgPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	prevConfig, prevCache, prevType, prevJSON := configFile, cachePath, searchType, searchJSON
	t.Cleanup(func() {
		configFile, cachePath, searchType, searchJSON = prevConfig, prevCache, prevType, prevJSON
	})
	configFile = cfgPath
	cachePath = ""
	searchJSON = true
}

func TestSearchLocallyCommandsWithEmptyCache(t *testing.T) {
	writeSearchFixture(t)
	searchType = "commands"

	// Command aliases live in the config, so an empty cache must not
	// block them.
	if err := searchLocally("deploy"); err != nil {
		t.Fatalf("searchLocally() error = %v", err)
	}
}

func TestSearchLocallyAppsRequiresCache(t *testing.T) {
	writeSearchFixture(t)
	searchType = "apps"

	err := searchLocally("safari")
	if err == nil {
		t.Fatal("expected an error for an empty cache")
	}
	if !strings.Contains(err.Error(), "cache is empty") {
		t.Fatalf("unexpected error: %v", err)
	}
}
