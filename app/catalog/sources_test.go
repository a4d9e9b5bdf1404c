package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSourcesFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sources.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write sources file: %v", err)
	}
	return path
}

func TestLoadSourcesMissingFileUsesDefaults(t *testing.T) {
	sources, err := LoadSources(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	if err != nil {
		t.Fatalf("LoadSources failed: %v", err)
	}
	if len(sources) != len(defaultSources) {
		t.Errorf("Expected %d default sources, got %d", len(defaultSources), len(sources))
	}
}

func TestLoadSourcesValidFile(t *testing.T) {
	path := writeSourcesFile(t, `sources:
  - kind: playlist
    ref: pl.abc123
    name: Test Playlist
  - kind: search
    ref: dolby atmos
    name: Atmos search
`)

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("LoadSources failed: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("Expected 2 sources, got %d", len(sources))
	}
	if sources[0].Kind != SourcePlaylist || sources[0].Ref != "pl.abc123" {
		t.Errorf("Unexpected first source: %+v", sources[0])
	}
	if sources[1].Kind != SourceSearch {
		t.Errorf("Unexpected second source: %+v", sources[1])
	}
}

func TestLoadSourcesInvalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"not yaml", `{{{`},
		{"empty list", "sources: []\n"},
		{"unknown kind", "sources:\n  - kind: album\n    ref: x\n    name: X\n"},
		{"missing ref", "sources:\n  - kind: playlist\n    name: X\n"},
		{"missing name", "sources:\n  - kind: playlist\n    ref: pl.x\n"},
	}

	for _, tc := range cases {
		path := writeSourcesFile(t, tc.content)
		if _, err := LoadSources(path); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}
