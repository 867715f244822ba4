package follows

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheLoadValidConfig(t *testing.T) {
	tempDir := t.TempDir()

	content := `
follows:
  - url: "https://example.com/feed.xml"
    name: "Example"
  - url: "https://blog.example.org/"

settings:
  refresh_interval: 600
  fetch_concurrency: 4
  max_items: 50
`

	path := filepath.Join(tempDir, "follows.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cache := NewCache(path)
	if err := cache.Run(); err != nil {
		t.Fatal(err)
	}

	if cache.GetCount() != 2 {
		t.Errorf("Expected 2 follows, got %d", cache.GetCount())
	}

	entries := cache.GetEntries()
	if entries[0].URL != "https://example.com/feed.xml" || entries[0].Name != "Example" {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}

	settings := cache.GetSettings()
	if settings.RefreshInterval != 600 {
		t.Errorf("Expected refresh interval 600, got %d", settings.RefreshInterval)
	}
	if settings.FetchConcurrency != 4 {
		t.Errorf("Expected fetch concurrency 4, got %d", settings.FetchConcurrency)
	}

	if !cache.IsFollowed("https://blog.example.org/") {
		t.Error("Expected URL to be followed")
	}
	if cache.IsFollowed("https://other.example.org/") {
		t.Error("Expected unknown URL to not be followed")
	}
}

func TestCacheDefaults(t *testing.T) {
	tempDir := t.TempDir()

	content := `
follows:
  - url: "https://example.com/feed.xml"
`

	path := filepath.Join(tempDir, "follows.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cache := NewCache(path)
	if err := cache.Run(); err != nil {
		t.Fatal(err)
	}

	settings := cache.GetSettings()
	if settings.RefreshInterval != 300 {
		t.Errorf("Expected default refresh interval 300, got %d", settings.RefreshInterval)
	}
	if settings.FetchConcurrency != 8 {
		t.Errorf("Expected default fetch concurrency 8, got %d", settings.FetchConcurrency)
	}
	if settings.MaxItems != 100 {
		t.Errorf("Expected default max items 100, got %d", settings.MaxItems)
	}
}

func TestCacheMissingFileStartsEmpty(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "follows.yml"))
	if err := cache.Run(); err != nil {
		t.Fatalf("Expected a missing file to be tolerated, got: %v", err)
	}
	if cache.GetCount() != 0 {
		t.Errorf("Expected no follows, got %d", cache.GetCount())
	}
	if cache.GetSettings().RefreshInterval != 300 {
		t.Error("Expected defaults to apply without a file")
	}
}

func TestCacheRejectsInvalidURL(t *testing.T) {
	tempDir := t.TempDir()

	content := `
follows:
  - url: "not-a-url"
`

	path := filepath.Join(tempDir, "follows.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cache := NewCache(path)
	if err := cache.Run(); err == nil {
		t.Error("Expected an error for a relative follow URL")
	}
}

func TestCacheAddRemovePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "follows.yml")

	cache := NewCache(path)
	if err := cache.Run(); err != nil {
		t.Fatal(err)
	}

	if err := cache.Add("https://example.com/feed.xml", "Example"); err != nil {
		t.Fatal(err)
	}
	// Re-adding is a no-op.
	if err := cache.Add("https://example.com/feed.xml", ""); err != nil {
		t.Fatal(err)
	}
	if cache.GetCount() != 1 {
		t.Fatalf("Expected 1 follow, got %d", cache.GetCount())
	}

	// The list survives a reload from disk.
	reloaded := NewCache(path)
	if err := reloaded.Run(); err != nil {
		t.Fatal(err)
	}
	if !reloaded.IsFollowed("https://example.com/feed.xml") {
		t.Error("Expected the added follow to persist")
	}

	if err := cache.Remove("https://example.com/feed.xml"); err != nil {
		t.Fatal(err)
	}
	if cache.GetCount() != 0 {
		t.Errorf("Expected 0 follows after remove, got %d", cache.GetCount())
	}

	if err := cache.Add("http://insecure.example.com/", ""); err != nil {
		t.Fatal(err)
	}
	if err := cache.Add("ftp://example.com/", ""); err == nil {
		t.Error("Expected a non-http scheme to be rejected")
	}
}
