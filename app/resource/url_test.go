package resource

import (
	"net/url"
	"testing"
)

func TestSafeAssetURL(t *testing.T) {
	base, _ := url.Parse("https://example.com/articles/1")

	tests := []struct {
		name     string
		href     string
		expected string
	}{
		{"absolute https", "https://cdn.example.com/a.png", "https://cdn.example.com/a.png"},
		{"relative resolved against base", "/img/a.png", "https://example.com/img/a.png"},
		{"relative without leading slash", "a.png", "https://example.com/articles/a.png"},
		{"http rejected", "http://example.com/a.png", ""},
		{"javascript rejected", "javascript:alert(1)", ""},
		{"data rejected", "data:image/png;base64,AAAA", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeAssetURL(tt.href, base); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSafeAssetURLHTTPBase(t *testing.T) {
	base, _ := url.Parse("http://example.com/")

	// A relative URL resolved against an http base is not safe.
	if got := SafeAssetURL("/img/a.png", base); got != "" {
		t.Errorf("Expected empty URL, got %q", got)
	}
}

func TestAssetLink(t *testing.T) {
	base, _ := url.Parse("https://example.com/")

	link := AssetLink("/icon.png", base)
	if link == nil {
		t.Fatal("Expected a link")
	}
	if link.Href != "https://example.com/icon.png" {
		t.Errorf("Expected resolved href, got %q", link.Href)
	}

	if AssetLink("ftp://example.com/icon.png", base) != nil {
		t.Error("Expected nil link for non-https scheme")
	}
}

func TestIsAbsoluteURL(t *testing.T) {
	if !IsAbsoluteURL("http://x/1") {
		t.Error("Expected http URL to be absolute")
	}
	if !IsAbsoluteURL("https://example.com/post") {
		t.Error("Expected https URL to be absolute")
	}
	if IsAbsoluteURL("/relative/path") {
		t.Error("Expected relative path to be rejected")
	}
	if IsAbsoluteURL("urn:uuid:1234") {
		t.Error("Expected urn to be rejected")
	}
}

func TestPathRoundTrip(t *testing.T) {
	tests := []struct {
		resource string
		path     string
	}{
		{"https://example.com/", "/example.com"},
		{"https://example.com/feed.json", "/example.com/ZmVlZC5qc29u"},
	}

	for _, tt := range tests {
		path, err := Path(tt.resource)
		if err != nil {
			t.Fatalf("Path(%q) returned error: %v", tt.resource, err)
		}
		if path != tt.path {
			t.Errorf("Expected path %q, got %q", tt.path, path)
		}
	}

	back, err := ParsePath("example.com", "ZmVlZC5qc29u")
	if err != nil {
		t.Fatalf("ParsePath returned error: %v", err)
	}
	if back != "https://example.com/feed.json" {
		t.Errorf("Expected round trip, got %q", back)
	}

	root, err := ParsePath("example.com", "")
	if err != nil {
		t.Fatalf("ParsePath returned error: %v", err)
	}
	if root != "https://example.com/" {
		t.Errorf("Expected origin root, got %q", root)
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"Hello World", "hello-world"},
		{"Crème brûlée!", "creme-brulee"},
		{"  spaced   out  ", "spaced-out"},
		{"Ünïcode — Dashes", "unicode-dashes"},
	}

	for _, tt := range tests {
		if got := Slug(tt.text); got != tt.expected {
			t.Errorf("Slug(%q): expected %q, got %q", tt.text, tt.expected, got)
		}
	}
}

func TestObjectURIStable(t *testing.T) {
	a := ObjectURI("Some Post Title")
	b := ObjectURI("Some Post Title")
	if a != b {
		t.Errorf("Expected stable URI, got %q and %q", a, b)
	}
	if a != "https://chickadee.page/object/some-post-title" {
		t.Errorf("Unexpected URI: %q", a)
	}
}
