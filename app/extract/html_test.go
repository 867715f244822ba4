package extract

import (
	"net/url"
	"testing"
	"time"

	"github.com/chickadee/reader/app/resource"
)

func TestHTMLTitleOnlyFallback(t *testing.T) {
	data := `<!DOCTYPE html><html><head><title>Hello</title></head><body></body></html>`

	// At the site root the page defaults to a collection.
	root, _ := url.Parse("https://example.com/")
	obj, err := NewExtractor().Run([]byte(data), "text/html", root)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if obj.Type != resource.TypeOrderedCollection {
		t.Errorf("Expected OrderedCollection at site root, got %s", obj.Type)
	}
	if obj.Name != "Hello" {
		t.Errorf("Expected name 'Hello', got %q", obj.Name)
	}
	if obj.AttributedTo == nil || obj.AttributedTo.Name != "Hello" {
		t.Error("Expected attribution name to fall back to the title")
	}

	// Anywhere else it defaults to a plain object.
	page, _ := url.Parse("https://example.com/posts/1")
	obj, err = NewExtractor().Run([]byte(data), "text/html", page)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if obj.Type != resource.TypeObject {
		t.Errorf("Expected Object for a non-root path, got %s", obj.Type)
	}
}

func TestHTMLFallbackChainPrecedence(t *testing.T) {
	data := `<!DOCTYPE html><html><head>
<title>Page Title</title>
<meta property="og:title" content="OG Title">
<meta property="og:site_name" content="OG Site">
<meta name="application-name" content="App Name">
<meta property="og:description" content="OG Description">
<meta name="description" content="Meta Description">
<meta property="og:image" content="https://example.com/banner.png">
<meta property="article:published_time" content="2023-02-01T12:00:00Z">
</head><body></body></html>`
	u, _ := url.Parse("https://example.com/posts/1")

	obj, err := NewExtractor().Run([]byte(data), "text/html", u)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if obj.Name != "OG Title" {
		t.Errorf("Expected og:title to win, got %q", obj.Name)
	}
	if obj.AttributedTo == nil || obj.AttributedTo.Name != "OG Site" {
		t.Error("Expected og:site_name to win for attribution")
	}
	if obj.Summary != "OG Description" {
		t.Errorf("Expected og:description to win, got %q", obj.Summary)
	}
	if obj.Image == nil || obj.Image.Href != "https://example.com/banner.png" {
		t.Error("Expected og:image banner")
	}
	expected := time.Date(2023, 2, 1, 12, 0, 0, 0, time.UTC)
	if obj.Published == nil || !obj.Published.Equal(expected) {
		t.Errorf("Expected article:published_time, got %v", obj.Published)
	}
}

func TestHTMLOgTypeWebsite(t *testing.T) {
	data := `<!DOCTYPE html><html><head>
<title>Site</title>
<meta property="og:type" content="website">
</head><body></body></html>`
	u, _ := url.Parse("https://example.com/about")

	obj, err := NewExtractor().Run([]byte(data), "text/html", u)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if obj.Type != resource.TypeOrderedCollection {
		t.Errorf("Expected og:type=website to yield a collection, got %s", obj.Type)
	}
}

func TestHTMLIconPrefersLargest(t *testing.T) {
	data := `<!DOCTYPE html><html><head>
<title>Site</title>
<link rel="icon" href="/small.png" sizes="16x16">
<link rel="apple-touch-icon" href="/large.png" sizes="180x180">
<link rel="icon" href="/medium.png" sizes="32x32">
</head><body></body></html>`
	u, _ := url.Parse("https://example.com/")

	obj, err := NewExtractor().Run([]byte(data), "text/html", u)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if obj.AttributedTo == nil || obj.AttributedTo.Icon == nil {
		t.Fatal("Expected an icon")
	}
	if obj.AttributedTo.Icon.Href != "https://example.com/large.png" {
		t.Errorf("Expected the largest icon, got %q", obj.AttributedTo.Icon.Href)
	}
}

func TestHTMLFeedDiscovery(t *testing.T) {
	data := `<!DOCTYPE html><html><head>
<title>Blog</title>
<link rel="alternate" type="application/rss+xml" title="Posts" href="/feed.xml">
<link rel="alternate" type="application/json" title="Posts" href="/feed.json">
<link rel="alternate" type="application/rss+xml" title="Comments" href="/comments.xml">
<link rel="alternate" type="text/css" title="Style" href="/style.css">
<link rel="alternate" type="application/rss+xml" title="NoHref">
</head><body></body></html>`
	u, _ := url.Parse("https://example.com/")

	obj, err := NewExtractor().Run([]byte(data), "text/html", u)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(obj.OrderedItems) != 2 {
		t.Fatalf("Expected 2 discovered feeds, got %d", len(obj.OrderedItems))
	}

	// The JSON alternate wins the title dedupe, and document order is
	// restored afterwards.
	if obj.OrderedItems[0].URL.Href != "https://example.com/feed.json" {
		t.Errorf("Expected JSON feed first, got %q", obj.OrderedItems[0].URL.Href)
	}
	if obj.OrderedItems[1].URL.Href != "https://example.com/comments.xml" {
		t.Errorf("Expected comments feed second, got %q", obj.OrderedItems[1].URL.Href)
	}
}

func TestHTMLUnsafeAssetsDropped(t *testing.T) {
	data := `<!DOCTYPE html><html><head>
<title>Site</title>
<meta property="og:image" content="http://example.com/banner.png">
<link rel="icon" href="ftp://example.com/icon.png">
</head><body></body></html>`
	u, _ := url.Parse("https://example.com/")

	obj, err := NewExtractor().Run([]byte(data), "text/html", u)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if obj.Image != nil {
		t.Error("Expected non-https banner to be dropped")
	}
	if obj.AttributedTo != nil && obj.AttributedTo.Icon != nil {
		t.Error("Expected non-https icon to be dropped")
	}
}

func TestHTMLStructuredDataArticle(t *testing.T) {
	data := `<!DOCTYPE html><html><head>
<title>Fallback Title</title>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "NewsArticle",
  "url": "https://example.com/posts/1",
  "headline": "Structured Headline",
  "description": "Structured description",
  "datePublished": "2023-03-01T09:30:00Z",
  "image": [
    {"@type": "ImageObject", "url": "https://example.com/wide.png", "width": 1600, "height": 900},
    {"@type": "ImageObject", "url": "https://example.com/square.png", "width": 800, "height": 800}
  ],
  "publisher": {
    "@type": "Organization",
    "name": "Example News",
    "logo": {"@type": "ImageObject", "url": "https://example.com/logo.png", "width": 100, "height": 100}
  }
}
</script>
</head><body></body></html>`
	u, _ := url.Parse("https://example.com/posts/1")

	obj, err := NewExtractor().Run([]byte(data), "text/html", u)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if obj.Type != resource.TypeObject {
		t.Errorf("Expected Article subtree to yield an Object, got %s", obj.Type)
	}
	if obj.Name != "Structured Headline" {
		t.Errorf("Expected structured headline to win over title, got %q", obj.Name)
	}
	if obj.Summary != "Structured description" {
		t.Errorf("Expected structured description, got %q", obj.Summary)
	}
	expected := time.Date(2023, 3, 1, 9, 30, 0, 0, time.UTC)
	if obj.Published == nil || !obj.Published.Equal(expected) {
		t.Errorf("Expected datePublished, got %v", obj.Published)
	}
	if obj.Image == nil || obj.Image.Href != "https://example.com/wide.png" {
		t.Error("Expected the 16:9 image group to win for an article")
	}
	if obj.AttributedTo == nil || obj.AttributedTo.Name != "Example News" {
		t.Error("Expected publisher attribution")
	}
	if obj.AttributedTo.Icon == nil || obj.AttributedTo.Icon.Href != "https://example.com/logo.png" {
		t.Error("Expected square publisher logo as icon")
	}
}

func TestHTMLStructuredDataPicksEntityMatchingURL(t *testing.T) {
	data := `<!DOCTYPE html><html><head>
<title>Fallback Title</title>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "BreadcrumbList",
  "itemListElement": [
    {"@type": "ListItem", "position": 1, "item": {"@id": "https://example.com/", "name": "Home"}}
  ]
}
</script>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "NewsArticle",
  "url": "https://example.com/posts/other",
  "headline": "Wrong"
}
</script>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "NewsArticle",
  "url": "https://example.com/posts/1",
  "headline": "Right"
}
</script>
</head><body></body></html>`
	u, _ := url.Parse("https://example.com/posts/1")

	obj, err := NewExtractor().Run([]byte(data), "text/html", u)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if obj.Type != resource.TypeObject {
		t.Errorf("Expected the article entity to win, got %s", obj.Type)
	}
	if obj.Name != "Right" {
		t.Errorf("Expected the entity matching the page URL, got %q", obj.Name)
	}
}

func TestHTMLStructuredDataNoMatchFallsThrough(t *testing.T) {
	data := `<!DOCTYPE html><html><head>
<title>Hello</title>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "BreadcrumbList",
  "itemListElement": [
    {"@type": "ListItem", "position": 1, "item": {"@id": "https://example.com/", "name": "Home"}}
  ]
}
</script>
</head><body></body></html>`
	u, _ := url.Parse("https://example.com/posts/1")

	obj, err := NewExtractor().Run([]byte(data), "text/html", u)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// The list entity does not identify this page, so it must not type
	// the page as a collection; the metadata chain runs instead.
	if obj.Type != resource.TypeObject {
		t.Errorf("Expected a plain Object, got %s", obj.Type)
	}
	if obj.Name != "Hello" {
		t.Errorf("Expected fallback chain to run, got %q", obj.Name)
	}
}

func TestHTMLStructuredDataMalformedFallsThrough(t *testing.T) {
	data := `<!DOCTYPE html><html><head>
<title>Hello</title>
<script type="application/ld+json">{not json at all</script>
</head><body></body></html>`
	u, _ := url.Parse("https://example.com/posts/1")

	obj, err := NewExtractor().Run([]byte(data), "text/html", u)
	if err != nil {
		t.Fatalf("Expected malformed JSON-LD to be ignored, got: %v", err)
	}
	if obj.Name != "Hello" {
		t.Errorf("Expected fallback chain to run, got %q", obj.Name)
	}
}
