package extract

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/chickadee/reader/app/resource"
)

func TestXMLRSS(t *testing.T) {
	data := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <image>
      <url>https://example.com/icon.png</url>
      <title>Test Feed</title>
      <link>https://example.com</link>
    </image>
    <item>
      <title>Test Item 1</title>
      <link>https://example.com/item1</link>
      <description>First</description>
      <guid>https://example.com/item1</guid>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Test Item 2</title>
      <link>/item2</link>
      <guid>item-2</guid>
    </item>
  </channel>
</rss>`
	u, _ := url.Parse("https://example.com/feed.xml")

	obj, err := NewExtractor().Run([]byte(data), "application/rss+xml", u)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if obj.Type != resource.TypeOrderedCollection {
		t.Errorf("Expected OrderedCollection, got %s", obj.Type)
	}
	if obj.Name != "Test Feed" {
		t.Errorf("Expected name 'Test Feed', got %q", obj.Name)
	}
	if obj.AttributedTo == nil || obj.AttributedTo.Icon == nil || obj.AttributedTo.Icon.Href != "https://example.com/icon.png" {
		t.Error("Expected channel image as attribution icon")
	}

	if len(obj.OrderedItems) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(obj.OrderedItems))
	}

	item1 := obj.OrderedItems[0]
	if item1.ID != "https://example.com/item1" {
		t.Errorf("Expected absolute guid as id, got %q", item1.ID)
	}
	expected := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)
	if item1.Published == nil || !item1.Published.Equal(expected) {
		t.Errorf("Expected pubDate parsed as RFC-2822 UTC, got %v", item1.Published)
	}

	// Non-URL guid falls back to the resolved link.
	item2 := obj.OrderedItems[1]
	if item2.ID != "https://example.com/item2" {
		t.Errorf("Expected resolved link as id, got %q", item2.ID)
	}
	if item2.Published != nil {
		t.Error("Expected missing pubDate to stay absent")
	}
}

func TestXMLAtom(t *testing.T) {
	data := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Feed</title>
  <subtitle>Subtitle</subtitle>
  <link href="https://example.com"/>
  <updated>2023-07-03T12:00:00Z</updated>
  <id>urn:uuid:1234</id>
  <entry>
    <title>Entry</title>
    <link href="https://example.com/entry1"/>
    <id>https://example.com/entry1</id>
    <published>2023-07-03T10:00:00Z</published>
    <updated>2023-07-03T11:00:00Z</updated>
  </entry>
</feed>`
	u, _ := url.Parse("https://example.com/atom.xml")

	obj, err := NewExtractor().Run([]byte(data), "application/atom+xml", u)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if obj.Name != "Atom Feed" {
		t.Errorf("Expected name 'Atom Feed', got %q", obj.Name)
	}
	if len(obj.OrderedItems) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(obj.OrderedItems))
	}

	entry := obj.OrderedItems[0]
	if entry.ID != "https://example.com/entry1" {
		t.Errorf("Expected atom id as id, got %q", entry.ID)
	}
	published := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)
	if entry.Published == nil || !entry.Published.Equal(published) {
		t.Errorf("Expected published %v, got %v", published, entry.Published)
	}
	updated := time.Date(2023, 7, 3, 11, 0, 0, 0, time.UTC)
	if entry.Updated == nil || !entry.Updated.Equal(updated) {
		t.Errorf("Expected updated %v, got %v", updated, entry.Updated)
	}
}

func TestXMLUnknownRoot(t *testing.T) {
	data := `<?xml version="1.0"?><foo><bar>baz</bar></foo>`
	u, _ := url.Parse("https://example.com/doc.xml")

	_, err := NewExtractor().Run([]byte(data), "text/xml", u)
	if err == nil {
		t.Fatal("Expected an error for unknown root element")
	}

	var unsupported *UnsupportedFormatError
	if !errors.As(err, &unsupported) {
		t.Fatalf("Expected UnsupportedFormatError, got %T", err)
	}
	if unsupported.URL != "https://example.com/doc.xml" {
		t.Errorf("Expected error to carry the source URL, got %q", unsupported.URL)
	}
	if unsupported.Root != "foo" {
		t.Errorf("Expected error to carry the root tag, got %q", unsupported.Root)
	}
}
