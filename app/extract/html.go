package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/chickadee/reader/app/resource"
)

// feedLinkTypes are the link[rel=alternate] types usable for collection
// item discovery. JSON variants are preferred when several alternates
// share a title.
var feedLinkTypes = map[string]bool{
	"application/feed+json": true,
	"application/json":      true,
	"application/rss+xml":   true,
	"application/atom+xml":  true,
	"text/xml":              true,
	"application/xml":       true,
}

// html extracts a normalized object from an HTML page. Pages carry
// zero, one or many overlapping metadata signals; each pass is
// non-fatal and later passes only fill fields still empty.
func (e *Extractor) html(body []byte, mediaType string, u *url.URL) (resource.Object, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return resource.Object{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	obj := resource.Object{
		ID: u.String(),
		URL: &resource.Link{
			Href:      u.String(),
			MediaType: mediaType,
		},
	}

	// Structured data first. Failures fall through silently: JSON-LD is
	// a best-effort enhancement, not a required signal.
	typed := resolveStructuredData(doc, u, &obj)

	head := doc.Find("head")
	applyFallbackChain(head, u, &obj)

	if !typed {
		obj.Type = decideType(head, u)
	}

	if obj.Type == resource.TypeOrderedCollection && len(obj.OrderedItems) == 0 {
		obj.OrderedItems = discoverFeedLinks(head, u)
	}

	return obj, nil
}

// applyFallbackChain fills every still-empty field from Open Graph and
// generic meta tags, in strict precedence order.
func applyFallbackChain(head *goquery.Selection, u *url.URL, obj *resource.Object) {
	title := strings.TrimSpace(head.Find("title").Last().Text())

	if obj.Name == "" {
		obj.Name = metaContent(head, "og:title")
	}
	if obj.Name == "" {
		obj.Name = title
	}

	if obj.AttributedTo == nil {
		obj.AttributedTo = &resource.Attribution{}
	}
	if obj.AttributedTo.Name == "" {
		obj.AttributedTo.Name = metaContent(head, "og:site_name")
	}
	if obj.AttributedTo.Name == "" {
		obj.AttributedTo.Name = head.Find(`meta[name="application-name"]`).Last().AttrOr("content", "")
	}
	if obj.AttributedTo.Name == "" {
		obj.AttributedTo.Name = title
	}

	if obj.Summary == "" {
		obj.Summary = metaContent(head, "og:description")
	}
	if obj.Summary == "" {
		obj.Summary = head.Find(`meta[name="description"]`).Last().AttrOr("content", "")
	}

	if obj.Image == nil {
		obj.Image = resource.AssetLink(metaContent(head, "og:image"), u)
	}

	if obj.AttributedTo.Icon == nil {
		obj.AttributedTo.Icon = largestIcon(head, u)
	}

	if obj.Published == nil {
		obj.Published = parseTime(metaContent(head, "article:published_time"))
	}

	if obj.AttributedTo.Name == "" && obj.AttributedTo.Summary == "" && obj.AttributedTo.Icon == nil {
		obj.AttributedTo = nil
	}
}

// decideType applies the type heuristics for pages without structured
// data: site roots are collections, og:type=website is a collection,
// everything else is an article-shaped object.
func decideType(head *goquery.Selection, u *url.URL) resource.ObjectType {
	if u.Path == "" || u.Path == "/" {
		return resource.TypeOrderedCollection
	}
	if metaContent(head, "og:type") == "website" {
		return resource.TypeOrderedCollection
	}
	return resource.TypeObject
}

// metaContent reads an RDFa/Open Graph meta value, accepting both the
// property and name attribute conventions.
func metaContent(head *goquery.Selection, property string) string {
	selector := fmt.Sprintf(`meta[property=%q], meta[name=%q]`, property, property)
	return strings.TrimSpace(head.Find(selector).Last().AttrOr("content", ""))
}

// largestIcon picks the page icon, preferring the numerically largest
// sizes attribute when comparable.
func largestIcon(head *goquery.Selection, u *url.URL) *resource.Link {
	type iconCandidate struct {
		href string
		size int
	}

	var icons []iconCandidate
	head.Find(`link[rel="icon"], link[rel="apple-touch-icon"]`).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		size := 0
		if sizes, ok := s.Attr("sizes"); ok {
			first, _, _ := strings.Cut(sizes, "x")
			size, _ = strconv.Atoi(first)
		}
		icons = append(icons, iconCandidate{href: href, size: size})
	})

	if len(icons) == 0 {
		return nil
	}

	sort.SliceStable(icons, func(i, j int) bool {
		return icons[i].size > icons[j].size
	})

	return resource.AssetLink(icons[0].href, u)
}

// discoverFeedLinks scans link[rel=alternate] elements for subscribable
// feeds: JSON variants are preferred when entries share a title, the
// duplicates are dropped, and original document order is restored. The
// hrefs are not fetched here; the entries stay lazy Links.
func discoverFeedLinks(head *goquery.Selection, u *url.URL) []resource.Object {
	type feedCandidate struct {
		href  string
		typ   string
		title string
		order int
	}

	var feeds []feedCandidate
	head.Find(`link[rel="alternate"]`).Each(func(i int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		typ, ok := s.Attr("type")
		if !ok || !feedLinkTypes[typ] {
			return
		}
		feeds = append(feeds, feedCandidate{
			href:  href,
			typ:   typ,
			title: s.AttrOr("title", ""),
			order: i,
		})
	})

	jsonRank := func(typ string) int {
		if typ == "application/json" || typ == "application/feed+json" {
			return 0
		}
		return 1
	}
	sort.SliceStable(feeds, func(i, j int) bool {
		return jsonRank(feeds[i].typ) < jsonRank(feeds[j].typ)
	})

	seen := make(map[string]bool)
	deduped := feeds[:0]
	for _, feed := range feeds {
		if seen[feed.title] {
			continue
		}
		seen[feed.title] = true
		deduped = append(deduped, feed)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].order < deduped[j].order
	})

	items := make([]resource.Object, 0, len(deduped))
	for _, feed := range deduped {
		href := resource.ResolveURL(feed.href, u)
		if href == "" {
			continue
		}
		items = append(items, resource.Object{
			ID:   href,
			Type: resource.TypeObject,
			Name: feed.title,
			URL: &resource.Link{
				Href:      href,
				MediaType: feed.typ,
			},
		})
	}

	return items
}
