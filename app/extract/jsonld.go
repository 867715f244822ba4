package extract

import (
	_ "embed"
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/piprate/json-gold/ld"

	"github.com/chickadee/reader/app/resource"
)

// Aspect ratio targets for representative images.
const (
	articleRatio    = 16.0 / 9.0
	collectionRatio = 21.0 / 9.0
	iconRatio       = 1.0
)

// articleClasses is the schema.org Article subtree; entities of these
// types become the page's primary Object.
var articleClasses = classSet(
	"Article", "AdvertiserContentArticle", "NewsArticle",
	"AnalysisNewsArticle", "AskPublicNewsArticle", "BackgroundNewsArticle",
	"OpinionNewsArticle", "ReportageNewsArticle", "ReviewNewsArticle",
	"Report", "SatiricalArticle", "ScholarlyArticle",
	"MedicalScholarlyArticle", "SocialMediaPosting", "BlogPosting",
	"LiveBlogPosting", "DiscussionForumPosting", "TechArticle",
	"APIReference",
)

// collectionClasses is the union of the WebPage and ItemList subtrees;
// entities of these types become an OrderedCollection.
var collectionClasses = classSet(
	"WebPage", "AboutPage", "CheckoutPage", "CollectionPage",
	"MediaGallery", "ImageGallery", "VideoGallery", "ContactPage",
	"FAQPage", "ItemPage", "MedicalWebPage", "ProfilePage", "QAPage",
	"RealEstateListing", "SearchResultsPage",
	"ItemList", "BreadcrumbList", "HowToSection", "HowToStep",
	"OfferCatalog",
)

func classSet(names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}

//go:embed schemaorg.jsonld
var schemaOrgContext []byte

// offlineLoader serves the embedded schema.org context subset so that
// framing never reaches the network: untrusted pages must not be able
// to trigger remote context fetches during extraction.
type offlineLoader struct{}

func (l *offlineLoader) LoadDocument(u string) (*ld.RemoteDocument, error) {
	var doc interface{}
	if err := json.Unmarshal(schemaOrgContext, &doc); err != nil {
		return nil, err
	}
	return &ld.RemoteDocument{DocumentURL: u, Document: doc}, nil
}

// resolveStructuredData locates ld+json blocks, frames them against the
// page URL, and populates obj from the matched entity. It reports
// whether a type was resolved. Every failure falls through to the
// metadata fallback chain.
func resolveStructuredData(doc *goquery.Document, u *url.URL, obj *resource.Object) bool {
	blocks := structuredDataBlocks(doc, u)
	if len(blocks) == 0 {
		return false
	}

	entity := frameEntity(blocks, u)
	if entity == nil {
		return false
	}

	types := entityTypes(entity)

	article := false
	collection := false
	for _, t := range types {
		if articleClasses[t] {
			article = true
		}
		if collectionClasses[t] {
			collection = true
		}
	}

	switch {
	case article:
		obj.Type = resource.TypeObject
	case collection:
		obj.Type = resource.TypeOrderedCollection
	default:
		return false
	}

	obj.Name = ldString(entity["name"])
	if obj.Name == "" {
		obj.Name = ldString(entity["headline"])
	}
	obj.Summary = ldString(entity["description"])
	obj.Published = parseTime(ldString(entity["datePublished"]))

	target := articleRatio
	if obj.Type == resource.TypeOrderedCollection {
		target = collectionRatio
	}
	obj.Image = bestImage(entity["image"], target, u)

	if obj.Type == resource.TypeOrderedCollection {
		obj.OrderedItems = listItems(entity, u)
	}

	resolvePublisher(blocks, entity, u, obj)

	return true
}

// structuredDataBlocks parses every ld+json script. When the target URL
// carries a fragment and the page has several blocks, only the block
// whose element id matches the fragment is used.
func structuredDataBlocks(doc *goquery.Document, u *url.URL) []interface{} {
	scripts := doc.Find(`script[type="application/ld+json"]`)

	if u.Fragment != "" && scripts.Length() > 1 {
		matched := scripts.FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.AttrOr("id", "") == u.Fragment
		})
		if matched.Length() > 0 {
			scripts = matched
		}
	}

	var blocks []interface{}
	scripts.Each(func(_ int, s *goquery.Selection) {
		var block interface{}
		if err := json.Unmarshal([]byte(s.Text()), &block); err != nil {
			// Malformed blocks are ignored, not fatal.
			return
		}
		if list, ok := block.([]interface{}); ok {
			blocks = append(blocks, list...)
			return
		}
		blocks = append(blocks, block)
	})

	return blocks
}

// frameEntity frames the merged document set against the resolved URL,
// retrying with the http scheme when nothing matches; many sites
// declare http identifiers for https pages.
func frameEntity(blocks []interface{}, u *url.URL) map[string]interface{} {
	href := *u
	href.Fragment = ""

	httpHref := href
	httpHref.Scheme = "http"

	for _, value := range []string{href.String(), httpHref.String()} {
		for _, property := range []string{"url", "mainEntityOfPage"} {
			if entity := frameBy(blocks, property, value); entity != nil {
				return entity
			}
		}
	}
	return nil
}

// frameBy selects the entity whose property carries the given value.
// Framing does not drop non-matching nodes from the graph, so the
// framed output is scanned for the node that actually matches.
func frameBy(blocks []interface{}, property, value string) map[string]interface{} {
	frame := map[string]interface{}{
		"@context": "https://schema.org",
		property:   value,
	}
	for _, node := range frameNodes(blocks, frame) {
		if ldString(node[property]) == value {
			return node
		}
	}
	return nil
}

// frameByID recovers the full entity for a node reference.
func frameByID(blocks []interface{}, id string) map[string]interface{} {
	frame := map[string]interface{}{
		"@context": "https://schema.org",
		"@id":      id,
	}
	for _, node := range frameNodes(blocks, frame) {
		if ldString(node["@id"]) == id {
			return node
		}
	}
	return nil
}

func frameNodes(blocks []interface{}, frame map[string]interface{}) []map[string]interface{} {
	proc := ld.NewJsonLdProcessor()
	opts := ld.NewJsonLdOptions("")
	opts.DocumentLoader = &offlineLoader{}

	framed, err := proc.Frame(blocks, frame, opts)
	if err != nil {
		return nil
	}

	if graph, ok := framed["@graph"].([]interface{}); ok {
		var nodes []map[string]interface{}
		for _, raw := range graph {
			if node, ok := raw.(map[string]interface{}); ok {
				nodes = append(nodes, node)
			}
		}
		return nodes
	}

	if len(entityTypes(framed)) > 0 {
		return []map[string]interface{}{framed}
	}
	return nil
}

// resolvePublisher recovers publisher attribution from the entity's
// publisher (or author) node, re-framing by id when the node is only a
// reference. A best-square icon is chosen; an icon found earlier is
// only overridden when the new candidate is itself square.
func resolvePublisher(blocks []interface{}, entity map[string]interface{}, u *url.URL, obj *resource.Object) {
	node := firstNode(entity["publisher"])
	if node == nil {
		node = firstNode(entity["author"])
	}
	if node == nil {
		return
	}

	// A bare reference only carries @id; recover the full entity from
	// the document set.
	if len(node) <= 2 {
		if id := ldString(node["@id"]); id != "" {
			if full := frameByID(blocks, id); full != nil {
				node = full
			}
		}
	}

	name := ldString(node["name"])
	summary := ldString(node["description"])
	icon := bestImage(node["logo"], iconRatio, u)
	if icon == nil {
		icon = bestImage(node["image"], iconRatio, u)
	}

	if name == "" && summary == "" && icon == nil {
		return
	}

	if obj.AttributedTo == nil {
		obj.AttributedTo = &resource.Attribution{}
	}
	if name != "" {
		obj.AttributedTo.Name = name
	}
	if summary != "" {
		obj.AttributedTo.Summary = summary
	}
	if icon != nil {
		if obj.AttributedTo.Icon == nil || isSquare(node["logo"], u, icon.Href) {
			obj.AttributedTo.Icon = icon
		}
	}
}

// listItems pulls collection entries from itemListElement, looking
// through mainEntity when the list is nested.
func listItems(entity map[string]interface{}, u *url.URL) []resource.Object {
	elements := ldList(entity["itemListElement"])
	if len(elements) == 0 {
		if main := firstNode(entity["mainEntity"]); main != nil {
			elements = ldList(main["itemListElement"])
		}
	}

	var items []resource.Object
	for _, element := range elements {
		node, ok := element.(map[string]interface{})
		if !ok {
			continue
		}

		target := node
		if item := firstNode(node["item"]); item != nil {
			target = item
		}

		href := ldString(target["url"])
		if href == "" {
			href = ldString(target["@id"])
		}
		href = resource.ResolveURL(href, u)
		if href == "" {
			continue
		}

		items = append(items, resource.Object{
			ID:   href,
			Type: resource.TypeObject,
			Name: ldString(target["name"]),
			URL:  &resource.Link{Href: href},
		})
	}

	return items
}

type imageCandidate struct {
	href   string
	width  float64
	height float64
}

// bestImage selects a representative image: candidates with explicit
// dimensions are grouped by aspect ratio, the group closest to the
// target ratio wins, and the widest image within that group is chosen.
func bestImage(value interface{}, target float64, base *url.URL) *resource.Link {
	var candidates []imageCandidate
	for _, raw := range ldList(value) {
		node, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		href := ldString(node["url"])
		if href == "" {
			href = ldString(node["contentUrl"])
		}
		if href == "" {
			href = ldString(node["@id"])
		}
		width := ldNumber(node["width"])
		height := ldNumber(node["height"])
		if href == "" || width <= 0 || height <= 0 {
			continue
		}
		candidates = append(candidates, imageCandidate{href: href, width: width, height: height})
	}

	if len(candidates) == 0 {
		return nil
	}

	groups := make(map[float64][]imageCandidate)
	for _, c := range candidates {
		ratio := math.Round(c.width/c.height*100) / 100
		groups[ratio] = append(groups[ratio], c)
	}

	bestRatio := 0.0
	bestDistance := math.Inf(1)
	for ratio := range groups {
		distance := math.Abs(ratio - target)
		if distance < bestDistance || (distance == bestDistance && ratio > bestRatio) {
			bestRatio = ratio
			bestDistance = distance
		}
	}

	var widest imageCandidate
	for _, c := range groups[bestRatio] {
		if c.width > widest.width {
			widest = c
		}
	}

	return resource.AssetLink(widest.href, base)
}

// isSquare reports whether the candidate that produced href has a 1:1
// aspect ratio.
func isSquare(value interface{}, base *url.URL, href string) bool {
	for _, raw := range ldList(value) {
		node, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		candidate := ldString(node["url"])
		if candidate == "" {
			candidate = ldString(node["contentUrl"])
		}
		if resource.SafeAssetURL(candidate, base) != href {
			continue
		}
		width := ldNumber(node["width"])
		height := ldNumber(node["height"])
		return width > 0 && width == height
	}
	return false
}

func entityTypes(entity map[string]interface{}) []string {
	var types []string
	for _, raw := range ldList(entity["@type"]) {
		if name, ok := raw.(string); ok {
			types = append(types, strings.TrimPrefix(name, "http://schema.org/"))
		}
	}
	return types
}

// firstNode unwraps a value that may be a node, a list of nodes, or
// absent.
func firstNode(value interface{}) map[string]interface{} {
	for _, raw := range ldList(value) {
		if node, ok := raw.(map[string]interface{}); ok {
			return node
		}
	}
	return nil
}

// ldList normalizes a JSON-LD value into a slice.
func ldList(value interface{}) []interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case []interface{}:
		return v
	default:
		return []interface{}{v}
	}
}

// ldString unwraps a JSON-LD value into a string, tolerating value
// objects and lists.
func ldString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]interface{}:
		if inner, ok := v["@value"]; ok {
			return ldString(inner)
		}
		if inner, ok := v["@id"]; ok {
			return ldString(inner)
		}
		return ""
	case []interface{}:
		for _, item := range v {
			if s := ldString(item); s != "" {
				return s
			}
		}
		return ""
	default:
		return ""
	}
}

// ldNumber unwraps a JSON-LD numeric value, tolerating strings and
// value objects.
func ldNumber(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case string:
		n, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
		if err != nil {
			return 0
		}
		return n
	case map[string]interface{}:
		if inner, ok := v["@value"]; ok {
			return ldNumber(inner)
		}
		if inner, ok := v["value"]; ok {
			return ldNumber(inner)
		}
		return 0
	case []interface{}:
		for _, item := range v {
			if n := ldNumber(item); n > 0 {
				return n
			}
		}
		return 0
	default:
		return 0
	}
}
