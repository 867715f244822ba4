package extract

import (
	"bytes"
	"encoding/xml"
	"io"
	"net/url"

	"github.com/mmcdole/gofeed"

	"github.com/chickadee/reader/app/resource"
)

// xml converts an RSS or Atom document into an OrderedCollection. Any
// other root element raises an UnsupportedFormatError carrying the
// offending URL and root tag.
func (e *Extractor) xml(body []byte, mediaType string, u *url.URL) (resource.Object, error) {
	feedType := gofeed.DetectFeedType(bytes.NewReader(body))
	if feedType == gofeed.FeedTypeUnknown {
		return resource.Object{}, &UnsupportedFormatError{
			URL:  u.String(),
			Root: rootElement(body),
		}
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return resource.Object{}, &UnsupportedFormatError{
			URL:  u.String(),
			Root: rootElement(body),
		}
	}

	collection := resource.Object{
		ID:   u.String(),
		Type: resource.TypeOrderedCollection,
		URL: &resource.Link{
			Href:      u.String(),
			MediaType: mediaType,
		},
		Name:      feed.Title,
		Summary:   feed.Description,
		Published: utcTime(feed.PublishedParsed),
		Updated:   utcTime(feed.UpdatedParsed),
	}

	var icon *resource.Link
	if feed.Image != nil {
		icon = resource.AssetLink(feed.Image.URL, u)
	}
	if feed.Title != "" || icon != nil {
		collection.AttributedTo = &resource.Attribution{
			Name: feed.Title,
			Icon: icon,
		}
	}

	collection.OrderedItems = make([]resource.Object, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		collection.OrderedItems = append(collection.OrderedItems, e.xmlItem(item, u))
	}

	return collection, nil
}

func (e *Extractor) xmlItem(item *gofeed.Item, base *url.URL) resource.Object {
	obj := resource.Object{
		Type:      resource.TypeObject,
		Name:      item.Title,
		Summary:   item.Description,
		Published: utcTime(item.PublishedParsed),
		Updated:   utcTime(item.UpdatedParsed),
	}

	href := resource.ResolveURL(item.Link, base)
	if href != "" {
		obj.URL = &resource.Link{Href: href}
	}

	// Same id policy as the JSON extractor: a guid/atom-id that parses
	// as an absolute URL wins, then the entry link, then a title slug.
	switch {
	case resource.IsAbsoluteURL(item.GUID):
		obj.ID = item.GUID
	case href != "":
		obj.ID = href
	case item.Title != "":
		obj.ID = resource.ObjectURI(item.Title)
	default:
		obj.ID = resource.HashURI(item)
	}

	if item.Image != nil {
		obj.Image = resource.AssetLink(item.Image.URL, base)
	}

	return obj
}

// rootElement returns the local name of the document's root element for
// diagnostics.
func rootElement(body []byte) string {
	decoder := xml.NewDecoder(bytes.NewReader(body))
	for {
		token, err := decoder.Token()
		if err == io.EOF || err != nil {
			return ""
		}
		if start, ok := token.(xml.StartElement); ok {
			return start.Name.Local
		}
	}
}
