package extract

import (
	"bytes"
	"fmt"
	"net/url"

	feedjson "github.com/mmcdole/gofeed/json"

	"github.com/chickadee/reader/app/resource"
)

// jsonFeed converts a JSON Feed document into an OrderedCollection.
func (e *Extractor) jsonFeed(body []byte, mediaType string, u *url.URL) (resource.Object, error) {
	parser := &feedjson.Parser{}
	feed, err := parser.Parse(bytes.NewReader(body))
	if err != nil {
		return resource.Object{}, fmt.Errorf("failed to parse JSON feed: %w", err)
	}

	collection := resource.Object{
		ID:   u.String(),
		Type: resource.TypeOrderedCollection,
		URL: &resource.Link{
			Href:      u.String(),
			MediaType: mediaType,
		},
		Name:    feed.Title,
		Summary: feed.Description,
	}

	icon := resource.AssetLink(feed.Icon, u)
	if icon == nil {
		icon = resource.AssetLink(feed.Favicon, u)
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
		collection.OrderedItems = append(collection.OrderedItems, e.jsonFeedItem(item, u))
	}

	return collection, nil
}

func (e *Extractor) jsonFeedItem(item *feedjson.Item, base *url.URL) resource.Object {
	obj := resource.Object{
		Type: resource.TypeObject,
		Name: item.Title,
	}

	href := resource.ResolveURL(item.URL, base)
	if href != "" {
		obj.URL = &resource.Link{Href: href}
	}

	// Prefer the entry's own id when it parses as an absolute URL, then
	// its URL, then a deterministic slug of the title.
	switch {
	case resource.IsAbsoluteURL(item.ID):
		obj.ID = item.ID
	case href != "":
		obj.ID = href
	case item.Title != "":
		obj.ID = resource.ObjectURI(item.Title)
	default:
		obj.ID = resource.HashURI(item)
	}

	obj.Summary = item.Summary
	obj.Image = resource.AssetLink(item.Image, base)
	if obj.Image == nil {
		obj.Image = resource.AssetLink(item.BannerImage, base)
	}
	obj.Published = parseTime(item.DatePublished)
	obj.Updated = parseTime(item.DateModified)

	return obj
}
