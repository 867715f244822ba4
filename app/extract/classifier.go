package extract

import (
	"net/url"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/chickadee/reader/app/resource"
)

// MimeTypes is the supported MIME set in Accept priority order.
var MimeTypes = []string{
	"application/feed+json",
	"application/rss+xml",
	"application/atom+xml",
	"text/html",
	"application/json",
	"application/xhtml+xml",
	"text/xml",
	"application/xml",
}

var mimeSet = func() map[string]bool {
	set := make(map[string]bool, len(MimeTypes))
	for _, mt := range MimeTypes {
		set[mt] = true
	}
	return set
}()

// Supported reports whether a bare MIME type (no parameters) is one the
// extractors can handle.
func Supported(mimeType string) bool {
	return mimeSet[mimeType]
}

// MimeType strips parameters and whitespace from a Content-Type header
// value.
func MimeType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(mt)
}

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Run classifies a response body by its content type and hands it to
// the matching format extractor. An unsupported or missing content type
// is not an error: the reference is still representable as a plain
// link, so a minimal placeholder object is returned instead.
func (e *Extractor) Run(body []byte, contentType string, u *url.URL) (resource.Object, error) {
	mt := MimeType(contentType)

	switch mt {
	case "application/json", "application/feed+json":
		return e.jsonFeed(body, mt, u)
	case "text/html", "application/xhtml+xml":
		return e.html(body, mt, u)
	case "application/rss+xml", "application/atom+xml", "text/xml", "application/xml":
		return e.xml(body, mt, u)
	default:
		return placeholder(mt, u), nil
	}
}

func placeholder(mediaType string, u *url.URL) resource.Object {
	return resource.Object{
		ID:   u.String(),
		Type: resource.TypeObject,
		URL: &resource.Link{
			Href:      u.String(),
			MediaType: mediaType,
		},
	}
}

// parseTime leniently parses a source timestamp and converts it to UTC.
// A date that does not parse is dropped, never fatal.
func parseTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	t, err := dateparse.ParseAny(value)
	if err != nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

func utcTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
