package activity

import (
	"context"
	"fmt"
	"net/url"

	"github.com/chickadee/reader/app/extract"
	"github.com/chickadee/reader/app/fetch"
	"github.com/chickadee/reader/app/resource"
)

// Source turns raw HTTP responses into normalized objects. It is the
// single seam between the transport layer and the extractors, so
// everything above it deals in resource.Object values only.
type Source struct {
	client    *fetch.Client
	extractor *extract.Extractor
}

func NewSource(client *fetch.Client) *Source {
	return &Source{
		client:    client,
		extractor: extract.NewExtractor(),
	}
}

// Get fetches and extracts a resource under the given cache strategy.
// CacheFirst serves a cached snapshot when one exists and only reaches
// the network on a miss; Revalidate and NetworkFirst always hit the
// network, relying on the client's own stale-cache fallback.
func (s *Source) Get(ctx context.Context, rawURL string, strategy fetch.Strategy) (resource.Object, error) {
	if strategy == fetch.CacheFirst {
		if cached, err := s.GetCached(rawURL); err == nil && cached != nil {
			return *cached, nil
		}
	}

	resp, err := s.client.Do(ctx, rawURL)
	if err != nil {
		return resource.Object{}, err
	}
	return s.extractResponse(resp)
}

// GetCached extracts the last cached response for a resource, or nil on
// a cache miss. It never touches the network.
func (s *Source) GetCached(rawURL string) (*resource.Object, error) {
	resp, err := s.client.FromCache(rawURL)
	if err != nil || resp == nil {
		return nil, err
	}
	obj, err := s.extractResponse(resp)
	if err != nil {
		return nil, err
	}
	return &obj, nil
}

func (s *Source) extractResponse(resp *fetch.Response) (resource.Object, error) {
	u, err := url.Parse(resp.URL)
	if err != nil {
		return resource.Object{}, fmt.Errorf("failed to parse response URL: %w", err)
	}
	return s.extractor.Run(resp.Body, resp.ContentType, u)
}
