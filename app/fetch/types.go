package fetch

import "time"

// Strategy selects how the cache store participates in a fetch.
type Strategy string

const (
	// CacheFirst serves a cached copy when one exists, without
	// revalidation, and only then reaches for the network.
	CacheFirst Strategy = "CACHE_FIRST"

	// Revalidate retrieves both the cached and the network version so
	// the caller can diff them and emit nothing when unchanged.
	Revalidate Strategy = "REVALIDATE"

	// NetworkFirst always attempts the network, relying on the
	// lower-level cache fallback only on hard failure.
	NetworkFirst Strategy = "NETWORK_FIRST"
)

// Response is an immutable snapshot of a fetched resource. URL is the
// effective origin URL after redirects, with any proxy indirection
// rewritten away.
type Response struct {
	URL         string
	Status      int
	ContentType string
	Body        []byte
	FetchedAt   time.Time
}

// OK mirrors the fetch-API notion of a successful response.
func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// Cache is the keyed response store the fetcher reads and writes.
// Writes are last-write-wins. The key is the requested URL; resp.URL
// may differ when the origin redirected.
type Cache interface {
	GetResponse(url string) (*Response, error)
	PutResponse(url string, resp *Response) error
}
