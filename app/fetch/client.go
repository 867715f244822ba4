package fetch

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chickadee/reader/app/extract"
)

// acceptHeaderBudget is the CORS-safelisted request header size limit;
// a longer Accept value would force a preflight on cross-origin
// requests.
const acceptHeaderBudget = 128

// AcceptHeader builds the Accept value from the supported MIME set in
// priority order, dropping the lowest-priority types from the end until
// the value fits the budget.
func AcceptHeader(budget int) string {
	types := extract.MimeTypes
	for len(types) > 1 {
		header := strings.Join(types, ", ")
		if len(header) <= budget {
			return header
		}
		types = types[:len(types)-1]
	}
	return types[0]
}

type Client struct {
	httpClient *http.Client
	cache      Cache
	proxyBase  string
	userAgent  string
	accept     string
}

// NewClient creates a resource fetcher. proxyBase is the origin of the
// same-origin reverse proxy used as the CORS fallback; empty disables
// the proxy retry.
func NewClient(httpClient *http.Client, cache Cache, proxyBase, userAgent string) *Client {
	return &Client{
		httpClient: httpClient,
		cache:      cache,
		proxyBase:  strings.TrimSuffix(proxyBase, "/"),
		userAgent:  userAgent,
		accept:     AcceptHeader(acceptHeaderBudget),
	}
}

// FromCache returns the last cached response for a resource, or nil on
// a miss.
func (c *Client) FromCache(rawURL string) (*Response, error) {
	u, err := secureURL(rawURL)
	if err != nil {
		return nil, err
	}
	return c.cache.GetResponse(u.String())
}

// Do fetches a resource. A HEAD capability probe runs first: when it
// reports a content type the extractors cannot handle, the HEAD
// response is returned directly to avoid wasting the GET. On network
// failure the same-origin proxy is tried once, then the cache; only
// when all three fail does the error propagate.
func (c *Client) Do(ctx context.Context, rawURL string) (*Response, error) {
	u, err := secureURL(rawURL)
	if err != nil {
		return nil, err
	}

	resp, err := c.direct(ctx, u)
	if err == nil {
		return resp, nil
	}

	slog.Debug("Direct fetch failed, trying proxy", "url", u.String(), "error", err)

	if c.proxyBase != "" {
		resp, proxyErr := c.viaProxy(ctx, u)
		if proxyErr == nil {
			return resp, nil
		}
		slog.Debug("Proxy fetch failed", "url", u.String(), "error", proxyErr)
	}

	if cached, cacheErr := c.cache.GetResponse(u.String()); cacheErr == nil && cached != nil {
		slog.Debug("Serving stale cached response", "url", u.String())
		return cached, nil
	}

	return nil, fmt.Errorf("resource unavailable: %w", err)
}

func (c *Client) direct(ctx context.Context, u *url.URL) (*Response, error) {
	head, err := c.request(ctx, http.MethodHead, u.String())
	if err != nil {
		return nil, err
	}

	// An unusable content type makes the GET pointless; the probe
	// result is still worth caching as a placeholder.
	if !extract.Supported(extract.MimeType(head.ContentType)) {
		c.store(u.String(), head)
		return head, nil
	}

	resp, err := c.request(ctx, http.MethodGet, u.String())
	if err != nil {
		// HEAD worked but GET failed; fall back to cache before giving
		// up on the direct path.
		if cached, cacheErr := c.cache.GetResponse(u.String()); cacheErr == nil && cached != nil {
			return cached, nil
		}
		return nil, err
	}

	c.store(u.String(), resp)
	return resp, nil
}

func (c *Client) viaProxy(ctx context.Context, u *url.URL) (*Response, error) {
	proxyURL := c.proxyBase + "/proxy/" + ProxyPath(u)

	resp, err := c.request(ctx, http.MethodGet, proxyURL)
	if err != nil {
		return nil, err
	}

	// The response represents the origin resource, not the proxy URL.
	resp.URL = u.String()
	c.store(u.String(), resp)
	return resp, nil
}

func (c *Client) request(ctx context.Context, method, target string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", c.accept)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch resource: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	effective := target
	if resp.Request != nil && resp.Request.URL != nil {
		effective = resp.Request.URL.String()
	}

	return &Response{
		URL:         effective,
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

func (c *Client) store(key string, resp *Response) {
	if err := c.cache.PutResponse(key, resp); err != nil {
		slog.Warn("Failed to cache response", "url", key, "error", err)
	}
}

// ProxyPath encodes a URL into the proxy's path form:
// "{host}" for origin roots, "{host}/{base64url-path}" otherwise.
func ProxyPath(u *url.URL) string {
	path := strings.TrimPrefix(u.String(), u.Scheme+"://"+u.Host)
	if path == "" || path == "/" {
		return u.Host
	}
	return u.Host + "/" + base64.RawURLEncoding.EncodeToString([]byte(path[1:]))
}

// secureURL parses a resource reference and forces the https scheme;
// requests are only ever made over TLS.
func secureURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse resource URL: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("resource URL has no host: %s", rawURL)
	}
	u.Scheme = "https"
	return u, nil
}
