package resource

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// SafeAssetURL resolves href against base and returns the absolute URL,
// or "" when the result is not safe to surface as an asset. Only https:
// URLs are considered safe.
func SafeAssetURL(href string, base *url.URL) string {
	if href == "" {
		return ""
	}

	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}

	resolved := ref
	if base != nil {
		resolved = base.ResolveReference(ref)
	}

	if resolved.Scheme != "https" {
		return ""
	}

	return resolved.String()
}

// AssetLink wraps a safe asset URL into a Link, or nil when the URL is
// absent or unsafe.
func AssetLink(href string, base *url.URL) *Link {
	safe := SafeAssetURL(href, base)
	if safe == "" {
		return nil
	}
	return &Link{Href: safe}
}

// ResolveURL resolves href against base without the https restriction,
// for canonical resource locations rather than assets.
func ResolveURL(href string, base *url.URL) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if !ref.IsAbs() {
		return ""
	}
	return ref.String()
}

// IsAbsoluteURL reports whether raw parses as an absolute http(s) URL,
// the test applied to source GUIDs and entry ids before they are
// trusted as object identifiers.
func IsAbsoluteURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return u.IsAbs() && u.Host != "" && (u.Scheme == "http" || u.Scheme == "https")
}

// Path encodes a resource URL into the app's routing form:
// "/{host}" for origin roots, "/{host}/{base64url-path}" otherwise.
func Path(resource string) (string, error) {
	u, err := url.Parse(resource)
	if err != nil {
		return "", fmt.Errorf("failed to parse resource URL: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("resource URL has no host: %s", resource)
	}

	path := strings.TrimPrefix(u.String(), u.Scheme+"://"+u.Host)
	if path == "" || path == "/" {
		return "/" + u.Host, nil
	}

	encoded := base64.RawURLEncoding.EncodeToString([]byte(path[1:]))
	return "/" + u.Host + "/" + encoded, nil
}

// ParsePath is the inverse of Path: given a host and an optional
// base64url-encoded path segment, it reconstructs the https resource
// URL.
func ParsePath(host, encoded string) (string, error) {
	if host == "" {
		return "", fmt.Errorf("host is required")
	}

	path := "/"
	if encoded != "" {
		decoded, err := base64.RawURLEncoding.DecodeString(encoded)
		if err != nil {
			return "", fmt.Errorf("failed to decode path segment: %w", err)
		}
		path = "/" + string(decoded)
	}

	u := url.URL{Scheme: "https", Host: host, Path: ""}
	return u.String() + path, nil
}
