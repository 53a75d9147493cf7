package cache

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultTTL is the fallback TTL when a response has no Expires header.
const DefaultTTL = 5 * time.Minute

// Entry is a cached page payload.
type Entry struct {
	// Data is the page body as returned by the API.
	Data []byte `json:"data"`

	// ETag for conditional requests (If-None-Match).
	ETag string `json:"etag"`

	// Expires is when the entry becomes stale (from the Expires header).
	Expires time.Time `json:"expires"`

	// TotalPages is the collection page count observed when the page
	// was fetched, so a revalidated hit can answer the probe too.
	TotalPages int `json:"total_pages"`

	// CachedAt is when the entry was stored.
	CachedAt time.Time `json:"cached_at"`
}

// IsExpired returns true if the entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration, 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// NewEntry builds an entry from a fetched page and its response
// headers. The Expires header drives the TTL; absent or unparseable
// headers fall back to DefaultTTL.
func NewEntry(data []byte, headers http.Header, totalPages int) *Entry {
	return &Entry{
		Data:       data,
		ETag:       headers.Get("ETag"),
		Expires:    parseExpires(headers),
		TotalPages: totalPages,
		CachedAt:   time.Now(),
	}
}

// parseExpires parses the Expires header, falling back to DefaultTTL.
func parseExpires(headers http.Header) time.Time {
	expiresStr := headers.Get("Expires")
	if expiresStr == "" {
		return time.Now().Add(DefaultTTL)
	}

	expires, err := http.ParseTime(expiresStr)
	if err != nil {
		return time.Now().Add(DefaultTTL)
	}

	if expires.Before(time.Now()) {
		return time.Now()
	}
	return expires
}

// Key identifies one cached page.
type Key struct {
	// Resource is the API resource path, possibly with filter query
	// parameters (e.g. "cursus_users?filter[campus_id]=31").
	Resource string

	// Page is the page number.
	Page int

	// PageSize is the page size the page was fetched with. Different
	// sizes slice the collection differently, so they never share
	// entries.
	PageSize int
}

// String generates a deterministic Redis key.
// Format: intra:<resource>:page=<n>:size=<m>
func (k Key) String() string {
	resource := strings.Trim(k.Resource, "/")
	return fmt.Sprintf("intra:%s:page=%d:size=%d", resource, k.Page, k.PageSize)
}
