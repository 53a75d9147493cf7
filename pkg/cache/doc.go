// Package cache provides an optional Redis-backed cache for fetched
// pages, keyed by resource, page number, and page size.
//
// Entries honor the API's Expires header for TTL and carry the ETag so
// the client can revalidate with If-None-Match. A 304 Not Modified is
// served from the cached payload and refreshes the TTL, which keeps
// repeat runs of the same collection cheap without ever returning stale
// data past its expiry.
//
// Basic usage:
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.Key{Resource: "cursus_users", Page: 2, PageSize: 100}
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// fetch from the API
//	}
//
// The cache is optional: a client constructed without a manager fetches
// every page unconditionally.
package cache
