package client

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// totalPages derives the collection's page count from response headers.
// The API advertises X-Total / X-Per-Page on every page; the Link
// header's rel="last" page number is the fallback. Without either the
// collection is a single page.
func totalPages(headers http.Header, fallbackPerPage int) int {
	if totalStr := headers.Get("X-Total"); totalStr != "" {
		if total, err := strconv.Atoi(totalStr); err == nil && total >= 0 {
			perPage := fallbackPerPage
			if ppStr := headers.Get("X-Per-Page"); ppStr != "" {
				if pp, err := strconv.Atoi(ppStr); err == nil && pp > 0 {
					perPage = pp
				}
			}
			if perPage <= 0 {
				return 1
			}
			pages := (total + perPage - 1) / perPage
			if pages < 1 {
				pages = 1
			}
			return pages
		}
	}

	if last := lastPageFromLink(headers.Get("Link")); last > 0 {
		return last
	}

	return 1
}

// lastPageFromLink extracts the page number of the rel="last" link from
// a Link header, 0 when absent or unparseable.
//
// Example: <https://api.example.com/v2/users?page[number]=7>; rel="last"
func lastPageFromLink(link string) int {
	if link == "" {
		return 0
	}

	for _, part := range strings.Split(link, ",") {
		if !strings.Contains(part, `rel="last"`) {
			continue
		}

		open := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if open < 0 || end <= open {
			return 0
		}

		u, err := url.Parse(part[open+1 : end])
		if err != nil {
			return 0
		}

		q := u.Query()
		pageStr := q.Get("page[number]")
		if pageStr == "" {
			pageStr = q.Get("page")
		}

		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			return 0
		}
		return page
	}

	return 0
}

// parseRetryAfter reads a Retry-After header as delay seconds. Zero
// means no usable hint; the caller falls back to computed backoff.
func parseRetryAfter(headers http.Header) time.Duration {
	value := headers.Get("Retry-After")
	if value == "" {
		return 0
	}

	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
