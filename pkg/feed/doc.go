// Package feed fetches and parses the remote JSON post feed.
//
// The feed is a single document:
//
//	{"posts": [{"id": "C1a2B3", "image_url": "https://...", "timestamp": "2024-03-01T10:00:00Z", ...}]}
//
// Each request is bounded by its timeout (feed and image timeouts are
// configured separately) and is never retried. Failures are reported as
// *errors.Error values:
//
//	body, err := client.Fetch(ctx, url)
//	if errors.IsType(err, errors.ErrorTypeHTTPStatus) {
//	    code := errors.StatusCode(err)
//	    ...
//	}
//
// Image downloads wrap the underlying network or status error in an
// image_download error so one bad image only drops its own post.
package feed
