package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"igfeed/pkg/config"
	igerrors "igfeed/pkg/errors"
	"igfeed/pkg/logger"
	"igfeed/pkg/models"
)

const maxBodySize = 64 << 20

// Client fetches the JSON feed and its images
type Client struct {
	httpClient   *http.Client
	headers      map[string]string
	feedTimeout  time.Duration
	imageTimeout time.Duration
	logger       logger.Logger
}

// NewClient creates a feed client
func NewClient(cfg config.FeedConfig, log logger.Logger) *Client {
	return &Client{
		httpClient:   &http.Client{},
		headers:      map[string]string{"User-Agent": cfg.UserAgent},
		feedTimeout:  cfg.FetchTimeout,
		imageTimeout: cfg.ImageTimeout,
		logger:       logger.OrDefault(log),
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// Fetch downloads the feed document
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	return c.get(ctx, url, c.feedTimeout, map[string]string{"Accept": "application/json"})
}

// FetchImage downloads one image
func (c *Client) FetchImage(ctx context.Context, url string) ([]byte, error) {
	body, err := c.get(ctx, url, c.imageTimeout, nil)
	if err != nil {
		wrapped := igerrors.Wrap(igerrors.ErrorTypeImageDownload, err, "image download failed")
		wrapped.Code = igerrors.StatusCode(err)
		return nil, wrapped
	}
	return body, nil
}

// get performs one GET bounded by timeout; there are no retries
func (c *Client) get(ctx context.Context, url string, timeout time.Duration, extra map[string]string) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, igerrors.Network(fmt.Errorf("failed to create request: %w", err))
	}
	for key, value := range c.headers {
		if value != "" {
			req.Header.Set(key, value)
		}
	}
	for key, value := range extra {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, igerrors.Network(err)
	}
	defer resp.Body.Close()

	logger.LogRequest(c.logger, req.Method, url, resp.StatusCode, duration)

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, igerrors.HTTPStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, igerrors.Network(fmt.Errorf("failed to read response body: %w", err))
	}

	return body, nil
}

// Parse extracts the posts array from a feed document.
// The document must be a non-empty object whose posts field is an array.
func Parse(body []byte) ([]models.RawPost, error) {
	if !gjson.ValidBytes(body) {
		return nil, igerrors.Parsing("invalid JSON structure")
	}

	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return nil, igerrors.Parsing("invalid JSON structure")
	}

	posts := doc.Get("posts")
	if !posts.IsArray() {
		return nil, igerrors.Parsing("invalid JSON structure")
	}

	items := posts.Array()
	out := make([]models.RawPost, 0, len(items))
	for _, item := range items {
		out = append(out, models.RawPost{Result: item})
	}
	return out, nil
}
