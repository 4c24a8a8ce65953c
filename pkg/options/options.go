package options

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"igfeed/pkg/sanitize"
)

// Name is the persisted option holding the plugin settings
const Name = "instagram_scraper_options"

// Clamp ranges
const (
	MinColumns       = 1
	MaxColumns       = 4
	MinPostCount     = 1
	MaxPostCount     = 24
	MinCacheDuration = 3600
	MaxCacheDuration = 604800

	DefaultColumns       = 3
	DefaultImageSize     = "medium"
	DefaultPostCount     = 12
	DefaultCacheDuration = 3600
)

// ImageSizes lists the accepted image size names
var ImageSizes = []string{"thumbnail", "medium", "large", "full"}

// Options is the persisted plugin configuration
type Options struct {
	FeedURL       string `json:"feed_url"`
	Columns       int    `json:"columns"`
	ImageSize     string `json:"image_size"`
	PostCount     int    `json:"post_count"`
	CacheDuration int    `json:"cache_duration"`
	LastUpdated   int64  `json:"last_updated"`
}

// Defaults returns the options seeded on activation
func Defaults() Options {
	return Options{
		FeedURL:       "",
		Columns:       DefaultColumns,
		ImageSize:     DefaultImageSize,
		PostCount:     DefaultPostCount,
		CacheDuration: DefaultCacheDuration,
		LastUpdated:   0,
	}
}

// CacheTTL returns the cache duration, never below one hour even if the
// stored value was corrupted.
func (o Options) CacheTTL() time.Duration {
	return time.Duration(max(o.CacheDuration, MinCacheDuration)) * time.Second
}

// Limit returns the number of posts a refresh keeps
func (o Options) Limit() int {
	if o.PostCount <= 0 {
		return DefaultPostCount
	}
	return o.PostCount
}

// Input holds raw submitted settings fields; a missing key means the field was not submitted
type Input map[string]string

// Validate builds clamped options from submitted fields.
// LastUpdated is carried over from prior.
func Validate(in Input, prior Options) Options {
	valid := Options{
		FeedURL:       sanitize.URL(in["feed_url"]),
		Columns:       clamp(intField(in, "columns", DefaultColumns), MinColumns, MaxColumns),
		ImageSize:     DefaultImageSize,
		PostCount:     clamp(intField(in, "post_count", DefaultPostCount), MinPostCount, MaxPostCount),
		CacheDuration: clamp(intField(in, "cache_duration", DefaultCacheDuration), MinCacheDuration, MaxCacheDuration),
		LastUpdated:   prior.LastUpdated,
	}

	if size, ok := in["image_size"]; ok && slices.Contains(ImageSizes, size) {
		valid.ImageSize = size
	}

	return valid
}

// Input converts options back into submittable fields
func (o Options) Input() Input {
	return Input{
		"feed_url":       o.FeedURL,
		"columns":        strconv.Itoa(o.Columns),
		"image_size":     o.ImageSize,
		"post_count":     strconv.Itoa(o.PostCount),
		"cache_duration": strconv.Itoa(o.CacheDuration),
	}
}

func intField(in Input, key string, def int) int {
	v, ok := in[key]
	if !ok {
		return def
	}
	return Intval(v)
}

// Intval reads the leading integer of s; anything unparsable is 0
func Intval(s string) int {
	s = strings.TrimLeft(s, " \t\n\r\v\f")

	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		// out of range: saturate
		if s[0] == '-' {
			return math.MinInt
		}
		return math.MaxInt
	}
	return n
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
