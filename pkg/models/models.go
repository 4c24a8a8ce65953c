package models

import (
	"github.com/tidwall/gjson"
)

// Post is a normalized feed item as stored in the cache
type Post struct {
	InstagramID string   `json:"instagram_id"`
	MediaID     int64    `json:"media_id"`
	Permalink   string   `json:"permalink"`
	Caption     string   `json:"caption"`
	Timestamp   string   `json:"timestamp"`
	URL         string   `json:"url"`
	IsVideo     bool     `json:"is_video"`
	VideoURL    string   `json:"video_url"`
	Likes       int64    `json:"likes"`
	Comments    int64    `json:"comments"`
	Hashtags    []string `json:"hashtags"`
}

// CacheEntry is the single cached feed snapshot
type CacheEntry struct {
	Timestamp int64  `json:"timestamp"`
	Data      []Post `json:"data"`
}

// RawPost is an untyped record from the feed's posts array
type RawPost struct {
	gjson.Result
}

// NewRawPost wraps a raw JSON object
func NewRawPost(raw string) RawPost {
	return RawPost{gjson.Parse(raw)}
}

// Str returns a string field, or "" when missing.
// Numbers and booleans are returned in their JSON text form.
func (p RawPost) Str(field string) string {
	v := p.Get(field)
	if !v.Exists() || v.Type == gjson.Null {
		return ""
	}
	return v.String()
}

// Bool follows loose truthiness: true, non-zero numbers and non-empty strings other than "0"
func (p RawPost) Bool(field string) bool {
	v := p.Get(field)
	switch v.Type {
	case gjson.True:
		return true
	case gjson.Number:
		return v.Float() != 0
	case gjson.String:
		return v.Str != "" && v.Str != "0"
	case gjson.JSON:
		return len(v.Array()) > 0 || len(v.Map()) > 0
	default:
		return false
	}
}

// Int returns an integer field, or 0 when missing or not numeric
func (p RawPost) Int(field string) int64 {
	return p.Get(field).Int()
}

// Strings returns the string elements of an array field
func (p RawPost) Strings(field string) []string {
	v := p.Get(field)
	if !v.IsArray() {
		return []string{}
	}
	items := v.Array()
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item.Type == gjson.JSON {
			continue
		}
		out = append(out, item.String())
	}
	return out
}
