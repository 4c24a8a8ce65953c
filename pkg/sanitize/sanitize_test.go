package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"trims", "  hello  ", "hello"},
		{"collapses newlines", "line one\r\nline\ttwo", "line one line two"},
		{"strips tags", "<b>bold</b> and <i>italic</i>", "bold and italic"},
		{"drops script body", "<script>alert(1)</script>safe", "safe"},
		{"drops style body", "<style>p{}</style>text", "text"},
		{"decodes entities", "Tom &amp; Jerry", "Tom & Jerry"},
		{"removes octets", "100%25 sure%0a", "100 sure"},
		{"drops control chars", "a\x00b\x07c", "abc"},
		{"drops invalid utf8", "ok\xffok", "okok"},
		{"keeps unicode", "café ☕ #coffee", "café ☕ #coffee"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}

func TestTextarea(t *testing.T) {
	assert.Equal(t, "first line\nsecond line", Textarea("  first line\r\nsecond line  "))
	assert.Equal(t, "caption\n\n#tag", Textarea("<p>caption</p>\n\n#tag"))
	assert.Equal(t, "no\nscript", Textarea("no\n<script>x()</script>script"))
}

func TestTexts(t *testing.T) {
	assert.Equal(t, []string{"go", "feed"}, Texts([]string{" go ", "<em>feed</em>"}))
	assert.Equal(t, []string{}, Texts(nil))
}

func TestURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://storage.googleapis.com/bucket/posts.json", "https://storage.googleapis.com/bucket/posts.json"},
		{"  HTTP://example.com/a.jpg  ", "http://example.com/a.jpg"},
		{"example.com/feed.json", "http://example.com/feed.json"},
		{"example.com:8080/feed.json", "http://example.com:8080/feed.json"},
		{"https://exa mple.com/a b.jpg", "https://example.com/ab.jpg"},
		{"javascript:alert(1)", ""},
		{"ftp://example.com/file", ""},
		{"/relative/path", ""},
		{"https://", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, URL(tt.in))
		})
	}
}
