// Package sanitize cleans untrusted feed values before they are cached.
package sanitize

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var (
	octets     = regexp.MustCompile(`%[a-fA-F0-9]{2}`)
	whitespace = regexp.MustCompile(`[\r\n\t ]+`)
)

// Text cleans a single-line field: tags are stripped, whitespace including
// line breaks is collapsed, and percent-encoded octets are removed.
func Text(s string) string {
	return clean(s, false)
}

// Textarea cleans a multi-line field the same way as Text but keeps line breaks.
func Textarea(s string) string {
	return clean(s, true)
}

// Texts applies Text to every element
func Texts(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, Text(s))
	}
	return out
}

func clean(s string, keepNewlines bool) string {
	s = strings.ToValidUTF8(s, "")
	if s == "" {
		return ""
	}

	s = StripTags(s)
	s = stripControl(s, keepNewlines)
	if !keepNewlines {
		s = whitespace.ReplaceAllString(s, " ")
	}

	for octets.MatchString(s) {
		s = octets.ReplaceAllString(s, "")
	}

	return strings.TrimSpace(s)
}

// StripTags removes all markup, dropping the contents of script and style elements
func StripTags(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("script, style").Remove()

	return doc.Text()
}

func stripControl(s string, keepNewlines bool) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == '\r':
			if keepNewlines {
				return -1
			}
			return r
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, s)
}

// URL normalizes an absolute http(s) URL.
// Scheme-less host names get http:// prepended; anything else that is not
// http or https with a host yields "".
func URL(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, raw)
	if raw == "" {
		return ""
	}

	if !strings.Contains(raw, "://") && !strings.HasPrefix(raw, "/") && !strings.ContainsAny(raw[:1], "#?") {
		if i := strings.IndexByte(raw, ':'); i < 0 || strings.ContainsAny(raw[:i], "./") {
			raw = "http://" + raw
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ""
	}
	if u.Host == "" {
		return ""
	}

	u.Scheme = scheme
	return u.String()
}
