package processor

import (
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"igfeed/pkg/models"
)

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	"January 2, 2006",
	"2 January 2006",
}

// ParseTimestamp parses the feed's timestamp formats.
// Numbers are Unix seconds; strings without a zone are UTC.
func ParseTimestamp(v gjson.Result) (time.Time, bool) {
	switch v.Type {
	case gjson.Number:
		return time.Unix(v.Int(), 0).UTC(), true
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func timestampKey(post models.RawPost) int64 {
	t, ok := ParseTimestamp(post.Get("timestamp"))
	if !ok {
		return 0
	}
	return t.Unix()
}
