package meta

import (
	"encoding/json"
	"net/http"
	"time"
)

// Time is a time.Time that can be unmarshaled from any of the representations
// the API server is known to emit: RFC 3339, RFC 3339 without a zone, or the
// RFC 1123 "HTTP date" format. It always marshals as RFC 3339.
type Time struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	http.TimeFormat,
	time.RFC1123,
	time.RFC1123Z,
}

// NewTime returns a Time wrapping t.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

func (t *Time) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	if str == "" {
		t.Time = time.Time{}
		return nil
	}
	var err error
	for _, layout := range timeLayouts {
		var parsed time.Time
		if parsed, err = time.Parse(layout, str); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return err
}
