package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/guregu/null.v3"

	"github.com/user/workdiary-service/internal/entity"
)

const dateLayout = "2006-01-02"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
}

// emptyJSONObject replaces optional JSON input that does not parse.
const emptyJSONObject = "{}"

// ParseTimestamp reads a submitted timestamp and keeps its wall clock, dropping any zone and fraction.
// "2024-01-01T12:00:00.000Z" becomes 2024-01-01 12:00:00.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// FormatTimestamp renders t as YYYY-MM-DD HH:MM:SS.
func FormatTimestamp(t time.Time) string {
	return t.Format(entity.TimestampLayout)
}

// CoerceJSON turns an optional JSON field into its stored text. Absent input stays NULL,
// a JSON string is read as embedded JSON text, and anything that does not parse becomes "{}".
func CoerceJSON(raw json.RawMessage) null.String {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return null.String{}
	}

	payload := trimmed
	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return null.StringFrom(emptyJSONObject)
		}
		payload = []byte(text)
	}

	if !json.Valid(payload) {
		return null.StringFrom(emptyJSONObject)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, payload); err != nil {
		return null.StringFrom(emptyJSONObject)
	}
	return null.StringFrom(buf.String())
}

// dayRange returns the inclusive [00:00:00, 23:59:59] bounds of a YYYY-MM-DD date.
func dayRange(date string) (time.Time, time.Time, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return day, day.Add(24*time.Hour - time.Second), nil
}
