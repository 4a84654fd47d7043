package admin

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mqforge/busadmin/pkg/atom"
)

// EntityStatus is the administrative state of a messaging entity.
type EntityStatus string

const (
	// StatusActive accepts sends and receives.
	StatusActive EntityStatus = "Active"

	// StatusDisabled rejects both sends and receives.
	StatusDisabled EntityStatus = "Disabled"

	// StatusSendDisabled rejects sends but allows receives.
	StatusSendDisabled EntityStatus = "SendDisabled"

	// StatusReceiveDisabled allows sends but rejects receives.
	StatusReceiveDisabled EntityStatus = "ReceiveDisabled"
)

// countDetailsXML carries the per-subqueue message counts of runtime shapes.
type countDetailsXML struct {
	ActiveMessageCount             int64 `xml:"ActiveMessageCount"`
	DeadLetterMessageCount         int64 `xml:"DeadLetterMessageCount"`
	ScheduledMessageCount          int64 `xml:"ScheduledMessageCount"`
	TransferMessageCount           int64 `xml:"TransferMessageCount"`
	TransferDeadLetterMessageCount int64 `xml:"TransferDeadLetterMessageCount"`
}

// entryName resolves an entry's resource name: the title when present, else
// the last path segment of the entry id. List feeds populate titles; some
// single-entity responses only carry the id.
func entryName(entry *atom.Entry) string {
	if entry.Title != "" {
		return entry.Title
	}
	u, err := url.Parse(entry.ID)
	if err != nil {
		return ""
	}
	path := strings.Trim(u.Path, "/")
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		path = path[i+1:]
	}
	return path
}

// unmarshalContent decodes an entry's payload into a kind-specific wire
// struct.
func unmarshalContent(entry *atom.Entry, v any) error {
	if entry.Content == nil || len(entry.Content.Body) == 0 {
		return fmt.Errorf("entry %q has no content", entry.Title)
	}
	if err := xml.Unmarshal(entry.Content.Body, v); err != nil {
		return fmt.Errorf("decode entry %q: %w", entry.Title, err)
	}
	return nil
}

// timeVal dereferences an optional wire timestamp.
func timeVal(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// durToXML renders a duration field, omitting unset values.
func durToXML(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return atom.FormatDuration(d)
}

// durFromXML parses a duration field; empty or malformed values stay zero so
// one odd field does not reject the whole description.
func durFromXML(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := atom.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
