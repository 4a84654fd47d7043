// Package atom implements the Atom envelope used by the management API:
// list responses are feeds of entries, single resources are entries whose
// content carries the kind-specific XML payload.
package atom

import (
	"encoding/xml"
	"fmt"
	"time"
)

// Feed is a list response envelope.
type Feed struct {
	XMLName xml.Name  `xml:"http://www.w3.org/2005/Atom feed"`
	Title   string    `xml:"title"`
	ID      string    `xml:"id"`
	Updated time.Time `xml:"updated"`
	Links   []Link    `xml:"link"`
	Entries []Entry   `xml:"entry"`
}

// Entry is a single-resource envelope. Content.Body holds the raw inner XML
// for the kind-specific decoder.
type Entry struct {
	XMLName   xml.Name  `xml:"http://www.w3.org/2005/Atom entry"`
	ID        string    `xml:"id"`
	Title     string    `xml:"title"`
	Published time.Time `xml:"published,omitempty"`
	Updated   time.Time `xml:"updated,omitempty"`
	Author    *Author   `xml:"author,omitempty"`
	Links     []Link    `xml:"link"`
	Content   *Content  `xml:"content"`
}

// Link is an Atom link element.
type Link struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

// Author is an Atom author element.
type Author struct {
	Name string `xml:"name"`
}

// Content wraps the kind-specific payload of an entry.
type Content struct {
	Type string `xml:"type,attr"`
	Body []byte `xml:",innerxml"`
}

// NextLink returns the href of the feed's rel="next" link, or "" when the
// feed is the last page.
func (f *Feed) NextLink() string {
	for _, l := range f.Links {
		if l.Rel == "next" {
			return l.Href
		}
	}
	return ""
}

// Name returns the resource name of an entry. The title carries it; some
// responses only populate the id, in which case the caller falls back to
// path parsing.
func (e *Entry) Name() string {
	return e.Title
}

// ParseFeed decodes a list response body. A body whose root element is not a
// feed is a hard shape error reported as *ParseError with the originating
// HTTP status. An empty feed is a valid last (or only) page.
func ParseFeed(body []byte, status int) (*Feed, error) {
	if len(body) == 0 {
		return nil, newParseError(status, "empty body where a feed was expected", body, nil)
	}
	var feed Feed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, newParseError(status, "response is not an Atom feed", body, err)
	}
	return &feed, nil
}

// ParseEntry decodes a single-resource response body. Servers answer some
// single-resource reads with a one-entry feed; both shapes are accepted. An
// empty body or an empty feed returns ErrNoEntry, which the caller promotes
// to its own not-found error.
func ParseEntry(body []byte, status int) (*Entry, error) {
	if len(body) == 0 {
		return nil, ErrNoEntry
	}

	var entry Entry
	if err := xml.Unmarshal(body, &entry); err == nil {
		return &entry, nil
	}

	var feed Feed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, newParseError(status, "response is neither an Atom entry nor a feed", body, err)
	}
	if len(feed.Entries) == 0 {
		return nil, ErrNoEntry
	}
	return &feed.Entries[0], nil
}

// WrapContent renders an entry body for create/update requests around the
// kind-specific payload XML.
func WrapContent(payload []byte) ([]byte, error) {
	entry := struct {
		XMLName xml.Name `xml:"http://www.w3.org/2005/Atom entry"`
		Content *Content `xml:"content"`
	}{
		Content: &Content{
			Type: "application/xml",
			Body: payload,
		},
	}
	out, err := xml.Marshal(&entry)
	if err != nil {
		return nil, fmt.Errorf("marshal atom entry: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
