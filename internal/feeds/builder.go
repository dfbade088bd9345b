package feeds

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"
)

// Supported feed formats and the RSS schema versions the builder can emit.
const (
	FormatAtom = "atom"
	FormatRSS  = "rss"

	RSSVersion091 = "0.91"
	RSSVersion201 = "2.01"

	ContentTypeAtom = "application/atom+xml"
	ContentTypeRSS  = "application/rss+xml"
)

// Metadata holds the feed-level fields of a feed document.
type Metadata struct {
	Title       string
	Link        string
	Description string
	Language    string
}

// Builder accumulates feed items and serializes them into an RSS or Atom
// document. A builder is single use: it is created per request, items are
// appended in call order, and it is terminal once serialized.
type Builder struct {
	format      string
	rssVersion  string
	meta        Metadata
	items       []FeedItem
	contentType string
	serialized  bool
}

// NewBuilder creates an empty feed document of the requested schema. The RSS
// version only applies to the rss format; any value other than "0.91" selects
// the RSS 2.01 schema. An unsupported format yields an UnknownFormatError.
func NewBuilder(format, rssVersion string, meta Metadata) (*Builder, error) {
	b := &Builder{format: format, meta: meta}

	switch format {
	case FormatAtom:
		b.contentType = ContentTypeAtom
	case FormatRSS:
		b.contentType = ContentTypeRSS
		if rssVersion == RSSVersion091 {
			b.rssVersion = RSSVersion091
		} else {
			b.rssVersion = RSSVersion201
		}
	default:
		return nil, UnknownFormatError{Format: format}
	}

	return b, nil
}

// ContentType reports the MIME type the serialized document will carry.
func (b *Builder) ContentType() string {
	return b.contentType
}

// AddItem appends a feed item. Items are emitted in call order.
func (b *Builder) AddItem(item FeedItem) error {
	if b.serialized {
		return fmt.Errorf("feed document already serialized")
	}
	b.items = append(b.items, item)
	return nil
}

// Serialize renders the document to UTF-8 bytes and returns them with the
// content type. The builder is terminal afterwards.
func (b *Builder) Serialize() ([]byte, string, error) {
	if b.serialized {
		return nil, "", fmt.Errorf("feed document already serialized")
	}
	b.serialized = true

	var doc any
	switch {
	case b.format == FormatAtom:
		doc = b.atomDocument()
	case b.rssVersion == RSSVersion091:
		doc = b.rss091Document()
	default:
		doc = b.rss201Document()
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, "", fmt.Errorf("encode %s feed: %w", b.format, err)
	}

	return buf.Bytes(), b.contentType, nil
}

// lastUpdated is the newest item timestamp, falling back to the current time
// for an empty document.
func (b *Builder) lastUpdated() time.Time {
	if len(b.items) == 0 {
		return time.Now()
	}
	latest := b.items[0].PubDate
	for _, item := range b.items[1:] {
		if item.PubDate.After(latest) {
			latest = item.PubDate
		}
	}
	return latest
}

// RSS 2.0 document structures. The 2.01 schema carries item authorship via
// dc:creator, matching common syndication practice for name-only authors.
type rss201 struct {
	XMLName xml.Name    `xml:"rss"`
	Version string      `xml:"version,attr"`
	XMLNSDC string      `xml:"xmlns:dc,attr"`
	Channel *rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string     `xml:"title"`
	Link          string     `xml:"link"`
	Description   string     `xml:"description"`
	Language      string     `xml:"language,omitempty"`
	LastBuildDate string     `xml:"lastBuildDate,omitempty"`
	Items         []*rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Creator     string `xml:"dc:creator,omitempty"`
	PubDate     string `xml:"pubDate,omitempty"`
	GUID        string `xml:"guid,omitempty"`
}

func (b *Builder) rss201Document() *rss201 {
	channel := &rssChannel{
		Title:         b.meta.Title,
		Link:          b.meta.Link,
		Description:   b.meta.Description,
		Language:      b.meta.Language,
		LastBuildDate: b.lastUpdated().Format(time.RFC1123Z),
		Items:         make([]*rssItem, 0, len(b.items)),
	}

	for _, item := range b.items {
		channel.Items = append(channel.Items, &rssItem{
			Title:       item.Title,
			Link:        item.Link,
			Description: item.Description,
			Creator:     item.AuthorName,
			PubDate:     item.PubDate.Format(time.RFC1123Z),
			GUID:        item.UniqueID,
		})
	}

	return &rss201{
		Version: "2.0",
		XMLNSDC: "http://purl.org/dc/elements/1.1/",
		Channel: channel,
	}
}

// RSS 0.91 legacy schema: channel metadata plus bare title/link/description
// items, no per-item dates, authors or identifiers.
type rss091 struct {
	XMLName xml.Name       `xml:"rss"`
	Version string         `xml:"version,attr"`
	Channel *rss091Channel `xml:"channel"`
}

type rss091Channel struct {
	Title       string        `xml:"title"`
	Link        string        `xml:"link"`
	Description string        `xml:"description"`
	Language    string        `xml:"language,omitempty"`
	Items       []*rss091Item `xml:"item"`
}

type rss091Item struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
}

func (b *Builder) rss091Document() *rss091 {
	channel := &rss091Channel{
		Title:       b.meta.Title,
		Link:        b.meta.Link,
		Description: b.meta.Description,
		Language:    b.meta.Language,
		Items:       make([]*rss091Item, 0, len(b.items)),
	}

	for _, item := range b.items {
		channel.Items = append(channel.Items, &rss091Item{
			Title:       item.Title,
			Link:        item.Link,
			Description: item.Description,
		})
	}

	return &rss091{Version: "0.91", Channel: channel}
}

// Atom 1.0 document structures.
type atomFeed struct {
	XMLName  xml.Name     `xml:"feed"`
	XMLNS    string       `xml:"xmlns,attr"`
	Language string       `xml:"xml:lang,attr,omitempty"`
	Title    string       `xml:"title"`
	Link     *atomLink    `xml:"link"`
	ID       string       `xml:"id"`
	Updated  string       `xml:"updated"`
	Subtitle string       `xml:"subtitle,omitempty"`
	Entries  []*atomEntry `xml:"entry"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr,omitempty"`
}

type atomEntry struct {
	Title     string      `xml:"title"`
	Link      *atomLink   `xml:"link"`
	ID        string      `xml:"id"`
	Updated   string      `xml:"updated"`
	Published string      `xml:"published"`
	Author    *atomAuthor `xml:"author,omitempty"`
	Summary   string      `xml:"summary"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

func (b *Builder) atomDocument() *atomFeed {
	feed := &atomFeed{
		XMLNS:    "http://www.w3.org/2005/Atom",
		Language: b.meta.Language,
		Title:    b.meta.Title,
		Link:     &atomLink{Href: b.meta.Link, Rel: "alternate"},
		ID:       b.meta.Link,
		Updated:  b.lastUpdated().Format(time.RFC3339),
		Subtitle: b.meta.Description,
		Entries:  make([]*atomEntry, 0, len(b.items)),
	}

	for _, item := range b.items {
		entry := &atomEntry{
			Title:     item.Title,
			Link:      &atomLink{Href: item.Link, Rel: "alternate"},
			ID:        item.UniqueID,
			Updated:   item.PubDate.Format(time.RFC3339),
			Published: item.PubDate.Format(time.RFC3339),
			Summary:   item.Description,
		}
		if item.AuthorName != "" {
			entry.Author = &atomAuthor{Name: item.AuthorName}
		}
		feed.Entries = append(feed.Entries, entry)
	}

	return feed
}
