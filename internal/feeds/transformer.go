package feeds

import (
	"context"
	"fmt"
	"time"

	"github.com/joetm/ckanext-feeds/internal/models"
)

// FeedItem is one entry of a feed document, created exactly once per resolved
// activity, in stream order.
type FeedItem struct {
	Title       string
	Link        string
	Description string
	AuthorName  string
	PubDate     time.Time
	UniqueID    string
}

// Transformer turns an ordered activity stream into feed items. Resolution
// failures abort the whole transform; no partial item list is returned.
type Transformer struct {
	resolver *Resolver
	siteURL  string
}

// NewTransformer constructs a transformer rendering entity links against the
// given site base URL.
func NewTransformer(resolver *Resolver, siteURL string) *Transformer {
	return &Transformer{resolver: resolver, siteURL: siteURL}
}

// Run resolves each activity in stream order and builds its feed item.
func (t *Transformer) Run(ctx context.Context, tr Translator, activities []models.Activity) ([]FeedItem, error) {
	items := make([]FeedItem, 0, len(activities))

	for _, activity := range activities {
		resolved, err := t.resolver.Resolve(ctx, tr, activity)
		if err != nil {
			return nil, err
		}

		actor, ok := resolved.Data["actor"]
		if !ok {
			return nil, LookupError{Renderer: "actor", Field: "actor"}
		}

		pubDate, err := time.Parse(models.TimestampLayout, resolved.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("parse activity timestamp %q: %w", resolved.Timestamp, err)
		}

		items = append(items, FeedItem{
			Title:       tr.Gettext(resolved.Title),
			Link:        fmt.Sprintf("%s/revision/%s", t.siteURL, resolved.RevisionID),
			Description: substitute(resolved.Msg, resolved.Data),
			AuthorName:  actor,
			PubDate:     pubDate,
			UniqueID:    resolved.ObjectID,
		})
	}

	return items, nil
}

// substitute fills every {name} marker from the data map. The map is built
// from the markers found during resolution, so every marker has a value.
func substitute(msg string, data map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(msg, func(marker string) string {
		name := marker[1 : len(marker)-1]
		if value, ok := data[name]; ok {
			return value
		}
		return marker
	})
}
