package feeds

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joetm/ckanext-feeds/internal/models"
)

// DetailLister fetches the detail records attached to one activity.
// Implemented by the activity repository.
type DetailLister interface {
	DetailList(ctx context.Context, activityID string) ([]models.ActivityDetail, error)
}

// ResolvedActivity is the output of resolving one activity: the localized
// message with its {name} markers still intact, plus the substitution map
// computed from the snippet renderers. Final substitution is deferred to the
// transformer so callers can inspect both independently.
type ResolvedActivity struct {
	Msg        string
	RevisionID string
	ObjectID   string
	Type       string
	Title      string
	Data       map[string]string
	Timestamp  string
	IsNew      bool
}

// Resolver selects the message template for an activity and expands every
// placeholder it contains.
type Resolver struct {
	templates *Templates
	registry  *Registry
	details   DetailLister
}

var titleCaser = cases.Title(language.English)

// NewResolver constructs a resolver over the given template table, snippet
// registry and detail-list service.
func NewResolver(templates *Templates, registry *Registry, details DetailLister) *Resolver {
	return &Resolver{
		templates: templates,
		registry:  registry,
		details:   details,
	}
}

// Resolve determines the message template for the activity, refining the
// activity type through its detail record when the activity has exactly one,
// and expands every {name} placeholder through the registry. Any failure is
// fatal; there is no partial result.
func (r *Resolver) Resolve(ctx context.Context, tr Translator, activity models.Activity) (ResolvedActivity, error) {
	activityType := activity.ActivityType

	var detail *models.ActivityDetail
	if r.templates.HasDetail(activityType) {
		details, err := r.details.DetailList(ctx, activity.ID)
		if err != nil {
			return ResolvedActivity{}, fmt.Errorf("detail list for activity %q: %w", activity.ID, err)
		}

		// Refinement applies only when the activity has exactly one detail.
		if len(details) == 1 {
			detail = &details[0]
			objectType := detail.ObjectType
			if objectType == "PackageExtra" {
				objectType = "package_extra"
			}
			candidate := fmt.Sprintf("%s %s", detail.ActivityType, strings.ToLower(objectType))
			if _, ok := r.templates.Lookup(candidate); ok {
				activityType = candidate
			}
		}
	}

	fn, ok := r.templates.Lookup(activityType)
	if !ok {
		return ResolvedActivity{}, UnimplementedError{ActivityType: activityType}
	}

	// Pass one: localized template, {name} markers left literal.
	msg := fn(tr, activity)

	// Pass two: expand each distinct placeholder through the registry.
	data := make(map[string]string)
	for _, match := range placeholderPattern.FindAllStringSubmatch(msg, -1) {
		name := match[1]
		if _, done := data[name]; done {
			continue
		}
		value, err := r.registry.Render(ctx, name, activity, detail)
		if err != nil {
			return ResolvedActivity{}, err
		}
		data[name] = value
	}

	return ResolvedActivity{
		Msg:        msg,
		RevisionID: activity.RevisionID,
		ObjectID:   activity.ObjectID,
		Type:       strings.ToLower(strings.ReplaceAll(activityType, " ", "-")),
		Title:      titleCaser.String(activityType),
		Data:       data,
		Timestamp:  activity.Timestamp,
		IsNew:      activity.IsNew,
	}, nil
}
