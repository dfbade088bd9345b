package feeds

import (
	"fmt"
	"regexp"

	"github.com/joetm/ckanext-feeds/internal/models"
)

// Translator localizes message templates and feed item titles. Translation is
// pass one of the two-pass rendering: the translated string keeps its {name}
// placeholders literal for the registry pass that follows.
type Translator interface {
	Gettext(msgid string) string
}

// TemplateFunc returns the localized message template for one activity. The
// result still contains {name} placeholder markers.
type TemplateFunc func(tr Translator, activity models.Activity) string

// placeholderPattern matches {name} markers inside a message template.
var placeholderPattern = regexp.MustCompile(`\{([^}]*)\}`)

// Templates is the activity-type-to-template table, keyed by activity-type
// string. Lookups against an unknown key are fatal to a feed render.
type Templates struct {
	funcs      map[string]TemplateFunc
	withDetail map[string]struct{}
}

func template(msgid string) TemplateFunc {
	return func(tr Translator, _ models.Activity) string {
		return tr.Gettext(msgid)
	}
}

// NewTemplates builds a template table from an externally supplied mapping
// and the set of activity types whose details may refine template selection.
func NewTemplates(funcs map[string]TemplateFunc, withDetail []string) *Templates {
	t := &Templates{
		funcs:      funcs,
		withDetail: make(map[string]struct{}, len(withDetail)),
	}
	for _, activityType := range withDetail {
		t.withDetail[activityType] = struct{}{}
	}
	return t
}

// DefaultTemplates returns the standard activity-stream template table.
func DefaultTemplates() *Templates {
	return &Templates{
		funcs: map[string]TemplateFunc{
			"added tag":             template("{actor} added the tag {tag} to the dataset {dataset}"),
			"changed group":         template("{actor} updated the group {group}"),
			"changed organization":  template("{actor} updated the organization {organization}"),
			"changed package":       template("{actor} updated the dataset {dataset}"),
			"changed package_extra": template("{actor} changed the extra {extra} of the dataset {dataset}"),
			"changed resource":      template("{actor} updated the resource {resource} in the dataset {dataset}"),
			"changed user":          template("{actor} updated their profile"),
			"deleted group":         template("{actor} deleted the group {group}"),
			"deleted organization":  template("{actor} deleted the organization {organization}"),
			"deleted package":       template("{actor} deleted the dataset {dataset}"),
			"deleted package_extra": template("{actor} deleted the extra {extra} from the dataset {dataset}"),
			"deleted resource":      template("{actor} deleted the resource {resource} from the dataset {dataset}"),
			"new group":             template("{actor} created the group {group}"),
			"new organization":      template("{actor} created the organization {organization}"),
			"new package":           template("{actor} created the dataset {dataset}"),
			"new package_extra":     template("{actor} added the extra {extra} to the dataset {dataset}"),
			"new resource":          template("{actor} added the resource {resource} to the dataset {dataset}"),
			"new user":              template("{actor} signed up"),
			"removed tag":           template("{actor} removed the tag {tag} from the dataset {dataset}"),
			"new related item":      template("{actor} created the link to related {related_type} {related_item}"),
			"deleted related item":  template("{actor} deleted the link to related {related_type} {related_item}"),
			"follow dataset":        template("{actor} started following {dataset}"),
			"follow user":           template("{actor} started following {user}"),
			"follow group":          template("{actor} started following {group}"),
		},
		withDetail: map[string]struct{}{
			"changed package": {},
		},
	}
}

// Lookup returns the template function for the activity type, or false when
// no template is registered.
func (t *Templates) Lookup(activityType string) (TemplateFunc, bool) {
	fn, ok := t.funcs[activityType]
	return fn, ok
}

// HasDetail reports whether activities of this type may carry detail records
// that refine template selection.
func (t *Templates) HasDetail(activityType string) bool {
	_, ok := t.withDetail[activityType]
	return ok
}

// Validate checks that every placeholder in every registered template resolves
// to a registered snippet renderer and that every template carries the {actor}
// placeholder the feed item author field depends on. Run once at startup.
func (t *Templates) Validate(reg *Registry) error {
	for activityType, fn := range t.funcs {
		msg := fn(noopTranslator{}, models.Activity{})
		hasActor := false
		for _, match := range placeholderPattern.FindAllStringSubmatch(msg, -1) {
			name := match[1]
			if !reg.Has(name) {
				return fmt.Errorf("template %q: %w", activityType, LookupError{Renderer: name})
			}
			if name == "actor" {
				hasActor = true
			}
		}
		if !hasActor {
			return fmt.Errorf("template %q has no {actor} placeholder", activityType)
		}
	}
	return nil
}

// noopTranslator returns msgids unchanged, for placeholder inspection.
type noopTranslator struct{}

func (noopTranslator) Gettext(msgid string) string { return msgid }
