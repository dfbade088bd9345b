package feeds

import (
	"context"
	"fmt"

	"github.com/joetm/ckanext-feeds/internal/models"
)

// UserLookup resolves a user ID to a user record. Implemented by the user
// repository; lookups are synchronous and uncached.
type UserLookup interface {
	Get(ctx context.Context, id string) (models.User, error)
}

// RendererFunc expands one placeholder for an activity. The detail is nil
// unless the resolver selected exactly one detail record for the activity.
type RendererFunc func(ctx context.Context, activity models.Activity, detail *models.ActivityDetail) (string, error)

// Registry maps placeholder names found in message templates to the snippet
// renderers that expand them. An unregistered name is fatal to the render.
type Registry struct {
	siteURL   string
	users     UserLookup
	renderers map[string]RendererFunc
}

// NewRegistry builds the registry with the ten standard snippet renderers.
func NewRegistry(siteURL string, users UserLookup) *Registry {
	r := &Registry{siteURL: siteURL, users: users}
	r.renderers = map[string]RendererFunc{
		"actor":        r.renderActor,
		"user":         r.renderUser,
		"dataset":      r.renderDataset,
		"tag":          r.renderTag,
		"group":        r.renderGroup,
		"organization": r.renderOrganization,
		"extra":        r.renderExtra,
		"resource":     r.renderResource,
		"related_item": r.renderRelatedItem,
		"related_type": r.renderRelatedType,
	}
	return r
}

// Has reports whether a renderer is registered under the given name.
func (r *Registry) Has(name string) bool {
	_, ok := r.renderers[name]
	return ok
}

// Render expands the named placeholder. Returns a LookupError when the name
// is unregistered or the renderer's required field is absent.
func (r *Registry) Render(ctx context.Context, name string, activity models.Activity, detail *models.ActivityDetail) (string, error) {
	fn, ok := r.renderers[name]
	if !ok {
		return "", LookupError{Renderer: name}
	}
	return fn(ctx, activity, detail)
}

func (r *Registry) renderActor(ctx context.Context, activity models.Activity, _ *models.ActivityDetail) (string, error) {
	user, err := r.users.Get(ctx, activity.UserID)
	if err != nil {
		return "", fmt.Errorf("actor lookup for %q: %w", activity.UserID, err)
	}
	return user.Name, nil
}

func (r *Registry) renderUser(ctx context.Context, activity models.Activity, _ *models.ActivityDetail) (string, error) {
	user, err := r.users.Get(ctx, activity.ObjectID)
	if err != nil {
		return "", fmt.Errorf("user lookup for %q: %w", activity.ObjectID, err)
	}
	return user.Name, nil
}

func (r *Registry) renderDataset(_ context.Context, activity models.Activity, _ *models.ActivityDetail) (string, error) {
	dataset, ok := mapField(activity.Data, "package")
	if !ok {
		dataset, ok = mapField(activity.Data, "dataset")
	}
	if !ok {
		return "", LookupError{Renderer: "dataset", Field: "package"}
	}
	name, ok := stringField(dataset, "name")
	if !ok {
		return "", LookupError{Renderer: "dataset", Field: "package.name"}
	}
	return fmt.Sprintf("%s/dataset/%s", r.siteURL, name), nil
}

func (r *Registry) renderTag(_ context.Context, _ models.Activity, detail *models.ActivityDetail) (string, error) {
	if detail == nil {
		return "", LookupError{Renderer: "tag", Field: "detail"}
	}
	if name, ok := stringField(detail.Data, "tag"); ok {
		return name, nil
	}
	tag, ok := mapField(detail.Data, "tag")
	if !ok {
		return "", LookupError{Renderer: "tag", Field: "tag"}
	}
	name, ok := stringField(tag, "name")
	if !ok {
		return "", LookupError{Renderer: "tag", Field: "tag.name"}
	}
	return name, nil
}

func (r *Registry) renderGroup(_ context.Context, activity models.Activity, _ *models.ActivityDetail) (string, error) {
	return groupDisplayName(activity, "group")
}

func (r *Registry) renderOrganization(_ context.Context, activity models.Activity, _ *models.ActivityDetail) (string, error) {
	// Organizations are stored under the "group" key like groups are.
	return groupDisplayName(activity, "organization")
}

func (r *Registry) renderExtra(_ context.Context, _ models.Activity, detail *models.ActivityDetail) (string, error) {
	if detail == nil {
		return "", LookupError{Renderer: "extra", Field: "detail"}
	}
	extra, ok := mapField(detail.Data, "package_extra")
	if !ok {
		return "", LookupError{Renderer: "extra", Field: "package_extra"}
	}
	key, ok := stringField(extra, "key")
	if !ok {
		return "", LookupError{Renderer: "extra", Field: "package_extra.key"}
	}
	return fmt.Sprintf("%q", key), nil
}

func (r *Registry) renderResource(_ context.Context, _ models.Activity, detail *models.ActivityDetail) (string, error) {
	if detail == nil {
		return "", LookupError{Renderer: "resource", Field: "detail"}
	}
	resource, ok := mapField(detail.Data, "resource")
	if !ok {
		return "", LookupError{Renderer: "resource", Field: "resource"}
	}
	relpath, ok := stringField(resource, "url")
	if !ok {
		return "", LookupError{Renderer: "resource", Field: "resource.url"}
	}
	return fmt.Sprintf("%s/dataset/%s", r.siteURL, relpath), nil
}

func (r *Registry) renderRelatedItem(_ context.Context, activity models.Activity, _ *models.ActivityDetail) (string, error) {
	related, ok := mapField(activity.Data, "related")
	if !ok {
		return "", LookupError{Renderer: "related_item", Field: "related"}
	}
	if title, ok := stringField(related, "title"); ok {
		return title, nil
	}
	if name, ok := stringField(related, "name"); ok {
		return name, nil
	}
	return "", LookupError{Renderer: "related_item", Field: "related.title"}
}

func (r *Registry) renderRelatedType(_ context.Context, activity models.Activity, _ *models.ActivityDetail) (string, error) {
	related, ok := mapField(activity.Data, "related")
	if !ok {
		return "", LookupError{Renderer: "related_type", Field: "related"}
	}
	typ, ok := stringField(related, "type")
	if !ok {
		return "", LookupError{Renderer: "related_type", Field: "related.type"}
	}
	return typ, nil
}

// groupDisplayName prefers the stored title and falls back to the name.
func groupDisplayName(activity models.Activity, renderer string) (string, error) {
	group, ok := mapField(activity.Data, "group")
	if !ok {
		return "", LookupError{Renderer: renderer, Field: "group"}
	}
	if title, ok := stringField(group, "title"); ok && title != "" {
		return title, nil
	}
	if name, ok := stringField(group, "name"); ok {
		return name, nil
	}
	return "", LookupError{Renderer: renderer, Field: "group.name"}
}

func mapField(data map[string]any, key string) (map[string]any, bool) {
	if data == nil {
		return nil, false
	}
	m, ok := data[key].(map[string]any)
	return m, ok
}

func stringField(data map[string]any, key string) (string, bool) {
	if data == nil {
		return "", false
	}
	s, ok := data[key].(string)
	return s, ok
}
