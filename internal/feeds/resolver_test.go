package feeds

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joetm/ckanext-feeds/internal/models"
)

// fakeDetailLister returns canned details per activity ID.
type fakeDetailLister struct {
	details map[string][]models.ActivityDetail
	calls   int
}

func (f *fakeDetailLister) DetailList(_ context.Context, activityID string) ([]models.ActivityDetail, error) {
	f.calls++
	return f.details[activityID], nil
}

func newTestResolver(details *fakeDetailLister) *Resolver {
	if details == nil {
		details = &fakeDetailLister{}
	}
	return NewResolver(DefaultTemplates(), newTestRegistry(), details)
}

func packageActivity(activityType string) models.Activity {
	return models.Activity{
		ID:           "a-1",
		ActivityType: activityType,
		UserID:       "u-1",
		ObjectID:     "obj-1",
		RevisionID:   "rev-1",
		Timestamp:    "2016-06-30T15:42:52.663910",
		Data: map[string]any{
			"package": map[string]any{"name": "test-dataset"},
		},
	}
}

func TestResolveNewPackage(t *testing.T) {
	resolver := newTestResolver(nil)

	got, err := resolver.Resolve(context.Background(), noopTranslator{}, packageActivity("new package"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	want := ResolvedActivity{
		Msg:        "{actor} created the dataset {dataset}",
		RevisionID: "rev-1",
		ObjectID:   "obj-1",
		Type:       "new-package",
		Title:      "New Package",
		Data: map[string]string{
			"actor":   "alice",
			"dataset": "http://example.org/dataset/test-dataset",
		},
		Timestamp: "2016-06-30T15:42:52.663910",
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resolve mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveUnknownActivityType(t *testing.T) {
	resolver := newTestResolver(nil)

	_, err := resolver.Resolve(context.Background(), noopTranslator{}, packageActivity("exploded package"))

	var unimplemented UnimplementedError
	if !errors.As(err, &unimplemented) {
		t.Fatalf("expected UnimplementedError, got %v", err)
	}
	if unimplemented.ActivityType != "exploded package" {
		t.Errorf("UnimplementedError.ActivityType = %q, want %q", unimplemented.ActivityType, "exploded package")
	}
}

func TestResolveSingleDetailRefinesType(t *testing.T) {
	details := &fakeDetailLister{details: map[string][]models.ActivityDetail{
		"a-1": {{
			ActivityType: "new",
			ObjectType:   "Resource",
			Data:         map[string]any{"resource": map[string]any{"url": "test-dataset/resource/r-1"}},
		}},
	}}
	resolver := newTestResolver(details)

	got, err := resolver.Resolve(context.Background(), noopTranslator{}, packageActivity("changed package"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if got.Type != "new-resource" {
		t.Errorf("Type = %q, want %q", got.Type, "new-resource")
	}
	if got.Msg != "{actor} added the resource {resource} to the dataset {dataset}" {
		t.Errorf("unexpected template: %q", got.Msg)
	}
	if got.Data["resource"] != "http://example.org/dataset/test-dataset/resource/r-1" {
		t.Errorf("resource snippet = %q", got.Data["resource"])
	}
}

func TestResolvePackageExtraObjectType(t *testing.T) {
	details := &fakeDetailLister{details: map[string][]models.ActivityDetail{
		"a-1": {{
			ActivityType: "changed",
			ObjectType:   "PackageExtra",
			Data:         map[string]any{"package_extra": map[string]any{"key": "spatial"}},
		}},
	}}
	resolver := newTestResolver(details)

	got, err := resolver.Resolve(context.Background(), noopTranslator{}, packageActivity("changed package"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	// "PackageExtra" maps to "package_extra", not "packageextra"
	if got.Type != "changed-package_extra" {
		t.Errorf("Type = %q, want %q", got.Type, "changed-package_extra")
	}
	if got.Data["extra"] != `"spatial"` {
		t.Errorf("extra snippet = %q, want %q", got.Data["extra"], `"spatial"`)
	}
}

func TestResolveZeroDetailsKeepsActivityType(t *testing.T) {
	resolver := newTestResolver(&fakeDetailLister{})

	got, err := resolver.Resolve(context.Background(), noopTranslator{}, packageActivity("changed package"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if got.Type != "changed-package" {
		t.Errorf("Type = %q, want %q", got.Type, "changed-package")
	}
	if got.Msg != "{actor} updated the dataset {dataset}" {
		t.Errorf("unexpected template: %q", got.Msg)
	}
}

func TestResolveMultipleDetailsKeepsActivityType(t *testing.T) {
	details := &fakeDetailLister{details: map[string][]models.ActivityDetail{
		"a-1": {
			{ActivityType: "new", ObjectType: "Resource"},
			{ActivityType: "changed", ObjectType: "Resource"},
		},
	}}
	resolver := newTestResolver(details)

	got, err := resolver.Resolve(context.Background(), noopTranslator{}, packageActivity("changed package"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if got.Type != "changed-package" {
		t.Errorf("Type = %q, want %q", got.Type, "changed-package")
	}
}

func TestResolveSkipsDetailLookupForTypesWithoutDetail(t *testing.T) {
	details := &fakeDetailLister{}
	resolver := newTestResolver(details)

	if _, err := resolver.Resolve(context.Background(), noopTranslator{}, packageActivity("new package")); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if details.calls != 0 {
		t.Errorf("DetailList called %d times, want 0", details.calls)
	}
}

func TestResolveUnrefinedCandidateKeepsType(t *testing.T) {
	// A single detail whose candidate key has no template must not replace
	// the activity type.
	details := &fakeDetailLister{details: map[string][]models.ActivityDetail{
		"a-1": {{ActivityType: "obliterated", ObjectType: "Resource"}},
	}}
	resolver := newTestResolver(details)

	got, err := resolver.Resolve(context.Background(), noopTranslator{}, packageActivity("changed package"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if got.Type != "changed-package" {
		t.Errorf("Type = %q, want %q", got.Type, "changed-package")
	}
}

func TestResolveUsesTranslatedTemplate(t *testing.T) {
	translated := mapTranslator{
		"{actor} created the dataset {dataset}": "{actor} hat den Datensatz {dataset} erstellt",
	}
	resolver := newTestResolver(nil)

	got, err := resolver.Resolve(context.Background(), translated, packageActivity("new package"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if got.Msg != "{actor} hat den Datensatz {dataset} erstellt" {
		t.Errorf("Msg = %q", got.Msg)
	}
	// Placeholders of the translated template are resolved as usual.
	if got.Data["dataset"] != "http://example.org/dataset/test-dataset" {
		t.Errorf("dataset snippet = %q", got.Data["dataset"])
	}
}

// mapTranslator translates from a fixed msgid map.
type mapTranslator map[string]string

func (m mapTranslator) Gettext(msgid string) string {
	if translated, ok := m[msgid]; ok {
		return translated
	}
	return msgid
}
