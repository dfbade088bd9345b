package feeds

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultTemplatesValidate(t *testing.T) {
	if err := DefaultTemplates().Validate(newTestRegistry()); err != nil {
		t.Fatalf("default templates failed validation: %v", err)
	}
}

func TestValidateRejectsUnknownPlaceholder(t *testing.T) {
	templates := NewTemplates(map[string]TemplateFunc{
		"new package": template("{actor} created {widget}"),
	}, nil)

	err := templates.Validate(newTestRegistry())

	var lookupErr LookupError
	if !errors.As(err, &lookupErr) {
		t.Fatalf("expected LookupError, got %v", err)
	}
	if lookupErr.Renderer != "widget" {
		t.Errorf("LookupError.Renderer = %q, want %q", lookupErr.Renderer, "widget")
	}
	if !strings.Contains(err.Error(), `"new package"`) {
		t.Errorf("error does not name the offending template: %v", err)
	}
}

func TestValidateRequiresActorPlaceholder(t *testing.T) {
	templates := NewTemplates(map[string]TemplateFunc{
		"new package": template("the dataset {dataset} appeared"),
	}, nil)

	err := templates.Validate(newTestRegistry())
	if err == nil {
		t.Fatal("expected validation to fail for actor-less template")
	}
	if !strings.Contains(err.Error(), "{actor}") {
		t.Errorf("error does not mention the actor placeholder: %v", err)
	}
}

func TestTemplatesHasDetail(t *testing.T) {
	templates := DefaultTemplates()

	if !templates.HasDetail("changed package") {
		t.Error(`HasDetail("changed package") = false, want true`)
	}
	for _, activityType := range []string{"new package", "deleted package", "changed user"} {
		if templates.HasDetail(activityType) {
			t.Errorf("HasDetail(%q) = true, want false", activityType)
		}
	}
}

func TestTemplatesLookupUnknownType(t *testing.T) {
	if _, ok := DefaultTemplates().Lookup("renamed package"); ok {
		t.Error(`Lookup("renamed package") reported a template`)
	}
}

func TestTemplatesApplyTranslation(t *testing.T) {
	fn, ok := DefaultTemplates().Lookup("new package")
	if !ok {
		t.Fatal(`no template for "new package"`)
	}

	tr := mapTranslator{
		"{actor} created the dataset {dataset}": "{actor} hat den Datensatz {dataset} erstellt",
	}
	got := fn(tr, packageActivity("new package"))
	if got != "{actor} hat den Datensatz {dataset} erstellt" {
		t.Errorf("translated template = %q", got)
	}
}
