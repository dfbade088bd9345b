package i18n

import (
	"testing"

	"golang.org/x/text/language"
)

func newTestTranslator() *Translator {
	t := New()
	t.Register(language.German, Catalog{
		"{actor} created the dataset {dataset}": "{actor} hat den Datensatz {dataset} erstellt",
	})
	return t
}

func TestLocaleFallsBackToEnglish(t *testing.T) {
	tr := newTestTranslator()

	for _, preference := range []string{"", "xx", "fr-FR"} {
		locale := tr.Locale(preference)
		if locale.Language() != "en" {
			t.Errorf("Locale(%q).Language() = %q, want en", preference, locale.Language())
		}
	}
}

func TestLocaleMatchesAcceptLanguage(t *testing.T) {
	tr := newTestTranslator()

	tests := []struct {
		preference string
		want       string
	}{
		{"de", "de"},
		{"de-AT", "de"},
		{"de;q=0.9, en;q=0.8", "de"},
		{"fr, de;q=0.5", "de"},
		{"en-US", "en"},
	}

	for _, tt := range tests {
		locale := tr.Locale(tt.preference)
		if locale.Language() != tt.want {
			t.Errorf("Locale(%q).Language() = %q, want %q", tt.preference, locale.Language(), tt.want)
		}
	}
}

func TestGettextKeepsPlaceholdersLiteral(t *testing.T) {
	locale := newTestTranslator().Locale("de")

	got := locale.Gettext("{actor} created the dataset {dataset}")
	want := "{actor} hat den Datensatz {dataset} erstellt"
	if got != want {
		t.Errorf("Gettext = %q, want %q", got, want)
	}
}

func TestGettextFallsBackToMsgid(t *testing.T) {
	locale := newTestTranslator().Locale("de")

	msgid := "{actor} signed up"
	if got := locale.Gettext(msgid); got != msgid {
		t.Errorf("Gettext(%q) = %q, want the msgid back", msgid, got)
	}
}

func TestRegisterReplacesCatalog(t *testing.T) {
	tr := newTestTranslator()
	tr.Register(language.German, Catalog{"hello": "hallo"})

	locale := tr.Locale("de")
	if got := locale.Gettext("hello"); got != "hallo" {
		t.Errorf("Gettext(hello) = %q, want hallo", got)
	}
	// The earlier catalog for the same tag is gone.
	msgid := "{actor} created the dataset {dataset}"
	if got := locale.Gettext(msgid); got != msgid {
		t.Errorf("Gettext(%q) = %q, want the msgid back", msgid, got)
	}
}
