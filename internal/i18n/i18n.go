// Package i18n provides catalog-backed translation of activity message
// templates. Translated strings keep their {name} placeholders literal.
package i18n

import (
	"golang.org/x/text/language"
)

// Catalog maps msgids to translated strings for one language.
type Catalog map[string]string

// Translator localizes strings for a set of supported languages.
type Translator struct {
	matcher  language.Matcher
	tags     []language.Tag
	catalogs map[language.Tag]Catalog
}

// New builds a translator. The first registered language is the fallback.
func New() *Translator {
	t := &Translator{catalogs: make(map[language.Tag]Catalog)}
	t.Register(language.English, Catalog{})
	return t
}

// Register adds or replaces the catalog for a language.
func (t *Translator) Register(tag language.Tag, catalog Catalog) {
	if _, ok := t.catalogs[tag]; !ok {
		t.tags = append(t.tags, tag)
		t.matcher = language.NewMatcher(t.tags)
	}
	t.catalogs[tag] = catalog
}

// Locale selects the best-matching language for the given preference string
// (a BCP 47 tag or Accept-Language list) and returns a locale bound to it.
func (t *Translator) Locale(preference string) Locale {
	tag := t.tags[0]
	if preference != "" {
		if prefs, _, err := language.ParseAcceptLanguage(preference); err == nil {
			matched, _, _ := t.matcher.Match(prefs...)
			// Match may return an extended tag; collapse to a registered one.
			for _, registered := range t.tags {
				if matched == registered {
					tag = registered
					break
				}
				if base, _ := matched.Base(); base.String() == mustBase(registered) {
					tag = registered
					break
				}
			}
		}
	}
	return Locale{tag: tag, catalog: t.catalogs[tag]}
}

func mustBase(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

// Locale translates strings for one matched language.
type Locale struct {
	tag     language.Tag
	catalog Catalog
}

// Language reports the locale's BCP 47 tag.
func (l Locale) Language() string {
	return l.tag.String()
}

// Gettext returns the translation for msgid, or msgid itself when the
// catalog has no entry.
func (l Locale) Gettext(msgid string) string {
	if translated, ok := l.catalog[msgid]; ok && translated != "" {
		return translated
	}
	return msgid
}
