// Package i18n resolves user-visible strings for the supported languages.
package i18n

import (
	"golang.org/x/text/language"
)

// Supported languages, first one is the fallback
var supported = []language.Tag{
	language.English,
	language.Hindi,
	language.Kannada,
	language.Malayalam,
}

// Catalog looks up messages by key for a negotiated language
type Catalog struct {
	matcher  language.Matcher
	fallback string
}

// New builds a catalog whose fallback is defaultLang when supported, English otherwise
func New(defaultLang string) *Catalog {
	fallback := "en"
	if _, ok := messages[defaultLang]; ok {
		fallback = defaultLang
	}

	tags := make([]language.Tag, 0, len(supported))
	tags = append(tags, language.Make(fallback))
	for _, t := range supported {
		if base, _ := t.Base(); base.String() != fallback {
			tags = append(tags, t)
		}
	}

	return &Catalog{
		matcher:  language.NewMatcher(tags),
		fallback: fallback,
	}
}

// Negotiate picks a supported language from explicit choices and/or Accept-Language values.
// Earlier arguments win.
func (c *Catalog) Negotiate(prefs ...string) string {
	var nonEmpty []string
	for _, p := range prefs {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	if len(nonEmpty) == 0 {
		return c.fallback
	}

	tag, _ := language.MatchStrings(c.matcher, nonEmpty...)
	base, _ := tag.Base()
	if _, ok := messages[base.String()]; ok {
		return base.String()
	}
	return c.fallback
}

// T returns the message for key in lang, falling back to the default language, then English,
// then the key itself.
func (c *Catalog) T(lang, key string) string {
	if msg, ok := messages[lang][key]; ok {
		return msg
	}
	if msg, ok := messages[c.fallback][key]; ok {
		return msg
	}
	if msg, ok := messages["en"][key]; ok {
		return msg
	}
	return key
}

// Languages lists the supported language codes
func (c *Catalog) Languages() []string {
	out := make([]string, 0, len(supported))
	for _, t := range supported {
		base, _ := t.Base()
		out = append(out, base.String())
	}
	return out
}
