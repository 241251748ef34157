// Package story defines the narrative graph model: games, scenes,
// options, localized text, and the parsed condition/effect forms the
// engine evaluates while walking the graph. Everything in this package
// is immutable after catalog load and safe for concurrent reads.
package story

import "strings"

// Language identifies a supported locale.
type Language string

const (
	LangEN Language = "en"
	LangRU Language = "ru"
)

// languageOrder fixes the presentation order for language selection.
var languageOrder = []Language{LangEN, LangRU}

// displayNames maps each language to its human-readable name, written
// in that language.
var displayNames = map[Language]string{
	LangEN: "English",
	LangRU: "Русский",
}

// Languages returns all supported languages in declaration order.
// The first entry is the fallback used when selection fails.
func Languages() []Language {
	out := make([]Language, len(languageOrder))
	copy(out, languageOrder)
	return out
}

// IsValid reports whether l is a recognised language.
func (l Language) IsValid() bool {
	_, ok := displayNames[l]
	return ok
}

// DisplayName returns the human-readable name for l, or the language
// code itself when l is not recognised.
func (l Language) DisplayName() string {
	if name, ok := displayNames[l]; ok {
		return name
	}
	return string(l)
}

// ParseLanguage normalises a language code ("EN", "en", "ru") to a
// Language. Unrecognised codes fall back to LangEN.
func ParseLanguage(code string) Language {
	l := Language(strings.ToLower(strings.TrimSpace(code)))
	if l.IsValid() {
		return l
	}
	return LangEN
}
