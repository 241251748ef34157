package story

// LocalizedText is a language-keyed string bundle. The zero value is
// not usable; construct with NewLocalizedText. Texts are set during
// catalog load and read-only afterwards.
type LocalizedText struct {
	texts       map[Language]string
	defaultLang Language
}

// NewLocalizedText creates an empty bundle whose fallback language is
// defaultLang.
func NewLocalizedText(defaultLang Language) *LocalizedText {
	return &LocalizedText{
		texts:       make(map[Language]string),
		defaultLang: defaultLang,
	}
}

// Set stores the text for lang, replacing any previous value.
func (t *LocalizedText) Set(lang Language, text string) {
	t.texts[lang] = text
}

// Get resolves the text for lang. Resolution never fails: it falls
// back to the default language, then to any present entry (map
// iteration order — callers must not rely on which entry wins), then
// to the empty string.
func (t *LocalizedText) Get(lang Language) string {
	if text, ok := t.texts[lang]; ok {
		return text
	}
	if text, ok := t.texts[t.defaultLang]; ok {
		return text
	}
	for _, text := range t.texts {
		return text
	}
	return ""
}

// Has reports whether an explicit entry exists for lang.
func (t *LocalizedText) Has(lang Language) bool {
	_, ok := t.texts[lang]
	return ok
}

// DefaultLanguage returns the bundle's fallback language.
func (t *LocalizedText) DefaultLanguage() Language {
	return t.defaultLang
}
