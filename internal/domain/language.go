package domain

import (
	"strings"

	"golang.org/x/text/language"
)

// Language is one of the fixed set of languages results can be requested in
type Language int

const (
	EnglishUS Language = iota
	Russian
	German
	French
	Spanish
)

// DefaultLanguage is used when nothing else is configured
const DefaultLanguage = EnglishUS

var languageTags = map[Language]language.Tag{
	EnglishUS: language.AmericanEnglish,
	Russian:   language.MustParse("ru-RU"),
	German:    language.MustParse("de-DE"),
	French:    language.MustParse("fr-FR"),
	Spanish:   language.MustParse("es-ES"),
}

var languageNames = map[Language]string{
	EnglishUS: "English (US)",
	Russian:   "Русский",
	German:    "Deutsch",
	French:    "Français",
	Spanish:   "Español",
}

// Languages lists every supported language in display order
func Languages() []Language {
	return []Language{EnglishUS, Russian, German, French, Spanish}
}

// Code returns the canonical code sent to the provider, e.g. "en-US"
func (l Language) Code() string {
	tag, ok := languageTags[l]
	if !ok {
		return languageTags[DefaultLanguage].String()
	}
	return tag.String()
}

// Name returns the human readable name of the language in that language
func (l Language) Name() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return languageNames[DefaultLanguage]
}

func (l Language) String() string {
	return l.Code()
}

// Next returns the language after l in display order, wrapping around
func (l Language) Next() Language {
	all := Languages()
	for i, candidate := range all {
		if candidate == l {
			return all[(i+1)%len(all)]
		}
	}
	return DefaultLanguage
}

var matcher = language.NewMatcher(func() []language.Tag {
	tags := make([]language.Tag, 0, len(languageTags))
	for _, l := range Languages() {
		tags = append(tags, languageTags[l])
	}
	return tags
}())

// ParseLanguage resolves a loosely written code ("ru", "ru_RU", "EN-us") to a supported language.
// The second return value is false when nothing reasonable matches.
func ParseLanguage(s string) (Language, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", "-")
	if s == "" {
		return DefaultLanguage, false
	}
	tag, err := language.Parse(s)
	if err != nil {
		return DefaultLanguage, false
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return DefaultLanguage, false
	}
	matched := Languages()[index]
	// the matcher falls back to the first tag for unrelated languages
	want, _ := tag.Base()
	got, _ := languageTags[matched].Base()
	if want != got {
		return DefaultLanguage, false
	}
	return matched, true
}
