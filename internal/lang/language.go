// Package lang parses the optional language hint passed to speech models.
package lang

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// supported holds the ISO 639-1 base codes Whisper models are trained on.
var supported = map[string]bool{
	"af": true, "am": true, "ar": true, "as": true, "az": true, "be": true, "bg": true, "bn": true,
	"bo": true, "br": true, "bs": true, "ca": true, "cs": true, "cy": true, "da": true, "de": true,
	"el": true, "en": true, "es": true, "et": true, "eu": true, "fa": true, "fi": true, "fo": true,
	"fr": true, "gl": true, "gu": true, "ha": true, "he": true, "hi": true, "hr": true, "ht": true,
	"hu": true, "hy": true, "id": true, "is": true, "it": true, "ja": true, "jv": true, "ka": true,
	"kk": true, "km": true, "kn": true, "ko": true, "la": true, "lb": true, "ln": true, "lo": true,
	"lt": true, "lv": true, "mg": true, "mi": true, "mk": true, "ml": true, "mn": true, "mr": true,
	"ms": true, "mt": true, "my": true, "ne": true, "nl": true, "nn": true, "no": true, "oc": true,
	"pa": true, "pl": true, "ps": true, "pt": true, "ro": true, "ru": true, "sa": true, "sd": true,
	"si": true, "sk": true, "sl": true, "sn": true, "so": true, "sq": true, "sr": true, "su": true,
	"sv": true, "sw": true, "ta": true, "te": true, "tg": true, "th": true, "tk": true, "tl": true,
	"tr": true, "tt": true, "uk": true, "ur": true, "uz": true, "vi": true, "yi": true, "yo": true,
	"zh": true,
}

// Language is a validated language hint. The zero value means auto-detect.
type Language struct {
	tag language.Tag
	set bool
}

// Parse validates a BCP 47 tag such as "en", "pt-BR" or "pt_br".
// An empty string returns the zero Language (auto-detect).
func Parse(s string) (Language, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Language{}, nil
	}

	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return Language{}, fmt.Errorf("invalid language code %q (use ISO 639-1 codes like 'en', 'fr', 'pt-BR'): %w",
			s, ErrInvalid)
	}

	base, _ := tag.Base()
	if !supported[base.String()] {
		return Language{}, fmt.Errorf("language %q is not supported by the speech model: %w", s, ErrInvalid)
	}
	return Language{tag: tag, set: true}, nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Language {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

// IsZero reports whether the hint is unset (auto-detect).
func (l Language) IsZero() bool {
	return !l.set
}

// String returns the canonical tag ("pt-BR"), or "" for auto-detect.
func (l Language) String() string {
	if !l.set {
		return ""
	}
	return l.tag.String()
}

// BaseCode returns the ISO 639-1 code speech models accept ("pt" for "pt-BR").
func (l Language) BaseCode() string {
	if !l.set {
		return ""
	}
	base, _ := l.tag.Base()
	return base.String()
}

// DisplayName returns the English name of the language, e.g. "Brazilian Portuguese".
func (l Language) DisplayName() string {
	if !l.set {
		return "auto-detect"
	}
	if name := display.English.Tags().Name(l.tag); name != "" {
		return name
	}
	return l.tag.String()
}

// Describe renders a language reported by a model for display. Models report
// either codes ("en") or lowercase names ("english"); both are accepted.
func Describe(reported string) string {
	reported = strings.TrimSpace(reported)
	if reported == "" {
		return ""
	}
	if l, err := Parse(reported); err == nil {
		return l.DisplayName()
	}
	return cases.Title(language.English).String(reported)
}
