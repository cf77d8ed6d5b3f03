package phonemize

import (
	"errors"
	"fmt"
)

// ErrUnsupportedLanguage is returned for any language code other than
// "a" (US English) or "b" (UK English).
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Language selects a grapheme-to-phoneme backend.
type Language int

const (
	USEnglish Language = iota + 1
	UKEnglish
)

// ParseLanguage maps the external single-letter code to a Language.
func ParseLanguage(code string) (Language, error) {
	switch code {
	case "a":
		return USEnglish, nil
	case "b":
		return UKEnglish, nil
	default:
		return 0, fmt.Errorf("%w %q (expected a|b)", ErrUnsupportedLanguage, code)
	}
}

// Code returns the single-letter code ("a" or "b").
func (l Language) Code() string {
	switch l {
	case USEnglish:
		return "a"
	case UKEnglish:
		return "b"
	default:
		return ""
	}
}

// Locale returns the espeak-ng voice name for the language.
func (l Language) Locale() string {
	switch l {
	case USEnglish:
		return "en-us"
	case UKEnglish:
		return "en-gb"
	default:
		return ""
	}
}

func (l Language) String() string {
	switch l {
	case USEnglish:
		return "US English"
	case UKEnglish:
		return "UK English"
	default:
		return fmt.Sprintf("Language(%d)", int(l))
	}
}

// Languages lists every supported language in code order.
func Languages() []Language {
	return []Language{USEnglish, UKEnglish}
}
