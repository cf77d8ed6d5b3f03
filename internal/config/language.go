package config

import (
	"fmt"
	"strings"
)

const (
	LangUSEnglish = "a"
	LangUKEnglish = "b"
)

// NormalizeLanguage maps a configured language to its single-letter code.
// Locale names are accepted as aliases; empty selects US English.
func NormalizeLanguage(raw string) (string, error) {
	lang := strings.ToLower(strings.TrimSpace(raw))
	switch lang {
	case "", LangUSEnglish, "en-us", "en_us":
		return LangUSEnglish, nil
	case LangUKEnglish, "en-gb", "en_gb":
		return LangUKEnglish, nil
	default:
		return "", fmt.Errorf("invalid language %q (expected %s|%s|en-us|en-gb)", raw, LangUSEnglish, LangUKEnglish)
	}
}
