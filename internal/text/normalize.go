// Package text turns raw input text into the canonical form the phonemizer
// expects: unified punctuation, expanded abbreviations and spelled-out
// numbers, times and currency.
package text

import (
	"errors"
	"strings"
)

// ErrEmptyText is returned by callers that reject empty or whitespace-only
// input. Normalize itself never fails.
var ErrEmptyText = errors.New("text is empty")

const cjkPunctuation = "、。！，：；？"
const asciiPunctuation = ",.!,:;?"

// rules is the normalization chain. Order matters: quotes are unified
// before parentheses take over the guillemet slots, and numbers are spelled
// out before thousands separators and currency are handled.
var rules = buildRules()

func buildRules() Chain {
	c := Chain{
		Literal{Label: "left single quote", Old: "‘", New: "'"},
		Literal{Label: "right single quote", Old: "’", New: "'"},
		Literal{Label: "left guillemet", Old: "«", New: "“"},
		Literal{Label: "right guillemet", Old: "»", New: "”"},
		Literal{Label: "left double quote", Old: "“", New: `"`},
		Literal{Label: "right double quote", Old: "”", New: `"`},
		Literal{Label: "open paren", Old: "(", New: "«"},
		Literal{Label: "close paren", Old: ")", New: "»"},
	}

	cjk := []rune(cjkPunctuation)
	ascii := []rune(asciiPunctuation)
	for i := range cjk {
		c = append(c, Literal{
			Label: "cjk " + string(ascii[i]),
			Old:   string(cjk[i]),
			New:   string(ascii[i]) + " ",
		})
	}

	c = append(c,
		Pattern{Label: "odd whitespace", Re: MustCompile(`[^\S \n]`), Replacement: " "},
		Pattern{Label: "space runs", Re: MustCompile(`  +`), Replacement: " "},
		Pattern{Label: "blank lines", Re: MustCompile(`(?<=\n) +(?=\n)`), Replacement: ""},
		Pattern{Label: "doctor", Re: MustCompile(`\bD[Rr]\.(?= [A-Z])`), Replacement: "Doctor"},
		Pattern{Label: "mister", Re: MustCompile(`\b(?:Mr\.|MR\.(?= [A-Z]))`), Replacement: "Mister"},
		Pattern{Label: "miss", Re: MustCompile(`\b(?:Ms\.|MS\.(?= [A-Z]))`), Replacement: "Miss"},
		Pattern{Label: "mrs", Re: MustCompile(`\b(?:Mrs\.|MRS\.(?= [A-Z]))`), Replacement: "Mrs"},
		Pattern{Label: "etc", Re: MustCompile(`\betc\.(?! [A-Z])`), Replacement: "etc"},
		Pattern{Label: "yeah", Re: MustCompile(`(?i)\b(y)eah?\b`), Replacement: "${1}e'a"},
		Computed{
			Label: "numbers",
			Re:    MustCompile(`\d*\.\d+|\b\d{4}s?\b|(?<!:)\b(?:[1-9]|1[0-2]):[0-5]\d\b(?!:)`),
			Fn:    splitNum,
		},
		Pattern{Label: "thousands separator", Re: MustCompile(`(?<=\d),(?=\d)`), Replacement: ""},
		Computed{
			Label: "money",
			Re:    MustCompile(`(?i)[$£]\d+(?:\.\d+)?(?: hundred| thousand| (?:[bm]|tr)illion)*\b|[$£]\d+\.\d\d?\b`),
			Fn:    flipMoney,
		},
		Computed{Label: "decimals", Re: MustCompile(`\d*\.\d+`), Fn: pointNum},
		Pattern{Label: "ranges", Re: MustCompile(`(?<=\d)-(?=\d)`), Replacement: " to "},
		Pattern{Label: "digit S", Re: MustCompile(`(?<=\d)S`), Replacement: " S"},
		Pattern{Label: "letter plural", Re: MustCompile(`(?<=[BCDFGHJ-NP-TV-Z])'?s\b`), Replacement: "'S"},
		Pattern{Label: "X plural", Re: MustCompile(`(?<=X')S\b`), Replacement: "s"},
		Computed{
			Label: "dotted acronyms",
			Re:    MustCompile(`(?:[A-Za-z]\.){2,} [a-z]`),
			Fn:    func(m string) string { return strings.ReplaceAll(m, ".", "-") },
		},
		Pattern{Label: "initials", Re: MustCompile(`(?i)(?<=[A-Z])\.(?=[A-Z])`), Replacement: "-"},
	)

	return c
}

// Rules returns the normalization chain in application order.
func Rules() Chain {
	return append(Chain(nil), rules...)
}

// Normalize rewrites text into canonical form. It is total: any input,
// including the empty string, yields a result.
func Normalize(s string) string {
	return strings.TrimSpace(rules.Apply(s))
}
