package text

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/neurlang/NumToWordsGo/NumToWords"
)

var digitNames = [10]string{
	"zero", "one", "two", "three", "four",
	"five", "six", "seven", "eight", "nine",
}

// converterLimit bounds the values passed to the word converter, which
// recurses without end on some eleven and twelve digit values.
const converterLimit = 1_000_000_000

// scaleWords names each three-digit group above the units; the last entry
// covers the largest int.
var scaleWords = [...]string{"", "thousand", "million", "billion", "trillion", "quadrillion", "quintillion"}

// cardinal spells a run of ASCII digits as lowercase space-separated words.
// Values that do not fit an int are read digit by digit; digits from other
// scripts are returned unchanged.
func cardinal(digits string) string {
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return spellDigits(digits)
	}
	if n < converterLimit {
		return smallCardinal(n)
	}

	var groups []string
	for scale := 0; n > 0; scale++ {
		if g := n % 1000; g > 0 {
			words := smallCardinal(g)
			if scaleWords[scale] != "" {
				words += " " + scaleWords[scale]
			}
			groups = append([]string{words}, groups...)
		}
		n /= 1000
	}
	return strings.Join(groups, " ")
}

// smallCardinal spells 0 <= n < converterLimit.
func smallCardinal(n int) string {
	words, err := NumToWords.Convert(n, "en")
	if err == nil {
		if out := canonicalWords(words); out != "" {
			return out
		}
	}
	return spellDigits(strconv.Itoa(n))
}

// canonicalWords lowercases converter output and drops hyphens, commas and
// the British "and" so every number reads as plain space-separated words.
func canonicalWords(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("-", " ", ",", " ").Replace(s)

	fields := strings.Fields(s)
	out := fields[:0]
	for _, f := range fields {
		if f == "and" {
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}

// spellDigits reads ASCII digits one by one. Anything else, such as digits
// from other scripts, is left for the phonemizer backend.
func spellDigits(digits string) string {
	words := make([]string, 0, len(digits))
	for _, r := range digits {
		if r < '0' || r > '9' {
			return digits
		}
		words = append(words, digitNames[r-'0'])
	}
	return strings.Join(words, " ")
}

// pluralize adds a plural ending to the last word of a spoken number.
func pluralize(words string) string {
	switch {
	case strings.HasSuffix(words, "y"):
		return strings.TrimSuffix(words, "y") + "ies"
	case strings.HasSuffix(words, "x"):
		return words + "es"
	default:
		return words + "s"
	}
}

// splitNum expands clock times and four-digit years. Decimals pass through
// untouched; pointNum handles them once money has been expanded.
func splitNum(m string) string {
	if strings.Contains(m, ".") {
		return m
	}

	if h, mm, ok := strings.Cut(m, ":"); ok {
		minutes, err := strconv.Atoi(mm)
		if err != nil {
			return m
		}
		switch {
		case minutes == 0:
			return cardinal(h) + " o'clock"
		case minutes < 10:
			return cardinal(h) + " oh " + digitNames[minutes]
		default:
			return cardinal(h) + " " + cardinal(mm)
		}
	}

	plural := strings.HasSuffix(m, "s")
	finish := func(words string) string {
		if plural {
			return pluralize(words)
		}
		return words
	}

	if len(m) < 4 {
		return m
	}
	year, err := strconv.Atoi(m[:4])
	if err != nil {
		return m
	}
	if year < 1100 || year%1000 < 10 {
		return finish(cardinal(m[:4]))
	}

	left := cardinal(m[:2])
	right, _ := strconv.Atoi(m[2:4])
	if century := year % 1000; century >= 100 && century <= 999 {
		if right == 0 {
			return finish(left + " hundred")
		}
		if right < 10 {
			return finish(left + " oh " + digitNames[right])
		}
	}
	return finish(left + " " + cardinal(m[2:4]))
}

// flipMoney reads a currency amount with its unit after it:
// "$5.50" becomes "five dollars and fifty cents".
func flipMoney(m string) string {
	bill := "dollar"
	if strings.HasPrefix(m, "£") {
		bill = "pound"
	}
	_, size := utf8.DecodeRuneInString(m)
	amount := m[size:]

	if last, _ := utf8.DecodeLastRuneInString(m); unicode.IsLetter(last) {
		num, scale, _ := strings.Cut(amount, " ")
		return spellAmount(num) + " " + scale + " " + bill + "s"
	}

	if !strings.Contains(amount, ".") {
		return cardinal(amount) + " " + bill + pluralSuffix(amount == "1")
	}

	major, minor, _ := strings.Cut(amount, ".")
	for len(minor) < 2 {
		minor += "0"
	}
	cents, _ := strconv.Atoi(minor)

	var coins string
	if bill == "dollar" {
		coins = "cent" + pluralSuffix(cents == 1)
	} else if cents == 1 {
		coins = "penny"
	} else {
		coins = "pence"
	}

	return cardinal(major) + " " + bill + pluralSuffix(major == "1") +
		" and " + cardinal(minor) + " " + coins
}

func spellAmount(num string) string {
	if strings.Contains(num, ".") {
		return pointNum(num)
	}
	return cardinal(num)
}

func pluralSuffix(singular bool) string {
	if singular {
		return ""
	}
	return "s"
}

// pointNum reads a decimal as "<whole> point <digit> <digit> ...".
func pointNum(m string) string {
	whole, frac, _ := strings.Cut(m, ".")
	if whole == "" {
		return "point " + spellDigits(frac)
	}
	return cardinal(whole) + " point " + spellDigits(frac)
}
