package phonemize

import (
	"strings"

	"github.com/example/go-kokoro-g2p/internal/text"
	"github.com/example/go-kokoro-g2p/internal/vocab"
)

// https://en.wiktionary.org/wiki/kokoro#English
var commonCorrections = text.Chain{
	text.Literal{Label: "kokoro us", Old: "kəkˈoːɹoʊ", New: "kˈoʊkəɹoʊ"},
	text.Literal{Label: "kokoro gb", Old: "kəkˈɔːɹəʊ", New: "kˈəʊkəɹəʊ"},
	text.Literal{Label: "palatalization", Old: "ʲ", New: "j"},
	text.Literal{Label: "trill", Old: "r", New: "ɹ"},
	text.Literal{Label: "velar fricative", Old: "x", New: "k"},
	text.Literal{Label: "lateral fricative", Old: "ɬ", New: "l"},
	text.Pattern{Label: "hundred spacing", Re: text.MustCompile(`(?<=[a-zɹː])(?=hˈʌndɹɪd)`), Replacement: " "},
	text.Pattern{Label: "detached z", Re: text.MustCompile(` z(?=[;:,.!?¡¿—…"«»“” ]|$)`), Replacement: "z"},
}

var usCorrections = text.Chain{
	text.Pattern{Label: "ninety flap", Re: text.MustCompile(`(?<=nˈaɪn)ti(?!ː)`), Replacement: "di"},
}

// Corrections returns the post-processing chain for lang in order.
func Corrections(lang Language) text.Chain {
	c := append(text.Chain(nil), commonCorrections...)
	if lang == USEnglish {
		c = append(c, usCorrections...)
	}
	return c
}

// PostProcess applies the correction chain to raw backend output, drops
// every symbol outside the model vocabulary and trims the result.
func PostProcess(ps string, lang Language) string {
	ps = Corrections(lang).Apply(ps)
	ps = vocab.Get().Filter(ps)
	return strings.TrimSpace(ps)
}
