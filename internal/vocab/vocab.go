// Package vocab defines the fixed symbol table consumed by the Kokoro model.
//
// The index assigned to each symbol is part of the model's input contract:
// symbols are numbered by walking pad, punctuation, Latin letters and IPA
// letters in that order, so the table must never be reordered.
package vocab

import "sync"

const (
	// Pad is the padding symbol. It always has index 0.
	Pad = "$"

	// Punctuation lists the punctuation marks the model accepts, space included.
	Punctuation = ";:,.!?¡¿—…\"«»“” "

	// Letters is A-Z followed by a-z.
	Letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// IPALetters is the phonetic symbol set. The apostrophe appears twice
	// (around the combining syllabic mark); the later index wins.
	IPALetters = "ɑɐɒæɓʙβɔɕçɗɖðʤəɘɚɛɜɝɞɟʄɡɠɢʛɦɧħɥʜɨɪʝɭɬɫɮʟɱɯɰŋɳɲɴøɵɸθœɶʘɹɺɾɻʀʁɽʂʃʈʧʉʊʋⱱʌɣɤʍχʎʏʑʐʒʔʡʕʢǀǁǂǃˈˌːˑʼʴʰʱʲʷˠˤ˞↓↑→↗↘'\u0329'ᵻ"
)

// Vocabulary maps a single-rune symbol to its model index.
type Vocabulary map[rune]int

var (
	table     Vocabulary
	tableOnce sync.Once
)

// Get returns the process-wide vocabulary. The map is built once and must
// be treated as read-only by callers.
func Get() Vocabulary {
	tableOnce.Do(func() {
		table = build()
	})
	return table
}

// Symbols returns every symbol in index order, duplicates included.
func Symbols() []rune {
	syms := make([]rune, 0, 1+len(Punctuation)+len(Letters)+len(IPALetters))
	syms = append(syms, []rune(Pad)...)
	syms = append(syms, []rune(Punctuation)...)
	syms = append(syms, []rune(Letters)...)
	syms = append(syms, []rune(IPALetters)...)
	return syms
}

func build() Vocabulary {
	syms := Symbols()
	v := make(Vocabulary, len(syms))
	for i, s := range syms {
		v[s] = i
	}
	return v
}

// Contains reports whether r is a vocabulary symbol.
func (v Vocabulary) Contains(r rune) bool {
	_, ok := v[r]
	return ok
}

// Index returns the model index for r.
func (v Vocabulary) Index(r rune) (int, bool) {
	i, ok := v[r]
	return i, ok
}

// Filter drops every rune of s that is not in the vocabulary.
func (v Vocabulary) Filter(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if v.Contains(r) {
			out = append(out, r)
		}
	}
	return string(out)
}
