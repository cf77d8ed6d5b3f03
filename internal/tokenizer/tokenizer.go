// Package tokenizer maps phoneme strings to the integer ids the Kokoro
// model consumes. Ids are the vocabulary indices from package vocab.
package tokenizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/go-kokoro-g2p/internal/vocab"
)

// Tokenizer encodes a phoneme string into model token ids.
type Tokenizer interface {
	// Encode tokenizes phonemes and returns vocabulary indices.
	Encode(phonemes string) ([]int64, error)
}

// ErrUnknownID is returned by Decode for an id no symbol maps to.
var ErrUnknownID = errors.New("unknown token id")

// PadID surrounds every model input sequence.
const PadID int64 = 0

// Vocab implements Tokenizer over a vocabulary table.
type Vocab struct {
	table   vocab.Vocabulary
	reverse map[int64]rune
}

// NewVocab builds a tokenizer for v. A nil v selects the Kokoro vocabulary.
func NewVocab(v vocab.Vocabulary) *Vocab {
	if v == nil {
		v = vocab.Get()
	}
	rev := make(map[int64]rune, len(v))
	for r, i := range v {
		rev[int64(i)] = r
	}
	return &Vocab{table: v, reverse: rev}
}

// Encode maps each symbol of phonemes to its index. Symbols outside the
// vocabulary are skipped.
func (t *Vocab) Encode(phonemes string) ([]int64, error) {
	ids := make([]int64, 0, len(phonemes))
	for _, r := range phonemes {
		if i, ok := t.table.Index(r); ok {
			ids = append(ids, int64(i))
		}
	}
	return ids, nil
}

// Decode maps ids back to symbols.
func (t *Vocab) Decode(ids []int64) (string, error) {
	var b strings.Builder
	for pos, id := range ids {
		r, ok := t.reverse[id]
		if !ok {
			return "", fmt.Errorf("%w %d at position %d", ErrUnknownID, id, pos)
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}

// Pad returns ids wrapped with PadID on both ends.
func Pad(ids []int64) []int64 {
	out := make([]int64, 0, len(ids)+2)
	out = append(out, PadID)
	out = append(out, ids...)
	return append(out, PadID)
}
