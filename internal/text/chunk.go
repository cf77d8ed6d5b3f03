package text

import (
	"strings"
	"unicode/utf8"
)

// sentenceBreaks are the marks a phoneme string may be split after.
const sentenceBreaks = ".!?;:,…"

// ChunkBySentence splits s into chunks at sentence punctuation, grouping
// consecutive pieces while staying within maxRunes per chunk. A piece longer
// than maxRunes is cut at its last space before the limit, or at the limit
// when it has none. If maxRunes is 0, no splitting is performed.
func ChunkBySentence(s string, maxRunes int) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return []string{s}
	}

	var pieces []string
	for _, sent := range splitSentences(s) {
		pieces = append(pieces, hardSplit(sent, maxRunes)...)
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, p := range pieces {
		n := utf8.RuneCountInString(p)
		if currentLen == 0 {
			current.WriteString(p)
			currentLen = n
			continue
		}
		if currentLen+1+n > maxRunes {
			chunks = append(chunks, current.String())
			current.Reset()
			current.WriteString(p)
			currentLen = n
		} else {
			current.WriteByte(' ')
			current.WriteString(p)
			currentLen += 1 + n
		}
	}
	if currentLen > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

// splitSentences splits text after each break mark, keeping the mark
// attached to its piece. Empty pieces are dropped.
func splitSentences(text string) []string {
	var sentences []string
	start := 0

	for i, r := range text {
		if strings.ContainsRune(sentenceBreaks, r) {
			end := i + utf8.RuneLen(r)
			if p := strings.TrimSpace(text[start:end]); p != "" {
				sentences = append(sentences, p)
			}
			start = end
		}
	}

	if start < len(text) {
		if p := strings.TrimSpace(text[start:]); p != "" {
			sentences = append(sentences, p)
		}
	}

	return sentences
}

func hardSplit(s string, maxRunes int) []string {
	var out []string
	for {
		runes := []rune(s)
		if len(runes) <= maxRunes {
			if s != "" {
				out = append(out, s)
			}
			return out
		}

		cut := maxRunes
		for i := maxRunes; i > 0; i-- {
			if runes[i] == ' ' {
				cut = i
				break
			}
		}

		if head := strings.TrimSpace(string(runes[:cut])); head != "" {
			out = append(out, head)
		}
		s = strings.TrimSpace(string(runes[cut:]))
	}
}
