package text

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// Rule is a single rewrite step of an ordered rule chain.
type Rule interface {
	Name() string
	Apply(s string) string
}

// Literal replaces every occurrence of Old with New.
type Literal struct {
	Label string
	Old   string
	New   string
}

func (r Literal) Name() string { return r.Label }

func (r Literal) Apply(s string) string { return strings.ReplaceAll(s, r.Old, r.New) }

// Pattern replaces every non-overlapping match of a regular expression,
// left to right in a single pass. Replacement uses $1-style group references.
type Pattern struct {
	Label       string
	Re          *regexp2.Regexp
	Replacement string
}

func (r Pattern) Name() string { return r.Label }

func (r Pattern) Apply(s string) string {
	out, err := r.Re.Replace(s, r.Replacement, -1, -1)
	if err != nil {
		// Only a match timeout can fail here and none is configured.
		return s
	}
	return out
}

// Computed replaces every match with the result of Fn applied to the
// matched text.
type Computed struct {
	Label string
	Re    *regexp2.Regexp
	Fn    func(match string) string
}

func (r Computed) Name() string { return r.Label }

func (r Computed) Apply(s string) string {
	out, err := r.Re.ReplaceFunc(s, func(m regexp2.Match) string {
		return r.Fn(m.String())
	}, -1, -1)
	if err != nil {
		return s
	}
	return out
}

// Chain applies rules strictly in order, each on the previous output.
type Chain []Rule

func (c Chain) Apply(s string) string {
	for _, r := range c {
		s = r.Apply(s)
	}
	return s
}

// MustCompile compiles a lookaround-capable pattern or panics.
func MustCompile(expr string) *regexp2.Regexp {
	return regexp2.MustCompile(expr, regexp2.None)
}
