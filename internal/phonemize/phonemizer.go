// Package phonemize converts normalized text into the phoneme string the
// Kokoro model consumes: a locale-specific espeak-ng pass followed by a
// fixed list of pronunciation corrections and a vocabulary filter.
package phonemize

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/example/go-kokoro-g2p/internal/text"
)

type options struct {
	backends map[Language]Backend
	espeak   ESpeakOptions
	logger   *slog.Logger
}

// Option configures a Phonemizer.
type Option func(*options)

// WithBackend overrides the backend used for lang.
func WithBackend(lang Language, b Backend) Option {
	return func(o *options) { o.backends[lang] = b }
}

// WithESpeak sets the espeak-ng location used for languages without an
// explicit backend.
func WithESpeak(opts ESpeakOptions) Option {
	return func(o *options) { o.espeak = opts }
}

// WithLogger sets the logger for backend diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Phonemizer is safe for concurrent use. It holds one backend per language.
type Phonemizer struct {
	backends map[Language]Backend
	log      *slog.Logger
}

// New builds a Phonemizer. Languages without a WithBackend override get an
// espeak-ng backend with punctuation preservation and stress marks enabled.
func New(optFns ...Option) *Phonemizer {
	o := options{backends: make(map[Language]Backend), logger: slog.Default()}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.espeak.Logger == nil {
		o.espeak.Logger = o.logger
	}

	p := &Phonemizer{backends: make(map[Language]Backend, 2), log: o.logger}
	for _, lang := range Languages() {
		if b, ok := o.backends[lang]; ok {
			p.backends[lang] = b
			continue
		}
		p.backends[lang] = NewESpeak(BackendConfig{
			Locale:              lang.Locale(),
			PreservePunctuation: true,
			WithStress:          true,
		}, o.espeak)
	}
	return p
}

// Phonemize converts input to phonemes for the given language code
// ("a" or "b"). When normalize is true the text is normalized first.
func (p *Phonemizer) Phonemize(ctx context.Context, input, code string, normalize bool) (string, error) {
	lang, err := ParseLanguage(code)
	if err != nil {
		return "", err
	}
	return p.PhonemizeLanguage(ctx, input, lang, normalize)
}

// PhonemizeLanguage is Phonemize with an already parsed language.
func (p *Phonemizer) PhonemizeLanguage(ctx context.Context, input string, lang Language, normalize bool) (string, error) {
	b, ok := p.backends[lang]
	if !ok {
		return "", fmt.Errorf("%w %v", ErrUnsupportedLanguage, lang)
	}

	if normalize {
		input = text.Normalize(input)
	}

	out, err := b.Phonemize(ctx, []string{input})
	if err != nil {
		return "", fmt.Errorf("phonemize %s: %w", lang.Locale(), err)
	}

	raw := ""
	if len(out) > 0 {
		raw = out[0]
	}

	ps := PostProcess(raw, lang)
	p.log.DebugContext(ctx, "phonemized",
		slog.String("lang", lang.Code()),
		slog.Int("text_len", len(input)),
		slog.Int("phoneme_len", len(ps)),
	)
	return ps, nil
}

var defaultPhonemizer = sync.OnceValue(func() *Phonemizer { return New() })

// Phonemize runs the process-wide espeak-ng Phonemizer.
func Phonemize(ctx context.Context, input, code string, normalize bool) (string, error) {
	return defaultPhonemizer().Phonemize(ctx, input, code, normalize)
}
