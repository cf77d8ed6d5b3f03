package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/example/go-kokoro-g2p/internal/audio"
	"github.com/example/go-kokoro-g2p/internal/text"
	"github.com/example/go-kokoro-g2p/internal/tokenizer"
)

// Defaults for a synthesis Request.
const (
	DefaultVoice       = "af_sarah"
	DefaultLang        = "a"
	DefaultSpeed       = 1.0
	MaxSpeed           = 5.0
	DefaultMaxPhonemes = 510
)

// ErrInvalidSpeed is returned for a speed outside (0, MaxSpeed].
var ErrInvalidSpeed = errors.New("speed out of range")

// Phonemizer is the part of phonemize.Phonemizer the pipeline uses.
type Phonemizer interface {
	Phonemize(ctx context.Context, input, lang string, normalize bool) (string, error)
}

// Request describes one synthesis call. Zero values select the defaults.
type Request struct {
	Text  string
	Voice string
	Lang  string
	Speed float64
	// Phonemes, when set, bypasses normalization and phonemization.
	Phonemes string
	Trim     bool
}

// Result is the synthesized audio plus what was fed to the engine.
type Result struct {
	WAV        []byte
	SampleRate int
	Samples    int
	Phonemes   string
	Chunks     int
}

type pipelineOptions struct {
	engine      Engine
	tokenizer   tokenizer.Tokenizer
	voice       string
	maxPhonemes int
	logger      *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*pipelineOptions)

// WithEngine sets the inference engine. Without one Synthesize fails with
// ErrNoEngine.
func WithEngine(e Engine) PipelineOption {
	return func(o *pipelineOptions) { o.engine = e }
}

// WithTokenizer replaces the Kokoro vocabulary tokenizer.
func WithTokenizer(t tokenizer.Tokenizer) PipelineOption {
	return func(o *pipelineOptions) { o.tokenizer = t }
}

// WithDefaultVoice sets the voice used when a Request leaves it empty.
func WithDefaultVoice(v string) PipelineOption {
	return func(o *pipelineOptions) { o.voice = v }
}

// WithMaxPhonemes caps the phoneme count of a single engine call.
func WithMaxPhonemes(n int) PipelineOption {
	return func(o *pipelineOptions) { o.maxPhonemes = n }
}

// WithLogger sets the pipeline logger.
func WithLogger(l *slog.Logger) PipelineOption {
	return func(o *pipelineOptions) { o.logger = l }
}

// Pipeline is safe for concurrent use if its Engine is.
type Pipeline struct {
	phonemizer  Phonemizer
	engine      Engine
	tokenizer   tokenizer.Tokenizer
	voice       string
	maxPhonemes int
	log         *slog.Logger
}

// NewPipeline builds a Pipeline around p.
func NewPipeline(p Phonemizer, opts ...PipelineOption) *Pipeline {
	o := pipelineOptions{
		voice:       DefaultVoice,
		maxPhonemes: DefaultMaxPhonemes,
		logger:      slog.Default(),
	}
	for _, fn := range opts {
		fn(&o)
	}
	if o.tokenizer == nil {
		o.tokenizer = tokenizer.NewVocab(nil)
	}
	if o.maxPhonemes < 1 {
		o.maxPhonemes = DefaultMaxPhonemes
	}
	return &Pipeline{
		phonemizer:  p,
		engine:      o.engine,
		tokenizer:   o.tokenizer,
		voice:       o.voice,
		maxPhonemes: o.maxPhonemes,
		log:         o.logger,
	}
}

// HasEngine reports whether Synthesize can produce audio.
func (p *Pipeline) HasEngine() bool { return p.engine != nil }

// Synthesize phonemizes req (unless it carries phonemes), splits the
// phonemes into engine-sized chunks, runs the engine on each padded chunk
// and returns the concatenated audio as a WAV file.
func (p *Pipeline) Synthesize(ctx context.Context, req Request) (Result, error) {
	if p.engine == nil {
		return Result{}, ErrNoEngine
	}

	speed := req.Speed
	if speed == 0 {
		speed = DefaultSpeed
	}
	if math.IsNaN(speed) || speed <= 0 || speed > MaxSpeed {
		return Result{}, fmt.Errorf("%w: %g (want 0 < speed <= %g)", ErrInvalidSpeed, req.Speed, MaxSpeed)
	}
	voice := req.Voice
	if voice == "" {
		voice = p.voice
	}
	lang := req.Lang
	if lang == "" {
		lang = DefaultLang
	}

	ps := strings.TrimSpace(req.Phonemes)
	if ps == "" {
		if strings.TrimSpace(req.Text) == "" {
			return Result{}, text.ErrEmptyText
		}
		var err error
		ps, err = p.phonemizer.Phonemize(ctx, req.Text, lang, true)
		if err != nil {
			return Result{}, err
		}
		if ps == "" {
			return Result{}, fmt.Errorf("%w: no phonemes produced", text.ErrEmptyText)
		}
	}

	chunks := text.ChunkBySentence(ps, p.maxPhonemes)
	parts := make([][]float32, 0, len(chunks))
	rate := 0

	for i, chunk := range chunks {
		ids, err := p.tokenizer.Encode(chunk)
		if err != nil {
			return Result{}, fmt.Errorf("tokenize chunk %d: %w", i+1, err)
		}
		if len(ids) == 0 {
			continue
		}

		samples, chunkRate, err := p.engine.Generate(ctx, tokenizer.Pad(ids), voice, speed, req.Trim)
		if err != nil {
			return Result{}, fmt.Errorf("generate chunk %d/%d: %w", i+1, len(chunks), err)
		}
		if rate != 0 && chunkRate != rate {
			return Result{}, fmt.Errorf("chunk %d sample rate %d differs from %d", i+1, chunkRate, rate)
		}
		rate = chunkRate
		parts = append(parts, samples)

		p.log.DebugContext(ctx, "chunk synthesized",
			slog.Int("chunk", i+1),
			slog.Int("tokens", len(ids)),
			slog.Int("samples", len(samples)),
		)
	}

	if rate == 0 {
		rate = audio.SampleRate
	}
	samples := audio.Concat(parts...)
	wav, err := audio.EncodeWAV(samples, rate)
	if err != nil {
		return Result{}, fmt.Errorf("encode wav: %w", err)
	}

	return Result{
		WAV:        wav,
		SampleRate: rate,
		Samples:    len(samples),
		Phonemes:   ps,
		Chunks:     len(parts),
	}, nil
}
