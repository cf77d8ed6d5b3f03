// Package tts turns text into speech by chaining the phonemizer, the
// vocabulary tokenizer and an external Kokoro inference engine.
package tts

import (
	"context"
	"errors"
)

// ErrNoEngine is returned when synthesis is requested without an engine.
var ErrNoEngine = errors.New("no synthesis engine configured")

// Engine runs the neural model on one padded token sequence and returns
// mono samples at the returned sample rate.
type Engine interface {
	Generate(ctx context.Context, tokens []int64, voice string, speed float64, trim bool) ([]float32, int, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, tokens []int64, voice string, speed float64, trim bool) ([]float32, int, error)

func (f EngineFunc) Generate(ctx context.Context, tokens []int64, voice string, speed float64, trim bool) ([]float32, int, error) {
	return f(ctx, tokens, voice, speed, trim)
}
