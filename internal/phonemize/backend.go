package phonemize

import (
	"context"
	"errors"
)

// ErrBackendUnavailable is returned when the grapheme-to-phoneme backend
// cannot be started, for example because espeak-ng is not installed.
var ErrBackendUnavailable = errors.New("phonemizer backend unavailable")

// Backend converts text to phonemes. Implementations receive a batch of
// texts and return one phoneme string per text; an empty result is valid.
type Backend interface {
	Phonemize(ctx context.Context, texts []string) ([]string, error)
}

// BackendConfig is the per-locale configuration handed to a backend.
type BackendConfig struct {
	Locale              string
	PreservePunctuation bool
	WithStress          bool
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, texts []string) ([]string, error)

func (f BackendFunc) Phonemize(ctx context.Context, texts []string) ([]string, error) {
	return f(ctx, texts)
}
