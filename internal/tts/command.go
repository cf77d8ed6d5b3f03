package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/example/go-kokoro-g2p/internal/audio"
)

// CommandEngine runs an external inference program once per chunk. The
// padded token ids are written to stdin as one space-separated line and a
// mono 16-bit WAV is read from stdout.
type CommandEngine struct {
	// Path is the engine executable.
	Path string
	// Args are passed before the per-call flags.
	Args   []string
	Logger *slog.Logger
}

// Generate implements Engine.
func (c *CommandEngine) Generate(ctx context.Context, tokens []int64, voice string, speed float64, trim bool) ([]float32, int, error) {
	if c.Path == "" {
		return nil, 0, ErrNoEngine
	}

	args := append([]string(nil), c.Args...)
	if strings.TrimSpace(voice) != "" {
		args = append(args, "--voice", voice)
	}
	args = append(args, "--speed", strconv.FormatFloat(speed, 'g', -1, 64))
	if trim {
		args = append(args, "--trim")
	}

	cmd := exec.CommandContext(ctx, c.Path, args...)
	cmd.Stdin = strings.NewReader(formatTokens(tokens) + "\n")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if c.Logger != nil {
		c.Logger.DebugContext(ctx, "engine invoke",
			slog.String("path", c.Path),
			slog.Int("tokens", len(tokens)),
			slog.String("voice", voice),
		)
	}

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: %s: %v", ErrNoEngine, c.Path, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, ctxErr
		}
		return nil, 0, fmt.Errorf("engine %s: %w: %s", c.Path, err, strings.TrimSpace(stderr.String()))
	}

	samples, rate, err := audio.DecodeWAV(stdout.Bytes())
	if err != nil {
		return nil, 0, fmt.Errorf("engine %s output: %w", c.Path, err)
	}
	return samples, rate, nil
}

func formatTokens(tokens []int64) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = strconv.FormatInt(t, 10)
	}
	return strings.Join(parts, " ")
}
