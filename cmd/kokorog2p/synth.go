package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/example/go-kokoro-g2p/internal/config"
	"github.com/example/go-kokoro-g2p/internal/tts"
	"github.com/spf13/cobra"
)

func newSynthCmd() *cobra.Command {
	var input string
	var phonemes string
	var out string

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize text to WAV through the configured engine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if cfg.TTS.EnginePath == "" {
				return fmt.Errorf("%w: set --engine or tts.engine_path", tts.ErrNoEngine)
			}
			lang, err := config.NormalizeLanguage(cfg.Phonemizer.DefaultLang)
			if err != nil {
				return err
			}

			req := tts.Request{
				Voice:    cfg.TTS.Voice,
				Lang:     lang,
				Speed:    cfg.TTS.Speed,
				Phonemes: phonemes,
				Trim:     cfg.TTS.Trim,
			}
			if strings.TrimSpace(phonemes) == "" {
				req.Text, err = readInput(input, cmd.InOrStdin())
				if err != nil {
					return err
				}
			}

			res, err := newPipeline(cfg, newPhonemizer(cfg)).Synthesize(cmd.Context(), req)
			if err != nil {
				return err
			}

			slog.Info("synthesized",
				slog.Int("chunks", res.Chunks),
				slog.Int("samples", res.Samples),
				slog.Int("sample_rate", res.SampleRate),
			)

			return writeSynthOutput(out, res.WAV, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&input, "text", "", "Text to synthesize (if empty, read from stdin)")
	cmd.Flags().StringVar(&phonemes, "phonemes", "", "Synthesize these phonemes instead of text")
	cmd.Flags().StringVar(&out, "out", "out.wav", "Output WAV path ('-' for stdout)")

	return cmd
}

func writeSynthOutput(outPath string, wavData []byte, stdout io.Writer) error {
	if outPath == "-" {
		if stdout == nil {
			return fmt.Errorf("stdout writer is nil")
		}
		_, err := stdout.Write(wavData)
		return err
	}
	// #nosec G306 -- Output audio is not sensitive.
	return os.WriteFile(outPath, wavData, 0o644)
}
