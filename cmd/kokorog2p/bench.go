package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/example/go-kokoro-g2p/internal/bench"
	"github.com/example/go-kokoro-g2p/internal/config"
	"github.com/example/go-kokoro-g2p/internal/tts"
	"github.com/spf13/cobra"
)

func newBenchCmd() *cobra.Command {
	var (
		text         string
		runs         int
		format       string
		synth        bool
		rtfThreshold float64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark phonemization latency, or synthesis realtime factor with --synth",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if strings.TrimSpace(text) == "" {
				return errors.New("--text is required for bench")
			}
			if format != "table" && format != "json" {
				return errors.New("--format must be 'table' or 'json'")
			}
			lang, err := config.NormalizeLanguage(cfg.Phonemizer.DefaultLang)
			if err != nil {
				return err
			}

			p := newPhonemizer(cfg)
			target := func(ctx context.Context) (bench.Sample, error) {
				ps, err := p.Phonemize(ctx, text, lang, true)
				return bench.Sample{Phonemes: utf8.RuneCountInString(ps)}, err
			}
			if synth {
				if cfg.TTS.EnginePath == "" {
					return fmt.Errorf("%w: --synth needs --engine", tts.ErrNoEngine)
				}
				pipeline := newPipeline(cfg, p)
				target = func(ctx context.Context) (bench.Sample, error) {
					res, err := pipeline.Synthesize(ctx, tts.Request{
						Text:  text,
						Voice: cfg.TTS.Voice,
						Lang:  lang,
						Speed: cfg.TTS.Speed,
						Trim:  cfg.TTS.Trim,
					})
					return bench.Sample{Phonemes: utf8.RuneCountInString(res.Phonemes), WAV: res.WAV}, err
				}
			}

			results, err := bench.Run(cmd.Context(), target, runs)
			if err != nil {
				return err
			}
			stats := bench.ComputeStats(bench.Durations(results))

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				if err := bench.FormatJSON(results, stats, out); err != nil {
					return err
				}
			default:
				bench.FormatTable(results, stats, out)
			}

			return bench.CheckRTFThreshold(bench.MeanRTF(results), rtfThreshold)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to process on each run (required)")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of runs")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().BoolVar(&synth, "synth", false, "Benchmark full synthesis through the engine")
	cmd.Flags().Float64Var(&rtfThreshold, "rtf-threshold", 0, "Exit non-zero if mean RTF exceeds this value (0 = disabled)")

	return cmd
}
