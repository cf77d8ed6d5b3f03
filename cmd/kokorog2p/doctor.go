package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/go-kokoro-g2p/internal/config"
	"github.com/example/go-kokoro-g2p/internal/doctor"
	"github.com/example/go-kokoro-g2p/internal/phonemize"
	"github.com/spf13/cobra"
)

const doctorProbeTimeout = 10 * time.Second

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check espeak-ng and the synthesis engine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			res := doctor.Run(doctorConfig(cmd.Context(), cfg), out)

			if res.Failed() {
				errOut := cmd.ErrOrStderr()
				for _, f := range res.Failures() {
					_, _ = fmt.Fprintf(errOut, "FAIL: %s\n", f)
				}
				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(out, "doctor checks passed")
			return nil
		},
	}
}

func doctorConfig(ctx context.Context, cfg config.Config) doctor.Config {
	es := phonemize.NewESpeak(phonemize.BackendConfig{}, espeakOptions(cfg))

	required := make([]string, 0, len(phonemize.Languages()))
	for _, lang := range phonemize.Languages() {
		required = append(required, lang.Locale())
	}

	return doctor.Config{
		ESpeakVersion: func() (string, error) {
			pctx, cancel := context.WithTimeout(ctx, doctorProbeTimeout)
			defer cancel()
			return es.Version(pctx)
		},
		ESpeakVoices: func() ([]string, error) {
			pctx, cancel := context.WithTimeout(ctx, doctorProbeTimeout)
			defer cancel()
			return es.Voices(pctx, "en")
		},
		RequiredVoices: required,
		Smoke: func() (string, error) {
			pctx, cancel := context.WithTimeout(ctx, doctorProbeTimeout)
			defer cancel()
			return newPhonemizer(cfg).Phonemize(pctx, "hello", config.LangUSEnglish, true)
		},
		EnginePath: cfg.TTS.EnginePath,
	}
}
