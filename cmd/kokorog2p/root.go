package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/example/go-kokoro-g2p/internal/config"
	"github.com/example/go-kokoro-g2p/internal/phonemize"
	"github.com/example/go-kokoro-g2p/internal/server"
	"github.com/example/go-kokoro-g2p/internal/tts"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	activeCfg config.Config
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "kokorog2p",
		Short:         "Kokoro text normalizer, phonemizer and tokenizer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			activeCfg = loaded
			setupLogger(loaded.LogLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newNormalizeCmd())
	cmd.AddCommand(newPhonemizeCmd())
	cmd.AddCommand(newTokenizeCmd())
	cmd.AddCommand(newVocabCmd())
	cmd.AddCommand(newSynthCmd())
	cmd.AddCommand(newBenchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHealthCmd())
	cmd.AddCommand(newDoctorCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr string) {
	lvl, err := server.ParseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}

func requireConfig() (config.Config, error) {
	if activeCfg.Phonemizer.DefaultLang == "" {
		return config.Config{}, errors.New("configuration not loaded")
	}
	return activeCfg, nil
}

// readInput returns flagValue when it is set, otherwise all of stdin.
func readInput(flagValue string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue, nil
	}

	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	input := strings.TrimSpace(string(b))
	if input == "" {
		return "", errors.New("either provide --text or pipe text on stdin")
	}
	return input, nil
}

func espeakOptions(cfg config.Config) phonemize.ESpeakOptions {
	return phonemize.ESpeakOptions{
		Path:     cfg.Phonemizer.ESpeakPath,
		DataPath: cfg.Phonemizer.ESpeakDataPath,
		Logger:   slog.Default(),
	}
}

func newPhonemizer(cfg config.Config) *phonemize.Phonemizer {
	return phonemize.New(
		phonemize.WithESpeak(espeakOptions(cfg)),
		phonemize.WithLogger(slog.Default()),
	)
}

// newPipeline builds the synthesis pipeline. Without a configured engine
// path the pipeline still phonemizes but Synthesize reports tts.ErrNoEngine.
func newPipeline(cfg config.Config, p tts.Phonemizer) *tts.Pipeline {
	opts := []tts.PipelineOption{
		tts.WithDefaultVoice(cfg.TTS.Voice),
		tts.WithMaxPhonemes(cfg.TTS.MaxPhonemes),
		tts.WithLogger(slog.Default()),
	}
	if cfg.TTS.EnginePath != "" {
		opts = append(opts, tts.WithEngine(&tts.CommandEngine{
			Path:   cfg.TTS.EnginePath,
			Args:   cfg.TTS.EngineArgs,
			Logger: slog.Default(),
		}))
	}
	return tts.NewPipeline(p, opts...)
}
