package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/example/go-kokoro-g2p/internal/config"
	"github.com/example/go-kokoro-g2p/internal/text"
	"github.com/example/go-kokoro-g2p/internal/tokenizer"
	"github.com/example/go-kokoro-g2p/internal/vocab"
	"github.com/spf13/cobra"
)

func newNormalizeCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Normalize text for phonemization",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := requireConfig(); err != nil {
				return err
			}
			s, err := readInput(input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text.Normalize(s))
			return err
		},
	}

	cmd.Flags().StringVar(&input, "text", "", "Text to normalize (if empty, read from stdin)")

	return cmd
}

func newPhonemizeCmd() *cobra.Command {
	var input string
	var noNormalize bool
	var batch bool

	cmd := &cobra.Command{
		Use:   "phonemize",
		Short: "Convert text to Kokoro phonemes",
		Long: "Convert text to Kokoro phonemes. With --batch every non-blank input " +
			"line is phonemized independently and printed on its own line.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			lang, err := config.NormalizeLanguage(cfg.Phonemizer.DefaultLang)
			if err != nil {
				return err
			}
			s, err := readInput(input, cmd.InOrStdin())
			if err != nil {
				return err
			}

			p := newPhonemizer(cfg)
			out := cmd.OutOrStdout()

			if !batch {
				ps, err := p.Phonemize(cmd.Context(), s, lang, !noNormalize)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, ps)
				return err
			}

			results, err := p.Batch(cmd.Context(), splitLines(s), lang, !noNormalize, cfg.Phonemizer.Workers)
			if err != nil {
				return err
			}
			for _, ps := range results {
				if _, err := fmt.Fprintln(out, ps); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "text", "", "Text to phonemize (if empty, read from stdin)")
	cmd.Flags().BoolVar(&noNormalize, "no-normalize", false, "Skip text normalization")
	cmd.Flags().BoolVar(&batch, "batch", false, "Phonemize each input line separately")

	return cmd
}

func newTokenizeCmd() *cobra.Command {
	var input string
	var phonemes string
	var pad bool

	cmd := &cobra.Command{
		Use:   "tokenize",
		Short: "Map phonemes to Kokoro token IDs",
		Long: "Map phonemes to Kokoro token IDs. Phonemes come from --phonemes or " +
			"stdin; with --text the text is phonemized first.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			ps := phonemes
			if strings.TrimSpace(input) != "" {
				lang, err := config.NormalizeLanguage(cfg.Phonemizer.DefaultLang)
				if err != nil {
					return err
				}
				ps, err = newPhonemizer(cfg).Phonemize(cmd.Context(), input, lang, true)
				if err != nil {
					return err
				}
			} else if ps, err = readInput(ps, cmd.InOrStdin()); err != nil {
				return err
			}

			ids, err := tokenizer.NewVocab(nil).Encode(ps)
			if err != nil {
				return err
			}
			if pad {
				ids = tokenizer.Pad(ids)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), joinIDs(ids))
			return err
		},
	}

	cmd.Flags().StringVar(&input, "text", "", "Text to phonemize before tokenizing")
	cmd.Flags().StringVar(&phonemes, "phonemes", "", "Phonemes to tokenize (if empty, read from stdin)")
	cmd.Flags().BoolVar(&pad, "pad", false, "Surround the IDs with the pad token")

	return cmd
}

func newVocabCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vocab",
		Short: "Print the Kokoro symbol table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := vocab.Get()
			out := cmd.OutOrStdout()
			for i, r := range vocab.Symbols() {
				// Duplicate symbols resolve to their last index.
				if v[r] != i {
					continue
				}
				if _, err := fmt.Fprintf(out, "%d\t%q\n", i, string(r)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, " ")
}
