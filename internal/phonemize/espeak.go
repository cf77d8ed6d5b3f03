package phonemize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultESpeakPath is the executable looked up on PATH when none is set.
const DefaultESpeakPath = "espeak-ng"

// punctuationMarks are carried through phonemization verbatim when
// punctuation preservation is enabled.
const punctuationMarks = `;:,.!?¡¿—…"«»“”`

// ESpeak runs the espeak-ng executable once per text segment.
type ESpeak struct {
	exe      string
	dataPath string
	cfg      BackendConfig
	log      *slog.Logger
}

// ESpeakOptions locates the espeak-ng installation.
type ESpeakOptions struct {
	// Path is the espeak-ng executable. Empty means DefaultESpeakPath.
	Path string
	// DataPath is passed as --path when set (the espeak-ng-data parent dir).
	DataPath string
	Logger   *slog.Logger
}

// NewESpeak returns an espeak-ng backend for cfg.Locale.
func NewESpeak(cfg BackendConfig, opts ESpeakOptions) *ESpeak {
	exe := opts.Path
	if exe == "" {
		exe = DefaultESpeakPath
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &ESpeak{exe: exe, dataPath: opts.DataPath, cfg: cfg, log: log}
}

// Phonemize implements Backend.
func (e *ESpeak) Phonemize(ctx context.Context, texts []string) ([]string, error) {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		ps, err := e.phonemizeOne(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, ps)
	}
	return out, nil
}

func (e *ESpeak) phonemizeOne(ctx context.Context, text string) (string, error) {
	if !e.cfg.PreservePunctuation {
		return e.run(ctx, text)
	}

	var out strings.Builder
	spaceBefore := false
	for _, seg := range splitPunctuation(text) {
		core := strings.TrimSpace(seg.text)
		if core == "" {
			spaceBefore = spaceBefore || seg.text != ""
			continue
		}

		piece := core
		if !seg.punct {
			ps, err := e.run(ctx, core)
			if err != nil {
				return "", err
			}
			piece = ps
		}

		if out.Len() > 0 && spaceBefore {
			out.WriteByte(' ')
		}
		out.WriteString(piece)
		spaceBefore = endsWithSpace(seg.text)
	}
	return out.String(), nil
}

func (e *ESpeak) run(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	args := []string{"-q", "--ipa", "-v", e.cfg.Locale}
	if e.dataPath != "" {
		args = append(args, "--path="+e.dataPath)
	}
	args = append(args, "--stdin")

	cmd := exec.CommandContext(ctx, e.exe, args...)
	cmd.Stdin = strings.NewReader(norm.NFC.String(text))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.log.DebugContext(ctx, "espeak-ng invoke",
		slog.String("locale", e.cfg.Locale),
		slog.Int("text_len", len(text)),
	)

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, e.exe, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("espeak-ng %s: %w: %s", e.cfg.Locale, err, strings.TrimSpace(stderr.String()))
	}

	ps := strings.Join(strings.Fields(stdout.String()), " ")
	if !e.cfg.WithStress {
		ps = strings.NewReplacer("ˈ", "", "ˌ", "").Replace(ps)
	}
	return ps, nil
}

// Version returns the first line of `espeak-ng --version`.
func (e *ESpeak) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, e.exe, "--version").Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, e.exe, err)
		}
		return "", fmt.Errorf("%s --version: %w", e.exe, err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return line, nil
}

// Voices returns the language names listed by `espeak-ng --voices=<prefix>`.
func (e *ESpeak) Voices(ctx context.Context, prefix string) ([]string, error) {
	args := []string{"--voices=" + prefix}
	if e.dataPath != "" {
		args = append([]string{"--path=" + e.dataPath}, args...)
	}
	out, err := exec.CommandContext(ctx, e.exe, args...).Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, e.exe, err)
		}
		return nil, fmt.Errorf("%s --voices: %w", e.exe, err)
	}
	return parseVoices(string(out)), nil
}

// parseVoices extracts the Language column from an espeak-ng voice table.
func parseVoices(table string) []string {
	var langs []string
	for i, line := range strings.Split(table, "\n") {
		fields := strings.Fields(line)
		if i == 0 && len(fields) > 0 && fields[0] == "Pty" {
			continue
		}
		if len(fields) < 2 {
			continue
		}
		langs = append(langs, fields[1])
	}
	return langs
}

type segment struct {
	text  string
	punct bool
}

// splitPunctuation cuts s into alternating word and punctuation runs.
// Whitespace stays attached to the run it follows.
func splitPunctuation(s string) []segment {
	var segs []segment
	var buf strings.Builder
	inPunct := false

	for _, r := range s {
		if unicode.IsSpace(r) {
			buf.WriteRune(r)
			continue
		}
		isMark := strings.ContainsRune(punctuationMarks, r)
		if isMark != inPunct {
			if buf.Len() > 0 {
				segs = append(segs, segment{text: buf.String(), punct: inPunct})
				buf.Reset()
			}
			inPunct = isMark
		}
		buf.WriteRune(r)
	}
	if buf.Len() > 0 {
		segs = append(segs, segment{text: buf.String(), punct: inPunct})
	}
	return segs
}

func endsWithSpace(s string) bool {
	if s == "" {
		return false
	}
	r := []rune(s)
	return unicode.IsSpace(r[len(r)-1])
}
