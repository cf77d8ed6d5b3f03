package tts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/go-kokoro-g2p/internal/audio"
	"github.com/example/go-kokoro-g2p/internal/testutil"
)

// fakeEngine writes a script that records its stdin and arguments and
// replies with a fixed WAV file.
func fakeEngine(t *testing.T, samples int, rate int) (exe, dir string) {
	t.Helper()

	dir = t.TempDir()
	wav, err := audio.EncodeWAV(make([]float32, samples), rate)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "out.wav"), wav, 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}

	exe = testutil.WriteScript(t, "kokoro-engine", strings.Join([]string{
		`cat > "` + dir + `/stdin.txt"`,
		`echo "$@" > "` + dir + `/args.txt"`,
		`cat "` + dir + `/out.wav"`,
	}, "\n"))
	return exe, dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.TrimSpace(string(data))
}

func TestCommandEngine_Generate(t *testing.T) {
	exe, dir := fakeEngine(t, 120, 24000)

	e := &CommandEngine{Path: exe, Args: []string{"--model", "kokoro.onnx"}}
	samples, rate, err := e.Generate(context.Background(), []int64{0, 50, 83, 0}, "af_sarah", 1.25, true)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(samples) != 120 || rate != 24000 {
		t.Errorf("got %d samples at %d Hz; want 120 at 24000", len(samples), rate)
	}

	if got := readFile(t, filepath.Join(dir, "stdin.txt")); got != "0 50 83 0" {
		t.Errorf("stdin = %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "args.txt")); got != "--model kokoro.onnx --voice af_sarah --speed 1.25 --trim" {
		t.Errorf("args = %q", got)
	}
}

func TestCommandEngine_OmitsEmptyVoiceAndTrim(t *testing.T) {
	exe, dir := fakeEngine(t, 1, 24000)

	e := &CommandEngine{Path: exe}
	if _, _, err := e.Generate(context.Background(), []int64{0, 0}, "", 1, false); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := readFile(t, filepath.Join(dir, "args.txt")); got != "--speed 1" {
		t.Errorf("args = %q", got)
	}
}

func TestCommandEngine_Missing(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "nope")} {
		e := &CommandEngine{Path: path}
		_, _, err := e.Generate(context.Background(), []int64{0}, "v", 1, false)
		if !errors.Is(err, ErrNoEngine) {
			t.Errorf("Path %q: error = %v; want ErrNoEngine", path, err)
		}
	}
}

func TestCommandEngine_Failure(t *testing.T) {
	exe := testutil.WriteScript(t, "kokoro-engine", "echo 'unknown voice' >&2\nexit 2")

	e := &CommandEngine{Path: exe}
	_, _, err := e.Generate(context.Background(), []int64{0}, "zz", 1, false)
	if err == nil || !strings.Contains(err.Error(), "unknown voice") {
		t.Fatalf("error = %v; want stderr in message", err)
	}
}

func TestCommandEngine_BadOutput(t *testing.T) {
	exe := testutil.WriteScript(t, "kokoro-engine", "echo not-a-wav")

	e := &CommandEngine{Path: exe}
	if _, _, err := e.Generate(context.Background(), []int64{0}, "", 1, false); err == nil {
		t.Fatal("expected error for non-WAV output")
	}
}

func TestPipelineWithCommandEngine(t *testing.T) {
	exe, dir := fakeEngine(t, 48, 24000)

	p := NewPipeline(&stubPhonemizer{}, WithEngine(&CommandEngine{Path: exe}))
	res, err := p.Synthesize(context.Background(), Request{Phonemes: "ɑ", Speed: 0.8})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	testutil.AssertValidWAV(t, res.WAV, 24000)
	if res.Samples != 48 {
		t.Errorf("Samples = %d; want 48", res.Samples)
	}
	if got := readFile(t, filepath.Join(dir, "stdin.txt")); got != "0 69 0" {
		t.Errorf("stdin = %q; want padded ɑ", got)
	}
}
