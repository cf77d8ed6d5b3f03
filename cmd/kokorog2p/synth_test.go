package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/go-kokoro-g2p/internal/audio"
	"github.com/example/go-kokoro-g2p/internal/testutil"
	"github.com/example/go-kokoro-g2p/internal/tts"
)

// fakeEngine records the token IDs and arguments it receives and replies
// with a silent WAV of the given length.
func fakeEngine(t *testing.T, samples int) (exe, dir string) {
	t.Helper()

	dir = t.TempDir()
	wav, err := audio.EncodeWAV(make([]float32, samples), audio.SampleRate)
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

func readTrimmed(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.TrimSpace(string(data))
}

func TestSynthCmd_TextToFile(t *testing.T) {
	espeak := fakeESpeak(t)
	engine, dir := fakeEngine(t, 240)
	out := filepath.Join(t.TempDir(), "hello.wav")

	_, err := runCLI(t, "",
		"synth", "--espeak-path", espeak, "--engine", engine,
		"--voice", "bf_emma", "--speed", "1.5",
		"--text", "hello", "--out", out,
	)
	if err != nil {
		t.Fatalf("synth: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	testutil.AssertValidWAV(t, data, audio.SampleRate)
	if n := testutil.WAVSampleCount(t, data); n != 240 {
		t.Errorf("sample count = %d; want 240", n)
	}

	if got := readTrimmed(t, filepath.Join(dir, "stdin.txt")); got != "0 50 47 54 54 57 0" {
		t.Errorf("engine stdin = %q", got)
	}
	if got := readTrimmed(t, filepath.Join(dir, "args.txt")); got != "--voice bf_emma --speed 1.5 --trim" {
		t.Errorf("engine args = %q", got)
	}
}

func TestSynthCmd_PhonemesToStdout(t *testing.T) {
	engine, dir := fakeEngine(t, 10)

	got, err := runCLI(t, "",
		"synth", "--engine", engine, "--trim=false",
		"--phonemes", "ab", "--out", "-",
	)
	if err != nil {
		t.Fatalf("synth: %v", err)
	}
	testutil.AssertValidWAV(t, []byte(got), audio.SampleRate)

	if ids := readTrimmed(t, filepath.Join(dir, "stdin.txt")); ids != "0 43 44 0" {
		t.Errorf("engine stdin = %q", ids)
	}
	if args := readTrimmed(t, filepath.Join(dir, "args.txt")); args != "--voice af_sarah --speed 1" {
		t.Errorf("engine args = %q", args)
	}
}

func TestSynthCmd_NoEngine(t *testing.T) {
	_, err := runCLI(t, "", "synth", "--phonemes", "ab", "--out", "-")
	if !errors.Is(err, tts.ErrNoEngine) {
		t.Fatalf("err = %v; want ErrNoEngine", err)
	}
}

func TestSynthCmd_InvalidSpeed(t *testing.T) {
	engine, _ := fakeEngine(t, 10)

	_, err := runCLI(t, "", "synth", "--engine", engine, "--speed", "9", "--phonemes", "ab", "--out", "-")
	if !errors.Is(err, tts.ErrInvalidSpeed) {
		t.Fatalf("err = %v; want ErrInvalidSpeed", err)
	}
}

func TestWriteSynthOutput(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeSynthOutput("-", []byte("RIFF"), &buf); err != nil {
			t.Fatalf("writeSynthOutput: %v", err)
		}
		if buf.String() != "RIFF" {
			t.Errorf("stdout = %q", buf.String())
		}
	})

	t.Run("nil stdout", func(t *testing.T) {
		if err := writeSynthOutput("-", []byte("RIFF"), nil); err == nil {
			t.Fatal("expected error for nil stdout")
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.wav")
		if err := writeSynthOutput(path, []byte("RIFF"), nil); err != nil {
			t.Fatalf("writeSynthOutput: %v", err)
		}
		if got := readTrimmed(t, path); got != "RIFF" {
			t.Errorf("file = %q", got)
		}
	})
}
