package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/example/go-kokoro-g2p/internal/config"
	"github.com/example/go-kokoro-g2p/internal/testutil"
)

// fakeESpeak answers --version and --voices like espeak-ng and echoes
// phonemization input back unchanged.
func fakeESpeak(t *testing.T) string {
	t.Helper()

	return testutil.WriteScript(t, "espeak-ng", `case "$1" in
--version) echo "eSpeak NG text-to-speech: 1.51  Data at: /usr/share/espeak-ng-data" ;;
--voices=*)
  echo "Pty Language       Age/Gender VoiceName          File                 Other Languages"
  echo " 2  en-gb           --/M      English_(Great_Britain) gmw/en"
  echo " 2  en-us           --/M      English_(America)  gmw/en-US"
  ;;
*) cat ;;
esac`)
}

// runCLI executes the root command with args and stdin and returns stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	orig := activeCfg
	t.Cleanup(func() { activeCfg = orig })

	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)

	err := root.Execute()
	return out.String(), err
}

func TestNewRootCmd_HasExpectedSubcommands(t *testing.T) {
	root := NewRootCmd()

	want := []string{"normalize", "phonemize", "tokenize", "vocab", "synth", "bench", "serve", "health", "doctor"}
	for _, name := range want {
		found := false

		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}

		if !found {
			t.Errorf("expected subcommand %q not found in root", name)
		}
	}
}

func TestNewRootCmd_HasPersistentFlags(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"config", "lang", "espeak-path", "engine", "log-level"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected --%s persistent flag to be registered", name)
		}
	}
}

func TestSetupLogger_DoesNotPanic(_ *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		setupLogger(level)
	}
}

func TestSetupLogger_InvalidLevelFallsBackToInfo(_ *testing.T) {
	setupLogger("not-a-level")
}

func TestRequireConfig_FailsWhenNotInitialized(t *testing.T) {
	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	activeCfg = config.Config{}

	_, err := requireConfig()
	if err == nil {
		t.Fatal("expected error when config is not loaded")
	}
}

func TestRequireConfig_SucceedsWhenLoaded(t *testing.T) {
	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	activeCfg = config.DefaultConfig()
	activeCfg.Phonemizer.DefaultLang = "b"

	got, err := requireConfig()
	if err != nil {
		t.Fatalf("requireConfig returned unexpected error: %v", err)
	}

	if got.Phonemizer.DefaultLang != "b" {
		t.Errorf("unexpected DefaultLang: %q", got.Phonemizer.DefaultLang)
	}
}

func TestReadInput(t *testing.T) {
	t.Run("flag wins", func(t *testing.T) {
		got, err := readInput("from flag", strings.NewReader("from stdin"))
		if err != nil || got != "from flag" {
			t.Fatalf("readInput = %q, %v", got, err)
		}
	})

	t.Run("stdin is trimmed", func(t *testing.T) {
		got, err := readInput("", strings.NewReader("  from stdin\n"))
		if err != nil || got != "from stdin" {
			t.Fatalf("readInput = %q, %v", got, err)
		}
	})

	t.Run("nothing given", func(t *testing.T) {
		if _, err := readInput(" ", strings.NewReader("\n")); err == nil {
			t.Fatal("expected error for empty input")
		}
	})
}

func TestRoot_InvalidLanguage(t *testing.T) {
	_, err := runCLI(t, "", "phonemize", "--lang", "fr", "--text", "bonjour")
	if err == nil || !strings.Contains(err.Error(), "invalid language") {
		t.Fatalf("err = %v; want invalid language", err)
	}
}
