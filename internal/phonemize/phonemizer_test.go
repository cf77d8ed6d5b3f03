package phonemize

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/example/go-kokoro-g2p/internal/vocab"
)

// recordingBackend returns canned output per input and records what it saw.
type recordingBackend struct {
	mu     sync.Mutex
	seen   []string
	output map[string]string
	err    error
	empty  bool
}

func (b *recordingBackend) Phonemize(_ context.Context, texts []string) ([]string, error) {
	b.mu.Lock()
	b.seen = append(b.seen, texts...)
	b.mu.Unlock()

	if b.err != nil {
		return nil, b.err
	}
	if b.empty {
		return nil, nil
	}
	out := make([]string, len(texts))
	for i, t := range texts {
		if ps, ok := b.output[t]; ok {
			out[i] = ps
		} else {
			out[i] = t
		}
	}
	return out, nil
}

func newStubPhonemizer(us, gb Backend) *Phonemizer {
	return New(WithBackend(USEnglish, us), WithBackend(UKEnglish, gb))
}

func TestPhonemize_UnsupportedLanguage(t *testing.T) {
	us := &recordingBackend{}
	p := newStubPhonemizer(us, us)

	for _, code := range []string{"c", "", "A", "en-us"} {
		_, err := p.Phonemize(context.Background(), "hello", code, true)
		if !errors.Is(err, ErrUnsupportedLanguage) {
			t.Errorf("Phonemize(lang=%q) error = %v; want ErrUnsupportedLanguage", code, err)
		}
	}
	if len(us.seen) != 0 {
		t.Errorf("backend was called %d times for unsupported languages", len(us.seen))
	}
}

func TestPhonemize_SelectsBackendByLanguage(t *testing.T) {
	us := &recordingBackend{output: map[string]string{"tomato": "təmˈeɪɾoʊ"}}
	gb := &recordingBackend{output: map[string]string{"tomato": "təmˈɑːtəʊ"}}
	p := newStubPhonemizer(us, gb)

	got, err := p.Phonemize(context.Background(), "tomato", "a", true)
	if err != nil {
		t.Fatalf("Phonemize(a): %v", err)
	}
	if got != "təmˈeɪɾoʊ" {
		t.Errorf("Phonemize(a) = %q", got)
	}

	got, err = p.Phonemize(context.Background(), "tomato", "b", true)
	if err != nil {
		t.Fatalf("Phonemize(b): %v", err)
	}
	if got != "təmˈɑːtəʊ" {
		t.Errorf("Phonemize(b) = %q", got)
	}
}

func TestPhonemize_NormalizesFirst(t *testing.T) {
	us := &recordingBackend{}
	p := newStubPhonemizer(us, us)

	if _, err := p.Phonemize(context.Background(), "Mr. Lee said it’s 3:15.", "a", true); err != nil {
		t.Fatalf("Phonemize: %v", err)
	}
	if _, err := p.Phonemize(context.Background(), "Mr. Lee", "a", false); err != nil {
		t.Fatalf("Phonemize: %v", err)
	}

	want := []string{"Mister Lee said it's three fifteen.", "Mr. Lee"}
	if strings.Join(us.seen, "|") != strings.Join(want, "|") {
		t.Errorf("backend saw %q; want %q", us.seen, want)
	}
}

func TestPhonemize_EmptyBackendOutput(t *testing.T) {
	us := &recordingBackend{empty: true}
	p := newStubPhonemizer(us, us)

	got, err := p.Phonemize(context.Background(), "anything", "a", true)
	if err != nil {
		t.Fatalf("Phonemize: %v", err)
	}
	if got != "" {
		t.Errorf("Phonemize = %q; want empty", got)
	}
}

func TestPhonemize_EmptyInput(t *testing.T) {
	us := &recordingBackend{}
	p := newStubPhonemizer(us, us)

	got, err := p.Phonemize(context.Background(), "", "b", true)
	if err != nil {
		t.Fatalf("Phonemize: %v", err)
	}
	if got != "" {
		t.Errorf("Phonemize(\"\") = %q; want empty", got)
	}
}

func TestPhonemize_BackendErrorPropagates(t *testing.T) {
	us := &recordingBackend{err: ErrBackendUnavailable}
	p := newStubPhonemizer(us, us)

	_, err := p.Phonemize(context.Background(), "hello", "a", true)
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("error = %v; want ErrBackendUnavailable", err)
	}
}

func TestPhonemize_KokoroCorrection(t *testing.T) {
	us := &recordingBackend{output: map[string]string{"kokoro": "kəkˈoːɹoʊ"}}
	gb := &recordingBackend{output: map[string]string{"kokoro": "kəkˈɔːɹəʊ"}}
	p := newStubPhonemizer(us, gb)

	got, err := p.Phonemize(context.Background(), "kokoro", "a", true)
	if err != nil {
		t.Fatalf("Phonemize: %v", err)
	}
	if strings.Contains(got, "kəkˈoːɹoʊ") || got != "kˈoʊkəɹoʊ" {
		t.Errorf("Phonemize(kokoro, a) = %q; want kˈoʊkəɹoʊ", got)
	}

	got, err = p.Phonemize(context.Background(), "kokoro", "b", true)
	if err != nil {
		t.Fatalf("Phonemize: %v", err)
	}
	if got != "kˈəʊkəɹəʊ" {
		t.Errorf("Phonemize(kokoro, b) = %q; want kˈəʊkəɹəʊ", got)
	}
}

func TestPhonemize_OutputWithinVocabulary(t *testing.T) {
	us := &recordingBackend{output: map[string]string{
		"junk": " t͡ʃˈɛk 123 ʲrxɬ‍\tˈɔːl ɾaɪt \U0001F600 ",
	}}
	p := newStubPhonemizer(us, us)

	got, err := p.Phonemize(context.Background(), "junk", "a", false)
	if err != nil {
		t.Fatalf("Phonemize: %v", err)
	}
	v := vocab.Get()
	for _, r := range got {
		if !v.Contains(r) {
			t.Errorf("output %q contains out-of-vocabulary rune %q", got, r)
		}
	}
	if got != strings.TrimSpace(got) {
		t.Errorf("output %q is not trimmed", got)
	}
}

func TestBatch_PreservesOrder(t *testing.T) {
	us := &recordingBackend{output: map[string]string{
		"one":   "wˈʌn",
		"two":   "tˈuː",
		"three": "θɹˈiː",
	}}
	p := newStubPhonemizer(us, us)

	got, err := p.Batch(context.Background(), []string{"one", "two", "three"}, "a", false, 3)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	want := []string{"wˈʌn", "tˈuː", "θɹˈiː"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Batch = %q; want %q", got, want)
	}
}

func TestBatch_UnsupportedLanguage(t *testing.T) {
	p := newStubPhonemizer(&recordingBackend{}, &recordingBackend{})

	_, err := p.Batch(context.Background(), []string{"x"}, "z", true, 2)
	if !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("error = %v; want ErrUnsupportedLanguage", err)
	}
}

func TestBatch_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	failing := BackendFunc(func(_ context.Context, texts []string) ([]string, error) {
		if texts[0] == "bad" {
			return nil, boom
		}
		return texts, nil
	})
	p := newStubPhonemizer(failing, failing)

	_, err := p.Batch(context.Background(), []string{"ok", "bad", "ok"}, "b", false, 1)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v; want boom", err)
	}
	if !strings.Contains(err.Error(), "input 2") {
		t.Errorf("error %q should name the failing input", err)
	}
}
