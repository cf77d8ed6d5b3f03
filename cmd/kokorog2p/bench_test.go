package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/example/go-kokoro-g2p/internal/tts"
)

func TestBenchCmd_PhonemizeJSON(t *testing.T) {
	exe := fakeESpeak(t)

	got, err := runCLI(t, "", "bench", "--espeak-path", exe, "--text", "hello", "--runs", "3", "--format", "json")
	if err != nil {
		t.Fatalf("bench: %v", err)
	}

	var report struct {
		Runs []struct {
			Cold     bool `json:"cold"`
			Phonemes int  `json:"phonemes"`
		} `json:"runs"`
	}
	if err := json.Unmarshal([]byte(got), &report); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, got)
	}
	if len(report.Runs) != 3 {
		t.Fatalf("got %d runs; want 3", len(report.Runs))
	}
	if !report.Runs[0].Cold || report.Runs[1].Cold {
		t.Error("only the first run should be cold")
	}
	if report.Runs[0].Phonemes != len("hello") {
		t.Errorf("phonemes = %d; want %d", report.Runs[0].Phonemes, len("hello"))
	}
}

func TestBenchCmd_SynthTable(t *testing.T) {
	exe := fakeESpeak(t)
	engine, _ := fakeEngine(t, 2400)

	got, err := runCLI(t, "", "bench", "--espeak-path", exe, "--engine", engine, "--synth", "--text", "hello", "--runs", "2")
	if err != nil {
		t.Fatalf("bench --synth: %v", err)
	}
	if !strings.Contains(got, "RTF") || !strings.Contains(got, "100.0") {
		t.Errorf("table should report 100ms of audio per run:\n%s", got)
	}
}

func TestBenchCmd_Validation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing text", args: []string{"bench"}},
		{name: "zero runs", args: []string{"bench", "--text", "hi", "--runs", "0"}},
		{name: "bad format", args: []string{"bench", "--text", "hi", "--format", "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runCLI(t, "", tt.args...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestBenchCmd_SynthWithoutEngine(t *testing.T) {
	_, err := runCLI(t, "", "bench", "--synth", "--text", "hello")
	if !errors.Is(err, tts.ErrNoEngine) {
		t.Fatalf("err = %v; want ErrNoEngine", err)
	}
}
