// Package bench measures phonemization and synthesis latency for the
// kokorog2p bench command.
package bench

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/example/go-kokoro-g2p/internal/audio"
)

// Sample is what one benchmarked call produced.
type Sample struct {
	Phonemes int
	WAV      []byte // empty for phonemize-only runs
}

// Target performs one benchmarked call.
type Target func(ctx context.Context) (Sample, error)

// RunResult holds the timing and output size of a single run.
type RunResult struct {
	Index    int
	Cold     bool // first run
	Duration time.Duration
	Phonemes int
	Audio    time.Duration
	RTF      float64
}

// Stats holds aggregate timing statistics across all runs.
type Stats struct {
	Min    time.Duration
	Median time.Duration
	Mean   time.Duration
	Max    time.Duration
}

// Run calls target runs times in sequence and records each call.
func Run(ctx context.Context, target Target, runs int) ([]RunResult, error) {
	if runs < 1 {
		return nil, errors.New("runs must be at least 1")
	}

	results := make([]RunResult, 0, runs)
	for i := range runs {
		start := time.Now()
		s, err := target(ctx)
		if err != nil {
			return nil, fmt.Errorf("run %d failed: %w", i+1, err)
		}
		dur := time.Since(start)

		r := RunResult{Index: i, Cold: i == 0, Duration: dur, Phonemes: s.Phonemes}
		if len(s.WAV) > 0 {
			audioDur, err := WAVDuration(s.WAV)
			if err != nil {
				return nil, fmt.Errorf("run %d: %w", i+1, err)
			}
			r.Audio = audioDur
			r.RTF = CalcRTF(dur, audioDur)
		}
		results = append(results, r)
	}
	return results, nil
}

// ComputeStats calculates min, median, mean and max over durations.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}
	sorted := slices.Clone(durations)
	slices.Sort(sorted)

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}

	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}

	return Stats{
		Min:    sorted[0],
		Median: median,
		Mean:   sum / time.Duration(len(sorted)),
		Max:    sorted[len(sorted)-1],
	}
}

// Durations extracts the per-run wall times.
func Durations(runs []RunResult) []time.Duration {
	out := make([]time.Duration, len(runs))
	for i, r := range runs {
		out[i] = r.Duration
	}
	return out
}

// MeanRTF averages RTF over the runs that produced audio.
func MeanRTF(runs []RunResult) float64 {
	var sum float64
	n := 0
	for _, r := range runs {
		if r.Audio > 0 {
			sum += r.RTF
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// CalcRTF returns synthesis_duration / audio_duration, or 0 without audio.
func CalcRTF(synthDur, audioDur time.Duration) float64 {
	if audioDur <= 0 {
		return 0
	}
	return float64(synthDur) / float64(audioDur)
}

// PhonemeRate returns phonemes produced per second of wall time.
func PhonemeRate(phonemes int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(phonemes) / d.Seconds()
}

// WAVDuration returns the playback length of a mono 16-bit WAV file.
func WAVDuration(wav []byte) (time.Duration, error) {
	samples, rate, err := audio.DecodeWAV(wav)
	if err != nil {
		return 0, err
	}
	return time.Duration(audio.Duration(len(samples), rate) * float64(time.Second)), nil
}

// CheckRTFThreshold returns an error if meanRTF > threshold.
// A threshold of 0 disables the gate.
func CheckRTFThreshold(meanRTF, threshold float64) error {
	if threshold <= 0 {
		return nil
	}
	if meanRTF > threshold {
		return fmt.Errorf("mean RTF %.3f exceeds threshold %.3f", meanRTF, threshold)
	}
	return nil
}

func ms(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }

// FormatTable writes a human-readable table of bench results to w.
func FormatTable(runs []RunResult, stats Stats, w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "%-5s  %-5s  %10s  %9s  %11s  %12s  %8s\n", "Run", "Cold", "MS", "Phonemes", "Phonemes/s", "Audio(ms)", "RTF")
	fmt.Fprintln(sb, strings.Repeat("-", 72))

	for _, r := range runs {
		cold := ""
		if r.Cold {
			cold = "yes"
		}
		fmt.Fprintf(sb, "%-5d  %-5s  %10.2f  %9d  %11.0f  %12.1f  %8.3f\n",
			r.Index+1,
			cold,
			ms(r.Duration),
			r.Phonemes,
			PhonemeRate(r.Phonemes, r.Duration),
			ms(r.Audio),
			r.RTF,
		)
	}

	fmt.Fprintln(sb, strings.Repeat("-", 72))
	for _, row := range []struct {
		label string
		d     time.Duration
	}{{"min", stats.Min}, {"median", stats.Median}, {"mean", stats.Mean}, {"max", stats.Max}} {
		fmt.Fprintf(sb, "%-12s  %10.2f\n", row.label, ms(row.d))
	}

	fmt.Fprint(w, sb.String())
}

type jsonReport struct {
	Runs  []jsonRun `json:"runs"`
	Stats jsonStats `json:"stats"`
}

type jsonRun struct {
	Index       int     `json:"index"`
	Cold        bool    `json:"cold"`
	DurationMS  float64 `json:"duration_ms"`
	Phonemes    int     `json:"phonemes"`
	PhonemeRate float64 `json:"phonemes_per_sec"`
	AudioMS     float64 `json:"audio_ms,omitempty"`
	RTF         float64 `json:"rtf,omitempty"`
}

type jsonStats struct {
	MinMS    float64 `json:"min_ms"`
	MedianMS float64 `json:"median_ms"`
	MeanMS   float64 `json:"mean_ms"`
	MaxMS    float64 `json:"max_ms"`
}

// FormatJSON writes a JSON report of bench results to w.
func FormatJSON(runs []RunResult, stats Stats, w io.Writer) error {
	jr := jsonReport{
		Runs: make([]jsonRun, len(runs)),
		Stats: jsonStats{
			MinMS:    ms(stats.Min),
			MedianMS: ms(stats.Median),
			MeanMS:   ms(stats.Mean),
			MaxMS:    ms(stats.Max),
		},
	}
	for i, r := range runs {
		jr.Runs[i] = jsonRun{
			Index:       r.Index,
			Cold:        r.Cold,
			DurationMS:  ms(r.Duration),
			Phonemes:    r.Phonemes,
			PhonemeRate: PhonemeRate(r.Phonemes, r.Duration),
			AudioMS:     ms(r.Audio),
			RTF:         r.RTF,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jr)
}
