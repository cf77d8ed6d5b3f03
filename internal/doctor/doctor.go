// Package doctor provides environment preflight checks for kokorog2p.
package doctor

import (
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// Oldest espeak-ng release whose IPA output the correction rules target.
const (
	minESpeakMajor = 1
	minESpeakMinor = 49
)

// VersionFunc returns a version string or an error if the component is unavailable.
type VersionFunc func() (string, error)

// VoicesFunc returns the installed espeak-ng voice languages.
type VoicesFunc func() ([]string, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// ESpeakVersion returns the first line of `espeak-ng --version`.
	ESpeakVersion VersionFunc
	// ESpeakVoices lists installed English voices.
	ESpeakVoices VoicesFunc
	// RequiredVoices must all appear in ESpeakVoices.
	RequiredVoices []string
	// Smoke phonemizes a sample sentence end to end. Nil skips it.
	Smoke VersionFunc
	// EnginePath is the optional synthesis engine. Empty skips the check.
	EnginePath string
	// LookPath resolves EnginePath; nil uses exec.LookPath.
	LookPath func(string) (string, error)
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- espeak-ng binary -------------------------------------------------
	ver, err := cfg.ESpeakVersion()
	switch {
	case err != nil:
		res.fail(fmt.Sprintf("espeak-ng binary: %v", err))
		fmt.Fprintf(w, "%s espeak-ng binary: not found (%v)\n", FailMark, err)
	default:
		if verErr := checkESpeakVersion(ver); verErr != nil {
			res.fail(fmt.Sprintf("espeak-ng version: %v", verErr))
			fmt.Fprintf(w, "%s espeak-ng version %q: %v\n", FailMark, ver, verErr)
		} else {
			fmt.Fprintf(w, "%s espeak-ng binary: %s\n", PassMark, ver)
		}
	}

	// ---- voices -------------------------------------------------------------
	if len(cfg.RequiredVoices) > 0 && cfg.ESpeakVoices != nil {
		installed, err := cfg.ESpeakVoices()
		if err != nil {
			res.fail(fmt.Sprintf("espeak-ng voices: %v", err))
			fmt.Fprintf(w, "%s espeak-ng voices: %v\n", FailMark, err)
		} else {
			for _, v := range cfg.RequiredVoices {
				if slices.Contains(installed, v) {
					fmt.Fprintf(w, "%s espeak-ng voice: %s\n", PassMark, v)
				} else {
					res.fail(fmt.Sprintf("espeak-ng voice %q not installed", v))
					fmt.Fprintf(w, "%s espeak-ng voice %s: not installed\n", FailMark, v)
				}
			}
		}
	}

	// ---- phonemizer smoke test ------------------------------------------------
	if cfg.Smoke != nil {
		ps, err := cfg.Smoke()
		switch {
		case err != nil:
			res.fail(fmt.Sprintf("phonemize: %v", err))
			fmt.Fprintf(w, "%s phonemize: %v\n", FailMark, err)
		case ps == "":
			res.fail("phonemize: empty output")
			fmt.Fprintf(w, "%s phonemize: empty output\n", FailMark)
		default:
			fmt.Fprintf(w, "%s phonemize: %s\n", PassMark, ps)
		}
	}

	// ---- synthesis engine -----------------------------------------------------
	if cfg.EnginePath == "" {
		fmt.Fprintf(w, "%s synthesis engine: not configured (skipped)\n", PassMark)
	} else {
		lookPath := cfg.LookPath
		if lookPath == nil {
			lookPath = exec.LookPath
		}
		if resolved, err := lookPath(cfg.EnginePath); err != nil {
			res.fail(fmt.Sprintf("synthesis engine %q: %v", cfg.EnginePath, err))
			fmt.Fprintf(w, "%s synthesis engine %s: not found\n", FailMark, cfg.EnginePath)
		} else {
			fmt.Fprintf(w, "%s synthesis engine: %s\n", PassMark, resolved)
		}
	}

	return res
}

var versionPattern = regexp.MustCompile(`\d+\.\d+(\.\d+)?`)

// checkESpeakVersion returns an error if the version in line is older than
// 1.49. line is expected to look like "eSpeak NG text-to-speech: 1.51 ...".
func checkESpeakVersion(line string) error {
	ver := versionPattern.FindString(line)
	if ver == "" {
		return fmt.Errorf("no version number in %q", line)
	}
	major, minor, err := parseMajorMinor(ver)
	if err != nil {
		return fmt.Errorf("cannot parse %q: %w", ver, err)
	}
	if major < minESpeakMajor || (major == minESpeakMajor && minor < minESpeakMinor) {
		return fmt.Errorf("requires espeak-ng >=%d.%d, got %d.%d", minESpeakMajor, minESpeakMinor, major, minor)
	}
	return nil
}

func parseMajorMinor(ver string) (major, minor int, err error) {
	parts := strings.SplitN(ver, ".", 3)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("unexpected version format %q", ver)
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad major in %q: %w", ver, err)
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad minor in %q: %w", ver, err)
	}
	return major, minor, nil
}
