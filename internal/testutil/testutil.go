// Package testutil provides shared skip helpers and fixtures for tests.
//
// Each Require helper calls Skip with a clear human-readable reason when the
// named prerequisite is absent, so integration tests remain runnable in
// partial environments without failing noisily.
//
// Typical usage:
//
//	func TestMyIntegration(t *testing.T) {
//	    exe := testutil.RequireESpeak(t)
//	    ...
//	}
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
)

// ESpeakEnv overrides the espeak-ng executable used by integration tests.
const ESpeakEnv = "KOKOROG2P_PHONEMIZER_ESPEAK_PATH"

// RequireESpeak skips the test if espeak-ng is not found in PATH or at the
// path given by KOKOROG2P_PHONEMIZER_ESPEAK_PATH. It returns the resolved
// executable path.
func RequireESpeak(tb testing.TB) string {
	tb.Helper()

	exe := os.Getenv(ESpeakEnv)
	if exe == "" {
		exe = "espeak-ng"
	}

	path, err := exec.LookPath(exe)
	if err != nil {
		tb.Skipf("espeak-ng not available (%q not in PATH); set %s to override", exe, ESpeakEnv)
		return ""
	}
	return path
}

// WriteScript writes an executable shell script into a temp dir and returns
// its path. Tests that use it are skipped on Windows.
func WriteScript(tb testing.TB, name, body string) string {
	tb.Helper()

	if runtime.GOOS == "windows" {
		tb.Skipf("shell script fixtures are not supported on %s", runtime.GOOS)
		return ""
	}

	path := filepath.Join(tb.TempDir(), name)
	// #nosec G306 -- Test fixture must be executable.
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		tb.Fatalf("write script %s: %v", name, err)
	}
	return path
}
