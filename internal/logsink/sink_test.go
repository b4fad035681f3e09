package logsink

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLogCreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "log")
	s := New(filepath.Join(dir, "run.log"), false)
	defer s.Close()

	if err := s.Log(Info, "test", "hello"); err != nil {
		t.Fatalf("Log returned error: %v", err)
	}

	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("log directory was not created: %v", err)
	}
}

func TestLogEntryFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	s := New(path, false)
	defer s.Close()
	s.now = func() time.Time {
		return time.Date(2026, 8, 23, 10, 30, 0, 0, time.UTC)
	}

	if err := s.Log(Warn, "executor", "result: fail"); err != nil {
		t.Fatalf("Log returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	want := "2026-08-23 10:30:00  executor:  [WARN] result: fail\n"
	if string(data) != want {
		t.Errorf("entry format mismatch:\n got %q\nwant %q", string(data), want)
	}
}

func TestLogAppendsAcrossCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	s := New(path, false)
	defer s.Close()

	for _, msg := range []string{"one", "two", "three"} {
		if err := s.Log(Info, "test", msg); err != nil {
			t.Fatalf("Log(%q): %v", msg, err)
		}
	}

	data, _ := os.ReadFile(path)
	if got := strings.Count(string(data), "\n"); got != 3 {
		t.Errorf("expected 3 entries, got %d:\n%s", got, data)
	}
}

func TestStopSeverityReturnsFatalError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	s := New(path, false)
	defer s.Close()

	err := s.Log(Stop, "runner", "cannot continue")
	if err == nil {
		t.Fatal("expected an error from Stop severity")
	}

	var fatal *FatalError
	if !errors.As(err, &fatal) {
		t.Fatalf("expected *FatalError, got %T", err)
	}
	if fatal.Code != FatalCode {
		t.Errorf("expected code %d, got %d", FatalCode, fatal.Code)
	}

	// The entry must be durably written before the error is returned.
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatalf("read log: %v", readErr)
	}
	if !strings.Contains(string(data), "[STOP] cannot continue") {
		t.Errorf("stop entry missing from log: %s", data)
	}
}

func TestCloseWithoutWrite(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "run.log"), false)
	if err := s.Close(); err != nil {
		t.Fatalf("Close on unused sink: %v", err)
	}
}

func TestSeverityTags(t *testing.T) {
	cases := []struct {
		sev  Severity
		want string
	}{
		{Info, "INFO"},
		{Head, "HEAD"},
		{Warn, "WARN"},
		{Stop, "STOP"},
		{Severity("bogus"), "INFO"},
	}
	for _, tc := range cases {
		if got := severityTag(tc.sev); got != tc.want {
			t.Errorf("severityTag(%q) = %q, want %q", tc.sev, got, tc.want)
		}
	}
}
