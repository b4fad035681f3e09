package console

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/nvdat/webtrace/internal/config"
	"github.com/nvdat/webtrace/internal/logsink"
)

func testRuntime(t *testing.T, debug bool) *config.Runtime {
	t.Helper()
	work := t.TempDir()
	return &config.Runtime{
		WorkDir:     work,
		LogDir:      filepath.Join(work, "log"),
		LogPath:     filepath.Join(work, "log", "run.log"),
		TmpDir:      work,
		ScanOutPath: filepath.Join(work, "scan.out"),
		MaxWidth:    40,
		Debug:       debug,
		Host:        "example.com",
		ScanType:    config.ScanPassive,
	}
}

func TestStripANSI(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"\x1b[31mred\x1b[0m", "red"},
		{"a\rb\r\n", "ab\n"},
		{"\x1b[1;32mbold green\x1b[m tail", "bold green tail"},
		{"\x1b]0;title\atext", "text"},
	}
	for _, tc := range cases {
		if got := StripANSI(tc.in); got != tc.want {
			t.Errorf("StripANSI(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWrap(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  []string
	}{
		{"short", 10, []string{"short"}},
		{"alpha beta gamma", 10, []string{"alpha beta", "gamma"}},
		{"abcdefghijkl", 5, []string{"abcde", "fghij", "kl"}},
		{"", 10, []string{""}},
	}
	for _, tc := range cases {
		got := wrap(tc.in, tc.width)
		if len(got) != len(tc.want) {
			t.Errorf("wrap(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("wrap(%q, %d)[%d] = %q, want %q", tc.in, tc.width, i, got[i], tc.want[i])
			}
		}
	}
}

func TestFlushEmptiesBufferAndIndents(t *testing.T) {
	cfg := testRuntime(t, false)
	sink := logsink.New(cfg.LogPath, false)
	defer sink.Close()
	var out bytes.Buffer
	f := New(cfg, sink, &out)

	content := "\x1b[32mline one\x1b[0m\n\n\nline two\r\n"
	if err := os.WriteFile(cfg.ScanOutPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := f.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	printed := out.String()
	if !strings.Contains(printed, "    line one\n") {
		t.Errorf("missing indented first line:\n%q", printed)
	}
	if !strings.Contains(printed, "    line two\n") {
		t.Errorf("missing indented second line:\n%q", printed)
	}
	if strings.Contains(printed, "\x1b[") {
		t.Errorf("escape sequences leaked into output:\n%q", printed)
	}

	info, err := os.Stat(cfg.ScanOutPath)
	if err != nil {
		t.Fatalf("stat scan buffer: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("scan buffer not empty after Flush: %d bytes", info.Size())
	}
}

func TestFlushRepeatedlyLeavesBufferEmpty(t *testing.T) {
	cfg := testRuntime(t, false)
	sink := logsink.New(cfg.LogPath, false)
	defer sink.Close()
	var out bytes.Buffer
	f := New(cfg, sink, &out)

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(cfg.ScanOutPath, []byte("payload\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := f.Flush(); err != nil {
			t.Fatalf("Flush %d: %v", i, err)
		}
		info, err := os.Stat(cfg.ScanOutPath)
		if err != nil {
			t.Fatal(err)
		}
		if info.Size() != 0 {
			t.Fatalf("buffer not empty after Flush %d", i)
		}
	}
}

func TestFlushMissingBufferIsNotAnError(t *testing.T) {
	cfg := testRuntime(t, false)
	sink := logsink.New(cfg.LogPath, false)
	defer sink.Close()
	f := New(cfg, sink, &bytes.Buffer{})

	if err := f.Flush(); err != nil {
		t.Fatalf("Flush with no buffer file: %v", err)
	}
}

func TestFlushDebugRoutesThroughSink(t *testing.T) {
	cfg := testRuntime(t, true)
	sink := logsink.New(cfg.LogPath, false)
	defer sink.Close()
	var out bytes.Buffer
	f := New(cfg, sink, &out)

	if err := os.WriteFile(cfg.ScanOutPath, []byte("tool output\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := f.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if out.Len() != 0 {
		t.Errorf("debug mode should not print to the terminal, got %q", out.String())
	}
	data, err := os.ReadFile(cfg.LogPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "[INFO] tool output") {
		t.Errorf("debug output missing from log:\n%s", data)
	}

	info, _ := os.Stat(cfg.ScanOutPath)
	if info.Size() != 0 {
		t.Error("scan buffer not truncated in debug mode")
	}
}

func TestAnnounceStyled(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	cfg := testRuntime(t, false)
	cfg.ScanType = config.ScanActive
	sink := logsink.New(cfg.LogPath, false)
	defer sink.Close()
	var out bytes.Buffer
	f := New(cfg, sink, &out)

	if err := f.Announce("Testing HTTP/2", "https://nghttp2.org/"); err != nil {
		t.Fatalf("Announce: %v", err)
	}

	printed := out.String()
	for _, want := range []string{"Testing HTTP/2", "https://nghttp2.org/", "active", "example.com"} {
		if !strings.Contains(printed, want) {
			t.Errorf("announce output missing %q:\n%q", want, printed)
		}
	}
}

func TestAnnounceDebugGoesToLog(t *testing.T) {
	cfg := testRuntime(t, true)
	sink := logsink.New(cfg.LogPath, false)
	defer sink.Close()
	var out bytes.Buffer
	f := New(cfg, sink, &out)

	if err := f.Announce("DNS A records", "example.com"); err != nil {
		t.Fatalf("Announce: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("debug announce should not print, got %q", out.String())
	}

	data, _ := os.ReadFile(cfg.LogPath)
	if !strings.Contains(string(data), "[HEAD] DNS A records") {
		t.Errorf("announce missing from log:\n%s", data)
	}
}

func TestSpinStopsWhenPidGone(t *testing.T) {
	cfg := testRuntime(t, false)
	sink := logsink.New(cfg.LogPath, false)
	defer sink.Close()
	var out bytes.Buffer
	f := New(cfg, sink, &out)

	polls := 0
	f.alive = func(pid int) bool {
		polls++
		return polls < 3
	}

	f.Spin(4242)

	if polls != 3 {
		t.Errorf("expected 3 liveness polls, got %d", polls)
	}
	if !strings.HasSuffix(out.String(), "\r") {
		t.Errorf("indicator not cleared: %q", out.String())
	}
}

func TestSpinDeadPidPrintsNothing(t *testing.T) {
	cfg := testRuntime(t, false)
	sink := logsink.New(cfg.LogPath, false)
	defer sink.Close()
	var out bytes.Buffer
	f := New(cfg, sink, &out)

	f.alive = func(int) bool { return false }
	f.Spin(4242)

	if out.Len() != 0 {
		t.Errorf("no indicator was drawn, nothing should be erased: %q", out.String())
	}
}

func TestSpinDebugIsSilent(t *testing.T) {
	cfg := testRuntime(t, true)
	sink := logsink.New(cfg.LogPath, false)
	defer sink.Close()
	var out bytes.Buffer
	f := New(cfg, sink, &out)

	f.Spin(os.Getpid())

	if out.Len() != 0 {
		t.Errorf("debug spin should not print, got %q", out.String())
	}
}

func TestBadges(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	if got := badge(config.ScanActive); !strings.Contains(got, "active") {
		t.Errorf("active badge = %q", got)
	}
	if got := badge(config.ScanPassive); !strings.Contains(got, "passive") {
		t.Errorf("passive badge = %q", got)
	}
	if got := badge(config.ScanType("")); !strings.Contains(got, "unknown") {
		t.Errorf("unknown badge = %q", got)
	}
}
