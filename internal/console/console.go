// Package console renders step headers, a liveness spinner for the
// command currently running, and the wrapped, ANSI-stripped result
// output drained from the scan buffer.
package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/time/rate"

	"github.com/nvdat/webtrace/internal/config"
	"github.com/nvdat/webtrace/internal/logsink"
	"github.com/nvdat/webtrace/internal/procutil"
)

const (
	pollInterval   = 100 * time.Millisecond
	redrawInterval = 200 * time.Millisecond
	resultIndent   = "    "
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

var (
	titleStyle   = color.New(color.FgWhite, color.Bold).SprintFunc()
	detailStyle  = color.New(color.FgCyan).SprintFunc()
	hostStyle    = color.New(color.FgWhite).SprintFunc()
	activeBadge  = color.New(color.BgRed, color.FgWhite, color.Bold).SprintFunc()
	passiveBadge = color.New(color.BgGreen, color.FgBlack).SprintFunc()
	unknownBadge = color.New(color.BgYellow, color.FgBlack).SprintFunc()
	failMark     = color.New(color.FgRed, color.Bold).SprintFunc()
)

// Formatter is the single output surface for a run. Steps are strictly
// sequential, so it owns the scan buffer file without locking.
type Formatter struct {
	cfg  *config.Runtime
	sink *logsink.Sink
	out  io.Writer

	redraw rate.Sometimes
	alive  func(pid int) bool
}

func New(cfg *config.Runtime, sink *logsink.Sink, out io.Writer) *Formatter {
	if out == nil {
		out = os.Stdout
	}
	return &Formatter{
		cfg:    cfg,
		sink:   sink,
		out:    out,
		redraw: rate.Sometimes{First: 1, Interval: redrawInterval},
		alive:  procutil.Alive,
	}
}

// Announce prints the step header before its command runs. It is purely
// informational; the result is not known yet. In debug mode the header
// goes through the log sink instead of the styled terminal path.
func (f *Formatter) Announce(title, detail string) error {
	if f.cfg.Debug {
		return f.sink.Log(logsink.Head, "console",
			fmt.Sprintf("%s (%s) scan=%s host=%s", title, detail, f.cfg.ScanType, f.cfg.Host))
	}

	fmt.Fprintf(f.out, "\n%s", titleStyle(title))
	if detail != "" {
		fmt.Fprintf(f.out, " %s", detailStyle(detail))
	}
	fmt.Fprintf(f.out, "\n  %s %s\n", badge(f.cfg.ScanType), hostStyle(f.cfg.Host))
	return nil
}

// Fail renders the soft-failure marker for a step whose retries were
// exhausted. The run continues; this is reporting, not control flow.
func (f *Formatter) Fail(title string, attempts int) {
	if f.cfg.Debug {
		return
	}
	fmt.Fprintf(f.out, "%s%s %s after %d attempts\n", resultIndent, failMark("✗"), title, attempts)
}

// Spin renders a rotating indicator while pid is alive, polling the
// process table at a fixed interval. Redraws are throttled separately
// from the liveness poll. Advisory only: the executor's wait on the
// child is what actually gates step completion.
func (f *Formatter) Spin(pid int) {
	if f.cfg.Debug {
		return
	}
	frame := 0
	for f.alive(pid) {
		f.redraw.Do(func() {
			fmt.Fprintf(f.out, "\r%s%s ", resultIndent, spinnerFrames[frame%len(spinnerFrames)])
			frame++
		})
		time.Sleep(pollInterval)
	}
	// Nothing to erase when the process was already gone.
	if frame > 0 {
		fmt.Fprintf(f.out, "\r%s\r", strings.Repeat(" ", len(resultIndent)+2))
	}
}

// Flush drains the scan buffer: strips escapes, drops blank lines,
// indents, wraps to the configured width, prints, and truncates the
// buffer to empty. In debug mode the drained lines flow through the log
// sink instead of the terminal. Either way the buffer ends empty.
func (f *Formatter) Flush() error {
	raw, err := os.ReadFile(f.cfg.ScanOutPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read scan buffer: %w", err)
	}

	if f.cfg.Debug {
		sc := bufio.NewScanner(strings.NewReader(StripANSI(string(raw))))
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			if err := f.sink.Log(logsink.Info, "scan", line); err != nil {
				return err
			}
		}
		return f.truncate()
	}

	width := f.cfg.MaxWidth - len(resultIndent)
	sc := bufio.NewScanner(strings.NewReader(StripANSI(string(raw))))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		for _, chunk := range wrap(line, width) {
			fmt.Fprintf(f.out, "%s%s\n", resultIndent, chunk)
		}
	}
	return f.truncate()
}

// Truncate empties the scan buffer without rendering, used by cleanup.
func (f *Formatter) Truncate() error { return f.truncate() }

func (f *Formatter) truncate() error {
	err := os.Truncate(f.cfg.ScanOutPath, 0)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("truncate scan buffer: %w", err)
	}
	return nil
}

func badge(t config.ScanType) string {
	switch t {
	case config.ScanActive:
		return activeBadge(" active ")
	case config.ScanPassive:
		return passiveBadge(" passive ")
	}
	return unknownBadge(" unknown ")
}

// wrap splits s into chunks no longer than width, breaking on spaces
// where possible and mid-word otherwise.
func wrap(s string, width int) []string {
	if width <= 0 || len(s) <= width {
		return []string{s}
	}
	var out []string
	for len(s) > width {
		cut := strings.LastIndexByte(s[:width+1], ' ')
		if cut <= 0 {
			cut = width
		}
		out = append(out, strings.TrimRight(s[:cut], " "))
		s = strings.TrimLeft(s[cut:], " ")
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}
