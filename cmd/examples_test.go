package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestPrintExamples(t *testing.T) {
	original := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = original })

	var buf bytes.Buffer
	printExamples(&buf)

	out := buf.String()
	if !strings.HasPrefix(out, "Examples:") {
		t.Errorf("missing heading:\n%s", out)
	}
	for _, ex := range usageExamples {
		if !strings.Contains(out, ex.cmd) {
			t.Errorf("example command missing: %s", ex.cmd)
		}
		if !strings.Contains(out, ex.desc) {
			t.Errorf("example description missing: %s", ex.desc)
		}
	}
}
