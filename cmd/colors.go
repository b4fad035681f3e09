package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
)

func formatStatusWithColor(status string) string {
	switch strings.ToLower(status) {
	case "ok", "success", "pass":
		return colorSuccess(status)
	case "warn", "warning":
		return colorWarn(status)
	case "error", "fail", "failed", "stop":
		return colorError(status)
	default:
		return status
	}
}

// scanSummary renders the end-of-run step tally, coloring the status word
// by outcome.
func scanSummary(passed, failed int) string {
	status := "ok"
	if failed > 0 {
		status = "fail"
	}
	return fmt.Sprintf("\nResult: %s (%d passed, %d failed)\n",
		formatStatusWithColor(status), passed, failed)
}
