package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var usageExamples = []struct {
	desc string
	cmd  string
}{
	{"Probe HTTP/2 support", "webtrace --url https://example.com --http2"},
	{"Full TLS battery with three attempts per step", "webtrace --url example.com --testssl --retries 3"},
	{"Passive reputation checks only", "webtrace --url example.com --observatory --ssllabs"},
	{"DNS enumeration through a specific interface", "webtrace --url example.com --dns --interface eth1"},
	{"Everything, raw log-style output", "webtrace --url example.com --all-scans --debug"},
	{"WAF detection via a proxy", "webtrace --url https://example.com --waf --proxy http://127.0.0.1:8080"},
	{"POST with a custom header", "webtrace --url https://example.com --mixed-content -M POST -H 'X-Probe: 1'"},
	{"Run a task defined in the config file", "webtrace --url example.com --task my-tool --config ./webtrace.yaml"},
}

var examplesCmd = &cobra.Command{
	Use:   "examples",
	Short: "Show usage examples",
	Run: func(cmd *cobra.Command, args []string) {
		printExamples(cmd.OutOrStdout())
	},
}

func printExamples(w io.Writer) {
	fmt.Fprintln(w, "Examples:")
	for _, ex := range usageExamples {
		fmt.Fprintf(w, "\n  %s\n    %s\n", colorInfo(ex.desc), ex.cmd)
	}
}
