package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nvdat/webtrace/internal/config"
	"github.com/nvdat/webtrace/internal/console"
	"github.com/nvdat/webtrace/internal/engine"
	"github.com/nvdat/webtrace/internal/lifecycle"
	"github.com/nvdat/webtrace/internal/logsink"
	"github.com/nvdat/webtrace/internal/tasks"
)

type scanFlagSet struct {
	url      string
	method   string
	headers  []string
	proxy    string
	iface    string
	retries  int
	debug    bool
	noColor  bool
	examples bool

	testssl      bool
	observatory  bool
	ssllabs      bool
	mixedContent bool
	nse          bool
	waf          bool
	dns          bool
	http2        bool
	allScans     bool
	extraTasks   []string
}

var scanFlags scanFlagSet

func addScanFlags(cmd *cobra.Command) {
	f := cmd.Flags()

	f.StringVarP(&scanFlags.url, "url", "u", "", "target URL (required for a scan)")
	f.StringVarP(&scanFlags.method, "method", "M", "GET", "HTTP method used by HTTP-speaking checks")
	f.StringArrayVarP(&scanFlags.headers, "header", "H", nil, "extra request header (repeatable)")
	f.StringVar(&scanFlags.proxy, "proxy", "", "proxy for HTTP-speaking checks")
	f.StringVar(&scanFlags.iface, "interface", "", "outbound network interface")
	f.IntVar(&scanFlags.retries, "retries", config.DefaultRetries, "attempt ceiling per step")
	f.BoolVar(&scanFlags.debug, "debug", false, "raw output mode: route everything through the log")
	f.BoolVar(&scanFlags.noColor, "no-color", false, "disable colored output")
	f.BoolVar(&scanFlags.examples, "examples", false, "print usage examples and exit")

	f.BoolVar(&scanFlags.testssl, "testssl", false, "run the testssl.sh battery")
	f.BoolVar(&scanFlags.observatory, "observatory", false, "query Mozilla Observatory")
	f.BoolVar(&scanFlags.ssllabs, "ssllabs", false, "query SSL Labs")
	f.BoolVar(&scanFlags.mixedContent, "mixed-content", false, "look for insecure subresources")
	f.BoolVar(&scanFlags.nse, "nse", false, "run nmap NSE http/tls scripts")
	f.BoolVar(&scanFlags.waf, "waf", false, "fingerprint the WAF with wafw00f")
	f.BoolVar(&scanFlags.dns, "dns", false, "enumerate DNS records")
	f.BoolVar(&scanFlags.http2, "http2", false, "probe HTTP/2 support")
	f.BoolVar(&scanFlags.allScans, "all-scans", false, "run every built-in check")
	f.StringArrayVar(&scanFlags.extraTasks, "task", nil, "run a named task from the config file (repeatable)")
}

// selectedTasks maps the tool flags to task names in catalog order.
func selectedTasks() []string {
	if scanFlags.allScans {
		names := make([]string, 0, len(tasks.Builtins()))
		for _, def := range tasks.Builtins() {
			names = append(names, def.Name)
		}
		return append(names, scanFlags.extraTasks...)
	}

	var names []string
	for _, sel := range []struct {
		on   bool
		name string
	}{
		{scanFlags.http2, "http2"},
		{scanFlags.testssl, "testssl"},
		{scanFlags.observatory, "observatory"},
		{scanFlags.ssllabs, "ssllabs"},
		{scanFlags.mixedContent, "mixed-content"},
		{scanFlags.nse, "nse"},
		{scanFlags.waf, "waf"},
		{scanFlags.dns, "dns"},
	} {
		if sel.on {
			names = append(names, sel.name)
		}
	}
	return append(names, scanFlags.extraTasks...)
}

func runScan(cmd *cobra.Command, args []string) error {
	if scanFlags.examples {
		printExamples(cmd.OutOrStdout())
		return nil
	}

	names := selectedTasks()
	if scanFlags.url == "" || len(names) == 0 {
		return cmd.Help()
	}

	cfg, err := buildRuntime()
	if err != nil {
		return err
	}

	sink := logsink.New(cfg.LogPath, cfg.Debug)
	fmtr := console.New(cfg, sink, os.Stdout)
	manager := lifecycle.NewManager(cfg, sink, os.Stdout)

	registry := engine.NewRegistry()
	if err := tasks.RegisterBuiltins(registry); err != nil {
		return err
	}
	custom, err := tasks.FromViper(viper.GetViper())
	if err != nil {
		// Unreadable or malformed required configuration is fatal.
		if logErr := sink.Log(logsink.Stop, "config", err.Error()); logErr != nil {
			return logErr
		}
	}
	for _, def := range custom {
		if err := registry.Register(def); err != nil {
			return err
		}
	}

	executor := engine.NewExecutor(cfg, sink, fmtr)
	manager.OnCleanup(executor.Abort)
	runner := engine.NewRunner(cfg, sink, fmtr, executor, registry)

	if err := manager.BeforeInit(); err != nil {
		return err
	}
	manager.WatchSignals()

	if err := runner.RunTasks(names); err != nil {
		var fatal *logsink.FatalError
		if errors.As(err, &fatal) {
			manager.Exit(lifecycle.ExitStatus{Status: fatal.Code})
		}
		manager.Exit(lifecycle.Unknown{})
	}

	if !cfg.Debug {
		passed, failed := runner.Counts()
		fmt.Fprint(os.Stdout, scanSummary(passed, failed))
	}

	manager.Exit(lifecycle.NormalExit{})
	return nil
}

// buildRuntime folds flags and environment into the runtime config the
// engine components share. Bare hostnames are promoted to https URLs.
func buildRuntime() (*config.Runtime, error) {
	raw := scanFlags.url
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid target URL %q", scanFlags.url)
	}

	cfg, err := config.New(viper.GetString("work_dir"))
	if err != nil {
		return nil, err
	}
	applyScanFlags(cfg, parsed)
	if !cfg.Colors {
		color.NoColor = true
	}
	return cfg, nil
}

func applyScanFlags(cfg *config.Runtime, parsed *url.URL) {
	cfg.URL = parsed.String()
	cfg.Host = parsed.Hostname()
	cfg.Method = strings.ToUpper(scanFlags.method)
	cfg.Headers = scanFlags.headers
	cfg.Proxy = scanFlags.proxy
	cfg.Iface = scanFlags.iface
	cfg.Retries = scanFlags.retries
	cfg.Debug = scanFlags.debug
	if scanFlags.noColor {
		cfg.Colors = false
	}
}
