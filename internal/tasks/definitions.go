package tasks

import (
	"fmt"

	"github.com/nvdat/webtrace/internal/config"
	"github.com/nvdat/webtrace/internal/engine"
)

func http2Task() *engine.Definition {
	return &engine.Definition{
		Name: "http2",
		Scan: config.ScanPassive,
		Build: func(list *engine.StepList, cfg *config.Runtime) error {
			list.Add(
				"Testing HTTP/2:"+cfg.URL,
				fmt.Sprintf("nghttp2 -nv %s 2>&1", shellQuote(cfg.URL)),
			)
			return nil
		},
	}
}

func testsslTask() *engine.Definition {
	return &engine.Definition{
		Name: "testssl",
		Scan: config.ScanActive,
		Build: func(list *engine.StepList, cfg *config.Runtime) error {
			list.Add(
				"TLS protocols and ciphers:"+cfg.Host,
				fmt.Sprintf("testssl.sh --fast --quiet --color 0 %s", shellQuote(cfg.Host)),
			)
			list.Add(
				"Known TLS vulnerabilities:"+cfg.Host,
				fmt.Sprintf("testssl.sh --vulnerable --quiet --color 0 %s", shellQuote(cfg.Host)),
			)
			return nil
		},
	}
}

func observatoryTask() *engine.Definition {
	return &engine.Definition{
		Name: "observatory",
		Scan: config.ScanPassive,
		Build: func(list *engine.StepList, cfg *config.Runtime) error {
			api := "https://http-observatory.security.mozilla.org/api/v1"
			list.Add(
				"Mozilla Observatory scan:"+cfg.Host,
				fmt.Sprintf("%s -X POST %s", curlBase(cfg),
					shellQuote(fmt.Sprintf("%s/analyze?host=%s&rescan=true", api, cfg.Host))),
			)
			list.Add(
				"Mozilla Observatory grade:"+cfg.Host,
				fmt.Sprintf("sleep 10 && %s %s", curlBase(cfg),
					shellQuote(fmt.Sprintf("%s/analyze?host=%s", api, cfg.Host))),
			)
			return nil
		},
	}
}

func ssllabsTask() *engine.Definition {
	return &engine.Definition{
		Name: "ssllabs",
		Scan: config.ScanPassive,
		Build: func(list *engine.StepList, cfg *config.Runtime) error {
			list.Add(
				"SSL Labs analysis:"+cfg.Host,
				fmt.Sprintf("%s %s", curlBase(cfg),
					shellQuote("https://api.ssllabs.com/api/v3/analyze?host="+cfg.Host+"&all=done")),
			)
			return nil
		},
	}
}

func mixedContentTask() *engine.Definition {
	return &engine.Definition{
		Name: "mixed-content",
		Scan: config.ScanPassive,
		Build: func(list *engine.StepList, cfg *config.Runtime) error {
			list.Add(
				"Mixed content subresources:"+cfg.URL,
				fmt.Sprintf(`%s %s | grep -Eo "(src|href)=[\"']http://[^\"']+" | sort -u`,
					curlBase(cfg), shellQuote(cfg.URL)),
			)
			return nil
		},
	}
}

func nseTask() *engine.Definition {
	return &engine.Definition{
		Name: "nse",
		Scan: config.ScanActive,
		Build: func(list *engine.StepList, cfg *config.Runtime) error {
			list.Add(
				"NSE HTTP scripts:"+cfg.Host,
				fmt.Sprintf("nmap -Pn -p 80,443 --script http-headers,http-title,http-server-header %s",
					shellQuote(cfg.Host)),
			)
			list.Add(
				"NSE TLS scripts:"+cfg.Host,
				fmt.Sprintf("nmap -Pn -p 443 --script ssl-enum-ciphers,ssl-cert %s",
					shellQuote(cfg.Host)),
			)
			return nil
		},
	}
}

func wafTask() *engine.Definition {
	return &engine.Definition{
		Name: "waf",
		Scan: config.ScanActive,
		Build: func(list *engine.StepList, cfg *config.Runtime) error {
			list.Add(
				"WAF fingerprinting:"+cfg.URL,
				fmt.Sprintf("wafw00f %s", shellQuote(cfg.URL)),
			)
			return nil
		},
	}
}

func dnsTask() *engine.Definition {
	return &engine.Definition{
		Name: "dns",
		Scan: config.ScanPassive,
		Build: func(list *engine.StepList, cfg *config.Runtime) error {
			host := shellQuote(cfg.Host)
			for _, rr := range []string{"A", "AAAA", "CNAME", "MX", "NS", "TXT", "CAA"} {
				list.Add(
					fmt.Sprintf("DNS %s records:%s", rr, cfg.Host),
					fmt.Sprintf("dig +short %s %s", rr, host),
				)
			}
			list.Add(
				"Reverse DNS:"+cfg.Host,
				fmt.Sprintf("dig +short -x \"$(dig +short A %s | head -1)\"", host),
			)
			if !cfg.HideSrcIP {
				list.Add(
					"Resolver path:"+cfg.Host,
					fmt.Sprintf("dig +trace +nodnssec %s | tail -20", host),
				)
			}
			return nil
		},
	}
}
