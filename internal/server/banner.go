package server

import (
	"fmt"

	"github.com/fatih/color"
)

const logo = ` _    ___   ___   _   _    ___
| |  / _ \ / __| / \ | |  / _ \
| |_| (_) | (__ / _ \| |_| (_) |
|____\___/ \___/_/ \_\____\__\_\`

func (s *Server) printBanner(addr string) {
	accent := color.New(color.FgHiCyan, color.Bold)
	name := color.New(color.FgHiWhite, color.Bold)
	label := color.New(color.FgHiBlack)
	val := color.New(color.FgHiGreen)

	fmt.Println()
	accent.Println(logo)
	name.Println("  Local message queue and scheduler")
	fmt.Println()

	info := func(k, v string) {
		label.Printf("  %-10s", k)
		val.Println(v)
	}

	info("listen", addr)
	info("storage", s.StorageDir)

	if s.Metrics {
		info("metrics", "/metrics")
	}
	if s.WorkerInterval > 0 {
		info("worker", s.WorkerInterval.String())
	} else {
		info("worker", "disabled")
	}
	if s.AutoTLS {
		info("tls", "auto (Let's Encrypt)")
	} else if s.TLSCert != "" {
		info("tls", "custom certificate")
	}

	fmt.Println()
}
