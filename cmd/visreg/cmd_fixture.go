package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/config"
	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/fixture"
)

// runFixtureServer serves the demo storefront on its own, for poking at it
// in a browser or pointing an external tool at it.
func runFixtureServer(cfg *config.RuntimeConfig, args []string) {
	addr := "127.0.0.1:8000"
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-addr", "--addr":
			if i+1 >= len(args) {
				fatal("-addr needs a host:port")
			}
			i++
			addr = args[i]
		default:
			fatal("unknown fixture flag %q", args[i])
		}
	}

	fix := fixture.New()
	bound, err := fix.Start(addr)
	if err != nil {
		fatal("fixture: %v", err)
	}
	fmt.Printf("fixture site on http://%s (Ctrl-C to stop)\n", bound)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	slog.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = fix.Shutdown(sctx)
}
