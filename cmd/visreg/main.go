package main

import (
	"fmt"
	"os"

	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/config"
)

var version = "dev"

func main() {
	cfg := config.Load()

	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("visreg %s\n", version)
		os.Exit(0)
	}

	if len(os.Args) > 1 && (os.Args[1] == "help" || os.Args[1] == "-h" || os.Args[1] == "--help") {
		printHelp()
		os.Exit(0)
	}

	if len(os.Args) > 1 && os.Args[1] == "config" {
		config.HandleConfigCommand(cfg)
		os.Exit(0)
	}

	if len(os.Args) > 1 && os.Args[1] == "suite" {
		handleSuiteCommand(cfg)
		os.Exit(0)
	}

	if len(os.Args) > 1 && os.Args[1] == "doctor" {
		os.Exit(runDoctor(cfg))
	}

	if len(os.Args) > 1 && os.Args[1] == "fixture" {
		runFixtureServer(cfg, os.Args[2:])
		os.Exit(0)
	}

	if len(os.Args) > 1 && os.Args[1] == "snapshot" {
		os.Exit(runSnapshot(cfg, os.Args[2:]))
	}

	if len(os.Args) > 1 && os.Args[1] != "run" {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printHelp()
		os.Exit(2)
	}

	// Bare `visreg` and `visreg run` both execute the suite.
	args := os.Args[1:]
	if len(args) > 0 {
		args = args[1:]
	}
	os.Exit(runSuite(cfg, args))
}

func printHelp() {
	fmt.Printf(`visreg %s - visual regression runs against a Percy-compatible agent

MODES:
  visreg [run]              Run the snapshot suite (default command)
  visreg doctor             Check Chrome, agent, target app, and suite file
  visreg snapshot <url>     One-off stabilized snapshot of a single URL
  visreg fixture            Serve the built-in demo storefront
  visreg suite init|show    Write or print the suite file
  visreg config init|show   Write or print ~/.visreg/config.json

RUN FLAGS:
  -suite FILE          Suite file (default visreg.yaml, built-in when missing)
  -dashboard           Serve the live run dashboard while the suite runs
  -require-percy       Fail instead of skipping when no agent is reachable

SNAPSHOT FLAGS:
  -name NAME           Snapshot name (default derived from the URL)

FIXTURE FLAGS:
  -addr HOST:PORT      Listen address (default 127.0.0.1:8000)

ENVIRONMENT:
  BASE_URL               App under test (default: built-in fixture site)
  PERCY_TOKEN            Project token; without it snapshots are skipped
  PERCY_SERVER_ADDRESS   Agent address (default http://localhost:5338)
  CDP_URL                Attach to running Chrome instead of launching
  VISREG_SUITE           Suite file path (default visreg.yaml)
  VISREG_CONCURRENCY     Parallel snapshot jobs (default 4)
  VISREG_HEADLESS        Run Chrome headless (default true)
  VISREG_SCREENSHOTS     Save local debug screenshots (default false)
  VISREG_PORT            Dashboard port (default 9878)
  VISREG_TOKEN           Dashboard bearer token (default: no auth)

Examples:
  percy exec -- visreg run -dashboard
  BASE_URL=https://staging.example.com visreg run
  visreg snapshot https://example.com/pricing -name "Pricing"
  visreg doctor
`, version)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
