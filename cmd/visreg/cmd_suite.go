package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/config"
	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/suite"
)

func handleSuiteCommand(cfg *config.RuntimeConfig) {
	if len(os.Args) < 3 {
		fmt.Println("Usage: visreg suite <command>")
		fmt.Println("Commands:")
		fmt.Println("  init    - Write the built-in suite to the suite file")
		fmt.Println("  show    - Print the suite that a run would execute")
		return
	}

	switch os.Args[2] {
	case "init":
		path := cfg.SuitePath

		if _, err := os.Stat(path); err == nil {
			fmt.Printf("Suite file already exists at %s\n", path)
			fmt.Print("Overwrite? (y/N): ")
			var response string
			_, _ = fmt.Scanln(&response)
			if response != "y" && response != "Y" {
				return
			}
		}

		data, err := suite.Default().Marshal()
		if err != nil {
			fatal("marshal suite: %v", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			fatal("write %s: %v", path, err)
		}
		fmt.Printf("Suite file created at %s\n", path)
		fmt.Println("\nEdit base_url, pages, and viewports, then run: visreg run")

	case "show":
		spec, err := suite.Load(cfg.SuitePath)
		if errors.Is(err, os.ErrNotExist) {
			fmt.Printf("# %s not found, this is the built-in suite\n", cfg.SuitePath)
			spec = suite.Default()
		} else if err != nil {
			fatal("%v", err)
		}

		data, err := spec.Marshal()
		if err != nil {
			fatal("marshal suite: %v", err)
		}
		os.Stdout.Write(data)

		jobs := spec.Jobs(cfg.SettleDelay)
		fmt.Printf("\n# %d pages x %d viewports = %d snapshots\n",
			len(spec.Pages), len(spec.Viewports), len(jobs))

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[2])
		os.Exit(1)
	}
}
