package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joshrotenberg/redis-up/internal/core/manifest"
	"github.com/joshrotenberg/redis-up/internal/shell/launcher"
)

// =============================================================================
// Deploy
// =============================================================================

func (a *App) runDeploy(args []string) int {
	fs := flag.NewFlagSet("deploy", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return ExitUsageError
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: redis-up deploy <manifest.yaml>")
		return ExitUsageError
	}
	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		return a.fail(fmt.Errorf("failed to read manifest: %w", err))
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return a.fail(err)
	}

	l, err := a.openLauncher()
	if err != nil {
		return a.dockerFail(err)
	}

	fmt.Printf("Deploying %d instance(s) from %s\n", len(m.Deployments), path)

	res := l.DeployManifest(m, func(item launcher.BatchItem) {
		if item.Err != nil {
			fmt.Printf("  ✗ Failed to deploy %s: %v\n", item.Name, item.Err)
		} else {
			fmt.Printf("  ✓ %s deployed successfully\n", item.Name)
		}
	})

	fmt.Println()
	if res.Failed == 0 {
		fmt.Println("Done: All deployments complete")
	} else {
		fmt.Printf("Done: %d deployed, %d failed\n", res.Succeeded, res.Failed)
	}
	return ExitSuccess
}

// =============================================================================
// Examples
// =============================================================================

func (a *App) runExamples(args []string) int {
	fs := flag.NewFlagSet("examples", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return ExitUsageError
	}
	dir := fs.Arg(0)
	if dir == "" {
		dir = "./examples"
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return a.fail(fmt.Errorf("failed to create %s: %w", dir, err))
	}

	for _, ex := range manifest.Examples() {
		path := filepath.Join(dir, ex.Filename)
		if err := os.WriteFile(path, []byte(ex.Content), 0644); err != nil {
			return a.fail(fmt.Errorf("failed to write %s: %w", path, err))
		}
		fmt.Printf("  ✓ Created: %s\n", path)
	}

	fmt.Println()
	fmt.Printf("Success: Example YAML files created in %s\n", dir)
	return ExitSuccess
}
