package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joshrotenberg/redis-up/internal/core/instance"
)

func (a *App) runCleanup(args []string) int {
	fs := flag.NewFlagSet("cleanup", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	force := fs.Bool("force", false, "Skip the confirmation prompt")
	typeFilter := fs.String("type", "", "Only clean up instances of this type")
	if err := fs.Parse(args); err != nil {
		return ExitUsageError
	}

	var kind instance.Kind
	if *typeFilter != "" {
		k, err := instance.ParseKind(*typeFilter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitUsageError
		}
		kind = k
	}

	reg, err := a.registry()
	if err != nil {
		return a.fail(err)
	}
	var targets []instance.Instance
	if kind != "" {
		targets = reg.ListByKind(kind)
	} else {
		targets = reg.List()
	}

	if len(targets) == 0 {
		if kind != "" {
			fmt.Printf("Info: No Redis instances found of type '%s'\n", kind)
		} else {
			fmt.Println("Info: No Redis instances found")
		}
		return ExitSuccess
	}

	noun := "instances"
	if len(targets) == 1 {
		noun = "instance"
	}
	fmt.Printf("Cleanup: %d %s to clean up:\n", len(targets), noun)
	fmt.Println()
	for _, inst := range targets {
		fmt.Printf("  %s %s (%s)\n", kindIcon(inst.Kind), inst.Name, inst.Kind)
		if a.verbose {
			fmt.Printf("    Containers: %s\n", strings.Join(inst.Containers, ", "))
		}
	}
	fmt.Println()

	if !*force && !confirmCleanup() {
		fmt.Println("Cleanup cancelled.")
		return ExitSuccess
	}

	l, err := a.openLauncher()
	if err != nil {
		return a.dockerFail(err)
	}

	fmt.Println("Cleaning: Cleaning up instances...")
	fmt.Println()

	res, err := l.Cleanup(kind)
	if err != nil {
		return a.fail(err)
	}

	for _, inst := range targets {
		fmt.Printf("Success: Cleaned up: %s\n", inst.Name)
	}

	fmt.Println()
	if res.Errors > 0 {
		fmt.Printf("Warning: Cleanup completed with %d errors. %d instances cleaned up.\n",
			res.Errors, res.Cleaned)
	} else {
		fmt.Printf("Success: All %d instances cleaned up successfully!\n", res.Cleaned)
	}
	return ExitSuccess
}

func confirmCleanup() bool {
	fmt.Print("Confirm: Are you sure? [y/N]: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
