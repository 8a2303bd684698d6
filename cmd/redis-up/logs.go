package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/docker/docker/pkg/stdcopy"

	"github.com/joshrotenberg/redis-up/internal/shell/docker"
	"github.com/joshrotenberg/redis-up/internal/shell/launcher"
)

func (a *App) runLogs(args []string) int {
	fs := flag.NewFlagSet("logs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	follow := fs.Bool("follow", false, "Stream new output until interrupted")
	tail := fs.Int("tail", 20, "Number of trailing lines to show")
	timestamps := fs.Bool("timestamps", false, "Prefix lines with timestamps")
	if err := fs.Parse(args); err != nil {
		return ExitUsageError
	}

	reg, err := a.registry()
	if err != nil {
		return a.fail(err)
	}
	inst, err := launcher.ResolveAnyInstance(reg, fs.Arg(0))
	if err != nil {
		return a.fail(err)
	}

	d, err := a.openDocker()
	if err != nil {
		return a.dockerFail(err)
	}

	if a.verbose {
		fmt.Printf("Info: Showing logs for instance: %s\n", inst.Name)
		fmt.Printf("  Type: %s\n", inst.Kind)
		fmt.Printf("  Containers: %s\n", strings.Join(inst.Containers, ", "))
		fmt.Println()
	}

	if *follow {
		fmt.Printf("Logs: Following logs for '%s' (press Ctrl+C to exit):\n", inst.Name)
		if !*timestamps {
			fmt.Println("Tip: Use --timestamps to show log timestamps")
		}
	} else {
		fmt.Printf("Logs: Last %d lines for '%s':\n", *tail, inst.Name)
	}
	fmt.Println("Note: Redis typically produces few logs after startup unless there are connections or errors.")
	fmt.Println()

	rc, err := d.ContainerLogs(inst.Containers[0], docker.LogOptions{
		Follow:     *follow,
		Tail:       strconv.Itoa(*tail),
		Timestamps: *timestamps,
	})
	if err != nil {
		return a.fail(err)
	}
	defer rc.Close()

	// The stream multiplexes stdout and stderr, demux onto ours.
	if _, err := stdcopy.StdCopy(os.Stdout, os.Stderr, rc); err != nil && !errors.Is(err, io.EOF) {
		return a.fail(fmt.Errorf("log stream interrupted: %w", err))
	}
	return ExitSuccess
}
