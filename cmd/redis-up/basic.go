package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joshrotenberg/redis-up/internal/core/instance"
	"github.com/joshrotenberg/redis-up/internal/core/manifest"
	"github.com/joshrotenberg/redis-up/internal/core/topology"
	"github.com/joshrotenberg/redis-up/internal/shell/launcher"
)

// =============================================================================
// Basic Start
// =============================================================================

func (a *App) basicStart(args []string) int {
	fs := flag.NewFlagSet("basic start", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	name := fs.String("name", "", "Instance name (generated when empty)")
	port := fs.Int("port", manifest.DefaultPort, "Host port for Redis")
	password := fs.String("password", "", "Password (generated when empty)")
	persist := fs.Bool("persist", false, "Keep data in a named volume")
	memory := fs.String("memory", "", "Container memory limit, e.g. 256m")
	shell := fs.Bool("shell", false, "Open redis-cli after starting")
	withInsight := fs.Bool("with-insight", false, "Also start the RedisInsight UI")
	insightPort := fs.Int("insight-port", manifest.DefaultInsightPort, "Host port for RedisInsight")
	if err := fs.Parse(args); err != nil {
		return ExitUsageError
	}

	l, err := a.openLauncher()
	if err != nil {
		return a.dockerFail(err)
	}

	pw := *password
	if pw == "" {
		pw = instance.GeneratePassword()
	}
	opts := topology.BasicOptions{
		Port:        *port,
		Persist:     *persist,
		Memory:      *memory,
		Insight:     *withInsight,
		InsightPort: *insightPort,
	}

	inst, err := l.Start(launcher.StartRequest{
		Kind: instance.KindBasic,
		Name: *name,
		Build: func(n string) *topology.Plan {
			return topology.BuildBasic(n, pw, opts)
		},
	})
	if err != nil {
		return a.fail(err)
	}

	printBasicStarted(inst)
	if containsString(inst.Containers, topology.InsightContainerName(inst.Name)) {
		printInsightInstructions(inst)
	}
	if *shell {
		attachShell(inst.Connection.Port, inst.Connection.Password, false)
	}
	return ExitSuccess
}

func printBasicStarted(inst *instance.Instance) {
	fmt.Println()
	fmt.Println("Success: Basic Redis instance started:")
	fmt.Printf("  Name: %s\n", inst.Name)
	fmt.Printf("  Address: %s:%d\n", inst.Connection.Host, inst.Connection.Port)
	fmt.Printf("  Password: %s\n", inst.Connection.Password)
	fmt.Printf("  URL: %s\n", inst.Connection.URL)
	if attrs, ok := inst.Attributes.(instance.BasicAttrs); ok && attrs.Persist {
		fmt.Printf("  Data Volume: %s\n", topology.DataVolumeName(inst.Name))
	}
}

// printInsightInstructions explains how to register the instance in the
// RedisInsight UI. From inside the UI container the host is reachable as
// host.docker.internal, not localhost.
func printInsightInstructions(inst *instance.Instance) {
	port, ok := inst.Connection.Extra["redisinsight"]
	if !ok {
		return
	}

	fmt.Println()
	fmt.Println("RedisInsight GUI:")
	fmt.Printf("  Access at: http://localhost:%d\n", port)
	fmt.Println()
	fmt.Println("  To add Redis connections:")
	fmt.Println("  1. Click 'I already have a database'")
	fmt.Println("  2. Click 'Connect to Redis Database'")
	fmt.Println()
	fmt.Printf("  For %s:\n", inst.Name)
	fmt.Println("    - Host: host.docker.internal")
	fmt.Printf("    - Port: %d\n", inst.Connection.Port)
	if inst.Connection.Password != "" {
		fmt.Printf("    - Password: %s\n", inst.Connection.Password)
	}
	fmt.Printf("    - Database Alias: %s\n", inst.Name)
}

// =============================================================================
// Basic Info
// =============================================================================

func printBasicInfo(inst instance.Instance) {
	fmt.Printf("Info: Basic Redis Instance: %s\n", inst.Name)
	fmt.Printf("  Type: %s\n", inst.Kind.DisplayName())
	fmt.Printf("  Created: %s\n", inst.CreatedAt.Format(time.RFC3339))
	fmt.Printf("  Address: %s:%d\n", inst.Connection.Host, inst.Connection.Port)
	fmt.Printf("  Password: %s\n", inst.Connection.Password)
	fmt.Printf("  URL: %s\n", inst.Connection.URL)
	fmt.Printf("  Container: %s\n", strings.Join(inst.Containers, ", "))
}
