package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joshrotenberg/redis-up/internal/core/instance"
	"github.com/joshrotenberg/redis-up/internal/core/manifest"
	"github.com/joshrotenberg/redis-up/internal/core/topology"
	"github.com/joshrotenberg/redis-up/internal/shell/launcher"
)

// =============================================================================
// Sentinel Start
// =============================================================================

func (a *App) sentinelStart(args []string) int {
	fs := flag.NewFlagSet("sentinel start", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	name := fs.String("name", "", "Setup name (generated when empty)")
	masters := fs.Int("masters", 1, "Number of monitored masters")
	sentinels := fs.Int("sentinels", manifest.DefaultSentinels, "Number of sentinel nodes")
	redisPortBase := fs.Int("redis-port-base", manifest.DefaultPort, "First host port for the masters")
	sentinelPortBase := fs.Int("sentinel-port-base", manifest.DefaultSentinelPortBase, "First host port for the sentinels")
	password := fs.String("password", "", "Password (generated when empty)")
	persist := fs.Bool("persist", false, "Keep master data in named volumes")
	memory := fs.String("memory", "", "Memory limit per container, e.g. 256m")
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
	opts := topology.SentinelOptions{
		Masters:          *masters,
		Sentinels:        *sentinels,
		RedisPortBase:    *redisPortBase,
		SentinelPortBase: *sentinelPortBase,
		Persist:          *persist,
		Memory:           *memory,
		Insight:          *withInsight,
		InsightPort:      *insightPort,
	}

	inst, err := l.Start(launcher.StartRequest{
		Kind: instance.KindSentinel,
		Name: *name,
		Build: func(n string) *topology.Plan {
			return topology.BuildSentinel(n, pw, opts)
		},
	})
	if err != nil {
		return a.fail(err)
	}

	printSentinelStarted(inst)
	return ExitSuccess
}

func printSentinelStarted(inst *instance.Instance) {
	attrs, _ := inst.Attributes.(instance.SentinelAttrs)

	fmt.Println()
	fmt.Println("Success: Redis Sentinel setup started successfully!")
	fmt.Println()
	fmt.Println("Connection Information:")
	fmt.Printf("  Master: %s\n", inst.Connection.URL)
	fmt.Printf("  Sentinel: localhost:%d\n", attrs.SentinelPortBase)
	fmt.Println()
	fmt.Println("Components:")
	fmt.Printf("  - %d Redis master(s)\n", attrs.Masters)
	fmt.Printf("  - %d Sentinel node(s)\n", attrs.Sentinels)
	fmt.Println()
	fmt.Println("Quick Commands:")
	fmt.Printf("  Connect to master: redis-cli -p %d -a %s\n", attrs.RedisPortBase, inst.Connection.Password)
	fmt.Printf("  Check Sentinel: redis-cli -p %d sentinel masters\n", attrs.SentinelPortBase)
	fmt.Printf("  Stop: redis-up sentinel stop %s\n", inst.Name)
}

// =============================================================================
// Sentinel Info
// =============================================================================

func (a *App) printSentinelInfo(inst instance.Instance) {
	attrs, _ := inst.Attributes.(instance.SentinelAttrs)

	fmt.Println("Redis Sentinel Information")
	fmt.Printf("Name: %s\n", inst.Name)
	fmt.Printf("Created: %s\n", inst.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Configuration: %d masters, %d sentinels\n", attrs.Masters, attrs.Sentinels)
	fmt.Printf("Network: %s\n", attrs.Network)
	fmt.Println()
	fmt.Println("Ports:")
	for _, p := range inst.Ports {
		fmt.Printf("  - %d\n", p)
	}
	fmt.Println()
	fmt.Println("Connection:")
	fmt.Printf("  Master URL: %s\n", inst.Connection.URL)
	fmt.Printf("  Sentinel: localhost:%d\n", attrs.SentinelPortBase)

	if a.verbose {
		fmt.Println()
		fmt.Println("Containers:")
		for _, c := range inst.Containers {
			fmt.Printf("  - %s\n", c)
		}
	}

	a.printSentinelStatus(attrs)
}

// printSentinelStatus asks the first sentinel for its view of the masters.
// Best effort: without a reachable daemon or a running sentinel the static
// info above is all there is.
func (a *App) printSentinelStatus(attrs instance.SentinelAttrs) {
	if len(attrs.SentinelContainers) == 0 {
		return
	}
	d, err := a.openDocker()
	if err != nil {
		return
	}

	out, err := d.ExecContainer(attrs.SentinelContainers[0],
		[]string{"redis-cli", "-p", strconv.Itoa(attrs.SentinelPortBase), "sentinel", "masters"})
	if err != nil || strings.TrimSpace(out) == "" {
		return
	}

	fmt.Println()
	fmt.Println("Sentinel Status:")

	// The reply alternates field names and values, one per line.
	lines := strings.Split(out, "\n")
	for i := 0; i+1 < len(lines); i++ {
		value := strings.TrimSpace(lines[i+1])
		switch {
		case strings.Contains(lines[i], "num-slaves"):
			fmt.Printf("  Replicas: %s\n", value)
		case strings.Contains(lines[i], "num-other-sentinels"):
			fmt.Printf("  Other Sentinels: %s\n", value)
		case strings.Contains(lines[i], "name"):
			fmt.Printf("  Master: %s\n", value)
		}
	}
}
