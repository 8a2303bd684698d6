package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/joshrotenberg/redis-up/internal/core/instance"
	"github.com/joshrotenberg/redis-up/internal/shell/launcher"
)

// =============================================================================
// Kind Subcommand Dispatch
// =============================================================================

// kindCommand routes the start/stop/info subcommands every instance kind
// shares. Only start differs per kind.
func (a *App) kindCommand(kind instance.Kind, start func([]string) int, args []string) int {
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "usage: redis-up %s <start|stop|info> [flags]\n", kind)
		return ExitUsageError
	}
	switch args[0] {
	case "start":
		return start(args[1:])
	case "stop":
		return a.stopInstance(kind, args[1:])
	case "info":
		return a.infoInstance(kind, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown %s subcommand: %s (expected start, stop, or info)\n", kind, args[0])
		return ExitUsageError
	}
}

func (a *App) runBasic(args []string) int {
	return a.kindCommand(instance.KindBasic, a.basicStart, args)
}

func (a *App) runStack(args []string) int {
	return a.kindCommand(instance.KindStack, a.stackStart, args)
}

func (a *App) runCluster(args []string) int {
	return a.kindCommand(instance.KindCluster, a.clusterStart, args)
}

func (a *App) runSentinel(args []string) int {
	return a.kindCommand(instance.KindSentinel, a.sentinelStart, args)
}

func (a *App) runEnterprise(args []string) int {
	return a.kindCommand(instance.KindEnterprise, a.enterpriseStart, args)
}

// =============================================================================
// Stop
// =============================================================================

func (a *App) stopInstance(kind instance.Kind, args []string) int {
	fs := flag.NewFlagSet(string(kind)+" stop", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return ExitUsageError
	}

	l, err := a.openLauncher()
	if err != nil {
		return a.dockerFail(err)
	}

	res, err := l.Stop(launcher.StopRequest{Kind: kind, Name: fs.Arg(0)})
	if err != nil {
		return a.fail(err)
	}
	if res.Failures > 0 {
		fmt.Printf("Warning: %s '%s' removed, but %d resource(s) could not be cleaned up\n",
			kindNoun(kind), res.Instance.Name, res.Failures)
		return ExitSuccess
	}

	fmt.Printf("Success: %s '%s' stopped and removed\n", kindNoun(kind), res.Instance.Name)
	return ExitSuccess
}

// =============================================================================
// Info
// =============================================================================

func (a *App) infoInstance(kind instance.Kind, args []string) int {
	fs := flag.NewFlagSet(string(kind)+" info", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	format := fs.String("format", "table", "Output format: table or json")
	if err := fs.Parse(args); err != nil {
		return ExitUsageError
	}

	reg, err := a.registry()
	if err != nil {
		return a.fail(err)
	}
	inst, err := launcher.ResolveInstance(reg, kind, fs.Arg(0))
	if err != nil {
		return a.fail(err)
	}

	switch *format {
	case "json":
		out, err := json.MarshalIndent(inst, "", "  ")
		if err != nil {
			return a.fail(err)
		}
		fmt.Println(string(out))
	case "table":
		a.printInfo(inst)
	default:
		fmt.Fprintf(os.Stderr, "unknown format: %s (expected table or json)\n", *format)
		return ExitUsageError
	}
	return ExitSuccess
}

func (a *App) printInfo(inst instance.Instance) {
	switch inst.Kind {
	case instance.KindBasic:
		printBasicInfo(inst)
	case instance.KindStack:
		printStackInfo(inst)
	case instance.KindCluster:
		printClusterInfo(inst)
	case instance.KindSentinel:
		a.printSentinelInfo(inst)
	case instance.KindEnterprise:
		a.printEnterpriseInfo(inst)
	}
}

// =============================================================================
// Shared Helpers
// =============================================================================

// kindNoun is the phrase used in stop and cleanup messages.
func kindNoun(k instance.Kind) string {
	switch k {
	case instance.KindBasic:
		return "Basic Redis instance"
	case instance.KindStack:
		return "Redis Stack instance"
	case instance.KindCluster:
		return "Redis Cluster"
	case instance.KindSentinel:
		return "Sentinel setup"
	case instance.KindEnterprise:
		return "Enterprise cluster"
	default:
		return "instance"
	}
}

// kindIcon is the bracket tag shown in list and cleanup output.
func kindIcon(k instance.Kind) string {
	switch k {
	case instance.KindBasic:
		return "[B]"
	case instance.KindStack:
		return "[S]"
	case instance.KindCluster:
		return "[C]"
	case instance.KindSentinel:
		return "[N]"
	case instance.KindEnterprise:
		return "[E]"
	default:
		return "[?]"
	}
}

func joinInts(nums []int, sep string) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, sep)
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

// attachShell hands the terminal to a host redis-cli pointed at the instance.
// Requires redis-cli on PATH.
func attachShell(port int, password string, clusterMode bool) {
	fmt.Println()
	if clusterMode {
		fmt.Println("Shell: Connecting to redis-cli (cluster mode)...")
	} else {
		fmt.Println("Shell: Connecting to redis-cli...")
	}
	fmt.Println()

	args := []string{"-h", "localhost", "-p", strconv.Itoa(port)}
	if password != "" {
		args = append(args, "-a", password)
	}
	if clusterMode {
		args = append(args, "-c")
	}

	cmd := exec.Command("redis-cli", args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Println("Warning: redis-cli exited with error")
	}
}
