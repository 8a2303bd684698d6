package main

import (
	"flag"
	"fmt"
	"os"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Parse global flags
	fs := flag.NewFlagSet("redis-up", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Path to config file")
	showVersion := fs.Bool("version", false, "Print version and exit")
	verbose := fs.Bool("verbose", false, "Enable verbose output")
	fs.Usage = func() { printUsage(fs) }
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return ExitSuccess
		}
		return ExitUsageError
	}

	// Handle version flag
	if *showVersion {
		fmt.Printf("redis-up %s (built %s)\n", Version, BuildTime)
		return ExitSuccess
	}

	// Load configuration
	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return ExitConfigError
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}

	// Setup logger
	logger := SetupLogger(cfg)

	// Bare invocation gets the quick-start summary, not an error
	if fs.NArg() == 0 {
		printQuickStart()
		return ExitSuccess
	}

	app := NewApp(cfg, logger, *verbose)
	defer app.Close()

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "basic":
		return app.runBasic(cmdArgs)
	case "stack":
		return app.runStack(cmdArgs)
	case "cluster":
		return app.runCluster(cmdArgs)
	case "sentinel":
		return app.runSentinel(cmdArgs)
	case "enterprise":
		return app.runEnterprise(cmdArgs)
	case "list":
		return app.runList(cmdArgs)
	case "cleanup":
		return app.runCleanup(cmdArgs)
	case "logs":
		return app.runLogs(cmdArgs)
	case "deploy":
		return app.runDeploy(cmdArgs)
	case "examples":
		return app.runExamples(cmdArgs)
	case "help":
		fs.SetOutput(os.Stdout)
		printUsage(fs)
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage(fs)
		return ExitUsageError
	}
}

func printQuickStart() {
	quick := func(cmd, what string) {
		fmt.Printf("  %-36s%s\n", cmd, what)
	}

	fmt.Println("Redis Developer Tool")
	fmt.Println()
	fmt.Println("Quick commands to get started:")
	quick("redis-up basic start", "Start basic Redis")
	quick("redis-up basic start --shell", "Start Redis + shell")
	quick("redis-up stack start", "Start Redis Stack with popular modules")
	quick("redis-up cluster start --masters 3", "Start 3-node Redis Cluster")
	quick("redis-up enterprise start --nodes 3", "Start Redis Enterprise cluster")
	fmt.Println()
	quick("redis-up list", "List all running instances")
	quick("redis-up logs --follow", "View logs for instances")
	quick("redis-up cleanup", "Clean up all instances")
	fmt.Println()
	fmt.Println("Use --help for detailed help on any command.")
}

func printUsage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintln(out, "Usage: redis-up [flags] <command> [arguments]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Instance commands (each supports start, stop, and info):")
	fmt.Fprintln(out, "  basic        Single Redis container")
	fmt.Fprintln(out, "  stack        Redis Stack with modules and RedisInsight")
	fmt.Fprintln(out, "  cluster      Multi-node Redis Cluster")
	fmt.Fprintln(out, "  sentinel     Replicated Redis with Sentinel failover")
	fmt.Fprintln(out, "  enterprise   Redis Enterprise cluster")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Other commands:")
	fmt.Fprintln(out, "  list         List all managed instances")
	fmt.Fprintln(out, "  cleanup      Stop and remove instances")
	fmt.Fprintln(out, "  logs         Show container logs for an instance")
	fmt.Fprintln(out, "  deploy       Deploy instances from a YAML manifest")
	fmt.Fprintln(out, "  examples     Write starter manifest files")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Flags:")
	fs.PrintDefaults()
}
