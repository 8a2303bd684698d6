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
// Stack Start
// =============================================================================

func (a *App) stackStart(args []string) int {
	fs := flag.NewFlagSet("stack start", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	name := fs.String("name", "", "Instance name (generated when empty)")
	port := fs.Int("port", manifest.DefaultPort, "Host port for Redis")
	password := fs.String("password", "", "Password (generated when empty)")
	persist := fs.Bool("persist", false, "Keep data in a named volume")
	memory := fs.String("memory", "", "Container memory limit, e.g. 512m")
	shell := fs.Bool("shell", false, "Open redis-cli after starting")
	withJSON := fs.Bool("with-json", false, "Enable the JSON module")
	withSearch := fs.Bool("with-search", false, "Enable the Search module")
	withTimeseries := fs.Bool("with-timeseries", false, "Enable the TimeSeries module")
	withGraph := fs.Bool("with-graph", false, "Enable the Graph module")
	withBloom := fs.Bool("with-bloom", false, "Enable the Bloom module")
	demoBundle := fs.Bool("demo-bundle", false, "Enable the popular JSON, Search, and TimeSeries bundle")
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
	opts := topology.StackOptions{
		Port:        *port,
		Modules:     selectModules(*demoBundle, *withJSON, *withSearch, *withTimeseries, *withGraph, *withBloom),
		Persist:     *persist,
		Memory:      *memory,
		Insight:     *withInsight,
		InsightPort: *insightPort,
	}

	inst, err := l.Start(launcher.StartRequest{
		Kind: instance.KindStack,
		Name: *name,
		Build: func(n string) *topology.Plan {
			return topology.BuildStack(n, pw, opts)
		},
	})
	if err != nil {
		return a.fail(err)
	}

	printStackStarted(inst)
	if *shell {
		attachShell(inst.Connection.Port, inst.Connection.Password, false)
	}
	return ExitSuccess
}

// selectModules folds the module flags into one list. The demo bundle comes
// first so explicit flags only extend it, and duplicates collapse.
func selectModules(demo, withJSON, withSearch, withTimeseries, withGraph, withBloom bool) []string {
	var mods []string
	if demo {
		mods = topology.DemoModules()
	}
	for _, sel := range []struct {
		on   bool
		name string
	}{
		{withJSON, "JSON"},
		{withSearch, "Search"},
		{withTimeseries, "TimeSeries"},
		{withGraph, "Graph"},
		{withBloom, "Bloom"},
	} {
		if sel.on && !containsString(mods, sel.name) {
			mods = append(mods, sel.name)
		}
	}
	return mods
}

func printStackStarted(inst *instance.Instance) {
	attrs, _ := inst.Attributes.(instance.StackAttrs)

	fmt.Println()
	fmt.Println("Success: Redis Stack instance started:")
	fmt.Printf("  Name: %s\n", inst.Name)
	fmt.Printf("  Address: %s:%d\n", inst.Connection.Host, inst.Connection.Port)
	fmt.Printf("  Password: %s\n", inst.Connection.Password)
	fmt.Printf("  URL: %s\n", inst.Connection.URL)
	fmt.Printf("  Modules: %s\n", strings.Join(attrs.Modules, ", "))
	if attrs.Persist {
		fmt.Printf("  Data Volume: %s\n", topology.DataVolumeName(inst.Name))
	}
	if port, ok := inst.Connection.Extra["redisinsight"]; ok {
		fmt.Printf("  RedisInsight: http://localhost:%d\n", port)
	}

	printModuleExamples(attrs.Modules)
}

// printModuleExamples shows a starter command for the modules that have one.
func printModuleExamples(modules []string) {
	showJSON := containsString(modules, "JSON")
	showSearch := containsString(modules, "Search")
	if !showJSON && !showSearch {
		return
	}

	fmt.Println()
	fmt.Println("Examples: Example commands:")
	if showJSON {
		fmt.Println(`  JSON: redis-cli JSON.SET user:1 $ '{"name":"John","age":30}'`)
	}
	if showSearch {
		fmt.Println("  Search: redis-cli FT.CREATE idx ON HASH PREFIX 1 user: SCHEMA name TEXT age NUMERIC")
	}
}

// =============================================================================
// Stack Info
// =============================================================================

func printStackInfo(inst instance.Instance) {
	attrs, _ := inst.Attributes.(instance.StackAttrs)

	fmt.Printf("Info: Redis Stack Instance: %s\n", inst.Name)
	fmt.Printf("  Type: %s\n", inst.Kind.DisplayName())
	fmt.Printf("  Created: %s\n", inst.CreatedAt.Format(time.RFC3339))
	fmt.Printf("  Address: %s:%d\n", inst.Connection.Host, inst.Connection.Port)
	fmt.Printf("  Password: %s\n", inst.Connection.Password)
	fmt.Printf("  URL: %s\n", inst.Connection.URL)
	fmt.Printf("  Containers: %s\n", strings.Join(inst.Containers, ", "))
	fmt.Printf("  Modules: %s\n", strings.Join(attrs.Modules, ", "))
	if port, ok := inst.Connection.Extra["redisinsight"]; ok {
		fmt.Printf("  RedisInsight: http://localhost:%d\n", port)
	}
}
