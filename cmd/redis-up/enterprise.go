package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joshrotenberg/redis-up/internal/core/instance"
	"github.com/joshrotenberg/redis-up/internal/core/manifest"
	"github.com/joshrotenberg/redis-up/internal/core/topology"
	"github.com/joshrotenberg/redis-up/internal/shell/launcher"
)

// =============================================================================
// Enterprise Start
// =============================================================================

func (a *App) enterpriseStart(args []string) int {
	fs := flag.NewFlagSet("enterprise start", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	name := fs.String("name", "", "Cluster name (generated when empty)")
	nodes := fs.Int("nodes", manifest.DefaultEnterpriseNodes, "Number of Enterprise nodes")
	portBase := fs.Int("port-base", manifest.DefaultEnterprisePortBase, "Host port for the cluster UI, API follows at +1000")
	createDB := fs.String("create-db", "", "Create a database with this name after cluster formation")
	dbPort := fs.Int("db-port", manifest.DefaultDBPort, "First host port for databases")
	containersOnly := fs.Bool("containers-only", false, "Start the container without forming the cluster")
	persist := fs.Bool("persist", false, "Keep cluster state in named volumes")
	memory := fs.String("memory", "", "Container memory limit, e.g. 4g")
	withInsight := fs.Bool("with-insight", false, "Also start the RedisInsight UI")
	insightPort := fs.Int("insight-port", manifest.DefaultInsightPort, "Host port for RedisInsight")
	if err := fs.Parse(args); err != nil {
		return ExitUsageError
	}

	if *nodes > 1 {
		fmt.Println("Note: Multi-node clusters require additional implementation. Starting single-node cluster.")
	}
	if *containersOnly {
		fmt.Println("Note: Starting in containers-only mode. Cluster formation skipped.")
	}

	l, err := a.openLauncher()
	if err != nil {
		return a.dockerFail(err)
	}

	pw := instance.GeneratePassword()
	opts := topology.EnterpriseOptions{
		Nodes:       *nodes,
		PortBase:    *portBase,
		DBPort:      *dbPort,
		CreateDB:    *createDB,
		Manual:      *containersOnly,
		Persist:     *persist,
		Memory:      *memory,
		Insight:     *withInsight,
		InsightPort: *insightPort,
	}

	inst, err := l.Start(launcher.StartRequest{
		Kind: instance.KindEnterprise,
		Name: *name,
		Build: func(n string) *topology.Plan {
			return topology.BuildEnterprise(n, pw, opts)
		},
	})
	if err != nil {
		return a.fail(err)
	}

	attrs, _ := inst.Attributes.(instance.EnterpriseAttrs)
	if attrs.Manual {
		fmt.Println()
		fmt.Println("Info: Redis Enterprise container started in manual mode.")
		fmt.Printf("  Access the UI at https://localhost:%d to complete setup\n", attrs.UIPort)
		fmt.Printf("  Container: %s\n", inst.Containers[0])
	}

	printEnterpriseStarted(inst)
	return ExitSuccess
}

func printEnterpriseStarted(inst *instance.Instance) {
	attrs, _ := inst.Attributes.(instance.EnterpriseAttrs)

	fmt.Println()
	fmt.Println("Success: Redis Enterprise cluster started successfully!")
	fmt.Println()
	fmt.Println("Connection Information:")
	fmt.Printf("  UI: https://localhost:%d\n", attrs.UIPort)
	fmt.Printf("  API: https://localhost:%d\n", attrs.APIPort)
	fmt.Printf("  Username: %s\n", topology.EnterpriseAdminUser)
	fmt.Printf("  Password: %s\n", inst.Connection.Password)

	if attrs.DBName != "" {
		fmt.Println()
		fmt.Println("Database:")
		fmt.Printf("  Connect: redis-cli -p %d -a <password>\n", attrs.DBPort)
	}

	fmt.Println()
	fmt.Println("Quick Commands:")
	fmt.Printf("  Access UI: Open https://localhost:%d in your browser\n", attrs.UIPort)
	fmt.Printf("  Stop: redis-up enterprise stop %s\n", inst.Name)
	fmt.Printf("  Info: redis-up enterprise info %s\n", inst.Name)
}

// =============================================================================
// Enterprise Info
// =============================================================================

func (a *App) printEnterpriseInfo(inst instance.Instance) {
	attrs, _ := inst.Attributes.(instance.EnterpriseAttrs)

	fmt.Println("Redis Enterprise Information")
	fmt.Printf("Name: %s\n", inst.Name)
	fmt.Printf("Created: %s\n", inst.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Cluster Name: %s\n", topology.EnterpriseClusterName(inst.Name))
	fmt.Printf("Nodes: %d node(s)\n", attrs.Nodes)
	fmt.Println()
	fmt.Println("Access Points:")
	fmt.Printf("  UI: https://localhost:%d\n", attrs.UIPort)
	fmt.Printf("  API: https://localhost:%d\n", attrs.APIPort)

	if attrs.DBName != "" {
		fmt.Println()
		fmt.Println("Database:")
		fmt.Printf("  Name: %s\n", attrs.DBName)
		fmt.Printf("  Port: %d\n", attrs.DBPort)
	}

	if a.verbose {
		fmt.Println()
		fmt.Println("Containers:")
		for _, c := range inst.Containers {
			fmt.Printf("  - %s\n", c)
		}
	}

	a.printContainerStatus(inst)
}

// printContainerStatus reports whether the admin container is up. Best
// effort: without a reachable daemon the static info above is all there is.
func (a *App) printContainerStatus(inst instance.Instance) {
	if len(inst.Containers) == 0 {
		return
	}
	d, err := a.openDocker()
	if err != nil {
		return
	}
	info, err := d.InspectContainer(inst.Containers[0])
	if err != nil {
		return
	}

	fmt.Println()
	if info.State == "running" {
		fmt.Println("Status: Container is running")
	} else {
		fmt.Println("Status: Container is stopped")
	}
}
