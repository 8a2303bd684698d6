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
// Cluster Start
// =============================================================================

func (a *App) clusterStart(args []string) int {
	fs := flag.NewFlagSet("cluster start", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	name := fs.String("name", "", "Cluster name (generated when empty)")
	masters := fs.Int("masters", manifest.DefaultMasters, "Number of master nodes")
	replicas := fs.Int("replicas", 0, "Replicas per master")
	portBase := fs.Int("port-base", manifest.DefaultClusterPortBase, "First host port, nodes take consecutive ports")
	password := fs.String("password", "", "Password (generated when empty)")
	persist := fs.Bool("persist", false, "Keep data in per-node volumes")
	memory := fs.String("memory", "", "Memory limit per node, e.g. 256m")
	stack := fs.Bool("stack", false, "Run Redis Stack images so modules are available cluster-wide")
	shell := fs.Bool("shell", false, "Open redis-cli in cluster mode after starting")
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
	opts := topology.ClusterOptions{
		Masters:     *masters,
		Replicas:    *replicas,
		PortBase:    *portBase,
		Persist:     *persist,
		Memory:      *memory,
		Stack:       *stack,
		Insight:     *withInsight,
		InsightPort: *insightPort,
	}

	inst, err := l.Start(launcher.StartRequest{
		Kind: instance.KindCluster,
		Name: *name,
		Build: func(n string) *topology.Plan {
			return topology.BuildCluster(n, pw, opts)
		},
	})
	if err != nil {
		return a.fail(err)
	}

	printClusterStarted(inst)
	if *shell {
		attachShell(inst.Connection.Port, inst.Connection.Password, true)
	}
	return ExitSuccess
}

func printClusterStarted(inst *instance.Instance) {
	attrs, _ := inst.Attributes.(instance.ClusterAttrs)

	fmt.Println()
	fmt.Println("Success: Redis Cluster started:")
	fmt.Printf("  Name: %s\n", inst.Name)
	fmt.Printf("  Topology: %d masters, %d replicas (%d total nodes)\n",
		attrs.Masters, attrs.Replicas, attrs.TotalNodes)
	fmt.Printf("  Ports: localhost:%d-%d\n", attrs.PortBase, attrs.PortBase+attrs.TotalNodes-1)
	fmt.Printf("  Password: %s\n", inst.Connection.Password)
	fmt.Printf("  Cluster URL: %s\n", inst.Connection.URL)
	fmt.Printf("  Nodes: %s\n", nodeAddresses(inst.Ports))

	if attrs.Persist {
		volumes := make([]string, attrs.TotalNodes)
		for i := range volumes {
			volumes[i] = topology.DataVolumeName(topology.ClusterNodeName(inst.Name, i))
		}
		fmt.Printf("  Data Volumes: %s\n", strings.Join(volumes, ", "))
	}
	if attrs.Stack {
		fmt.Printf("  Modules: Redis Stack (%s)\n", strings.Join(topology.AllStackModules(), ", "))
	}
	if port, ok := inst.Connection.Extra["redisinsight"]; ok {
		fmt.Printf("  RedisInsight: http://localhost:%d\n", port)
	}
}

func nodeAddresses(ports []int) string {
	addrs := make([]string, len(ports))
	for i, p := range ports {
		addrs[i] = fmt.Sprintf("localhost:%d", p)
	}
	return strings.Join(addrs, ", ")
}

// =============================================================================
// Cluster Info
// =============================================================================

func printClusterInfo(inst instance.Instance) {
	attrs, _ := inst.Attributes.(instance.ClusterAttrs)

	fmt.Printf("Info: Redis Cluster: %s\n", inst.Name)
	fmt.Printf("  Type: %s\n", inst.Kind.DisplayName())
	fmt.Printf("  Created: %s\n", inst.CreatedAt.Format(time.RFC3339))
	fmt.Printf("  Topology: %d masters, %d replicas (%d total)\n",
		attrs.Masters, attrs.Replicas, attrs.TotalNodes)
	fmt.Printf("  Ports: %s\n", joinInts(inst.Ports, ", "))
	fmt.Printf("  Password: %s\n", inst.Connection.Password)
	fmt.Printf("  Cluster URL: %s\n", inst.Connection.URL)
	fmt.Printf("  Containers: %s\n", strings.Join(inst.Containers, ", "))
	if port, ok := inst.Connection.Extra["redisinsight"]; ok {
		fmt.Printf("  RedisInsight: http://localhost:%d\n", port)
	}
	if attrs.Stack {
		fmt.Println("  Modules: Redis Stack enabled")
	}
}
