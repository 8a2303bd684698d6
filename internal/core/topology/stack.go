package topology

import (
	"fmt"

	"github.com/joshrotenberg/redis-up/internal/core/instance"
)

// StackOptions configures a Redis Stack plan.
type StackOptions struct {
	Port int

	// Modules records which modules the caller asked for. The stack image
	// ships all of them; an empty list is recorded as the full set.
	Modules []string

	Persist     bool
	Memory      string
	Insight     bool
	InsightPort int
}

// AllStackModules returns every module the stack image ships, in the order
// they are reported to the user.
func AllStackModules() []string {
	return []string{"JSON", "Search", "Graph", "TimeSeries", "Bloom"}
}

// DemoModules returns the popular-module bundle.
func DemoModules() []string {
	return []string{"JSON", "Search", "TimeSeries"}
}

// BuildStack lays out one redis-stack-server container. When the insight
// companion is requested both containers join a dedicated network so the UI
// can reach Redis by container name.
func BuildStack(name, password string, opts StackOptions) *Plan {
	modules := opts.Modules
	if len(modules) == 0 {
		modules = AllStackModules()
	}

	network := ""
	if opts.Insight {
		network = NetworkName(name)
	}

	main := ContainerPlan{
		Name:  name,
		Image: ImageStack,
		Env: map[string]string{
			"REDIS_ARGS": fmt.Sprintf("--requirepass %s --port %d", password, opts.Port),
		},
		Ports:   []PortMapping{{Host: opts.Port, Container: opts.Port}},
		Network: network,
		Memory:  opts.Memory,
	}

	plan := &Plan{
		Name:    name,
		Kind:    instance.KindStack,
		Network: network,
		Ports:   []int{opts.Port},
	}

	if opts.Persist {
		vol := DataVolumeName(name)
		plan.Volumes = append(plan.Volumes, vol)
		main.Mounts = append(main.Mounts, MountPlan{Source: vol, Target: "/data"})
	}

	plan.Containers = append(plan.Containers, main)

	attrs := instance.StackAttrs{
		Modules: modules,
		Persist: opts.Persist,
		Memory:  opts.Memory,
		Network: network,
		Insight: opts.Insight,
	}

	conn := instance.Connection{
		Host:     "localhost",
		Port:     opts.Port,
		Password: password,
		URL:      fmt.Sprintf("redis://default:%s@localhost:%d", password, opts.Port),
	}

	if opts.Insight {
		plan.Containers = append(plan.Containers, insightContainer(name, opts.InsightPort, network))
		conn.Extra = map[string]int{"redisinsight": opts.InsightPort}
		attrs.InsightPort = opts.InsightPort
	}

	plan.Connection = conn
	plan.Attributes = attrs
	return plan
}
