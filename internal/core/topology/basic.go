package topology

import (
	"fmt"

	"github.com/joshrotenberg/redis-up/internal/core/instance"
)

// BasicOptions configures a single-node Redis plan.
type BasicOptions struct {
	Port        int
	Persist     bool
	Memory      string
	Insight     bool
	InsightPort int
}

// BuildBasic lays out one redis container listening on the same port inside
// and outside the container, plus an optional RedisInsight companion.
func BuildBasic(name, password string, opts BasicOptions) *Plan {
	cmd := []string{"redis-server", "--port", fmt.Sprintf("%d", opts.Port), "--requirepass", password}
	if opts.Persist {
		cmd = append(cmd, "--appendonly", "yes")
	}

	main := ContainerPlan{
		Name:   name,
		Image:  ImageRedis,
		Cmd:    cmd,
		Ports:  []PortMapping{{Host: opts.Port, Container: opts.Port}},
		Memory: opts.Memory,
	}

	plan := &Plan{
		Name:  name,
		Kind:  instance.KindBasic,
		Ports: []int{opts.Port},
	}

	if opts.Persist {
		vol := DataVolumeName(name)
		plan.Volumes = append(plan.Volumes, vol)
		main.Mounts = append(main.Mounts, MountPlan{Source: vol, Target: "/data"})
	}

	plan.Containers = append(plan.Containers, main)

	attrs := instance.BasicAttrs{
		Persist: opts.Persist,
		Memory:  opts.Memory,
		Insight: opts.Insight,
	}

	conn := instance.Connection{
		Host:     "localhost",
		Port:     opts.Port,
		Password: password,
		URL:      fmt.Sprintf("redis://default:%s@localhost:%d", password, opts.Port),
	}

	if opts.Insight {
		plan.Containers = append(plan.Containers, insightContainer(name, opts.InsightPort, ""))
		conn.Extra = map[string]int{"redisinsight": opts.InsightPort}
		attrs.InsightPort = opts.InsightPort
	}

	plan.Connection = conn
	plan.Attributes = attrs
	return plan
}
