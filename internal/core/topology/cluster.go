package topology

import (
	"fmt"
	"strings"
	"time"

	"github.com/joshrotenberg/redis-up/internal/core/instance"
)

// clusterBusOffset separates a node's client port from its cluster bus port.
const clusterBusOffset = 10000

const (
	clusterCreateInitialDelay = 3 * time.Second
	clusterCreateAttempts     = 3
	clusterCreateDelay        = 2 * time.Second
)

// ClusterOptions configures a sharded cluster plan.
type ClusterOptions struct {
	Masters     int
	Replicas    int
	PortBase    int
	Persist     bool
	Memory      string
	Stack       bool
	Insight     bool
	InsightPort int
}

// TotalNodes returns the node count for the requested shape.
func (o ClusterOptions) TotalNodes() int {
	return o.Masters + o.Masters*o.Replicas
}

// BuildCluster lays out totalNodes redis containers on a dedicated network,
// each publishing its client port and cluster bus port symmetrically, then a
// bootstrap step that forms the cluster from inside node 0.
//
// Node i is named {name}-node-{i} and listens on portBase+i. Stop and cleanup
// rely on that ordering.
func BuildCluster(name, password string, opts ClusterOptions) *Plan {
	total := opts.TotalNodes()
	network := NetworkName(name)

	image := ImageRedis
	if opts.Stack {
		image = ImageStack
	}

	plan := &Plan{
		Name:    name,
		Kind:    instance.KindCluster,
		Network: network,
	}

	createCmd := []string{"redis-cli", "-a", password, "--cluster", "create"}

	for i := 0; i < total; i++ {
		nodeName := ClusterNodeName(name, i)
		port := opts.PortBase + i

		args := []string{
			"--port", fmt.Sprintf("%d", port),
			"--cluster-enabled", "yes",
			"--cluster-config-file", "nodes.conf",
			"--cluster-node-timeout", "5000",
			"--requirepass", password,
			"--masterauth", password,
		}
		if opts.Persist {
			args = append(args, "--appendonly", "yes")
		}

		node := ContainerPlan{
			Name:    nodeName,
			Image:   image,
			Network: network,
			Memory:  opts.Memory,
			Ports: []PortMapping{
				{Host: port, Container: port},
				{Host: port + clusterBusOffset, Container: port + clusterBusOffset},
			},
		}

		// The stack image configures redis through REDIS_ARGS; the plain
		// image takes the server command line directly.
		if opts.Stack {
			node.Env = map[string]string{"REDIS_ARGS": strings.Join(args, " ")}
		} else {
			node.Cmd = append([]string{"redis-server"}, args...)
		}

		if opts.Persist {
			vol := DataVolumeName(nodeName)
			plan.Volumes = append(plan.Volumes, vol)
			node.Mounts = append(node.Mounts, MountPlan{Source: vol, Target: "/data"})
		}

		plan.Containers = append(plan.Containers, node)
		plan.Ports = append(plan.Ports, port)

		// Nodes address each other by container name over the network.
		createCmd = append(createCmd, fmt.Sprintf("%s:%d", nodeName, port))
	}

	createCmd = append(createCmd, "--cluster-replicas", fmt.Sprintf("%d", opts.Replicas), "--cluster-yes")

	plan.Bootstrap = []BootstrapStep{{
		Container:    ClusterNodeName(name, 0),
		Cmd:          createCmd,
		Attempts:     clusterCreateAttempts,
		Delay:        clusterCreateDelay,
		InitialDelay: clusterCreateInitialDelay,
	}}

	attrs := instance.ClusterAttrs{
		Masters:    opts.Masters,
		Replicas:   opts.Replicas,
		TotalNodes: total,
		PortBase:   opts.PortBase,
		Network:    network,
		Stack:      opts.Stack,
		Persist:    opts.Persist,
		Memory:     opts.Memory,
		Insight:    opts.Insight,
	}

	conn := instance.Connection{
		Host:     "localhost",
		Port:     opts.PortBase,
		Password: password,
		URL:      fmt.Sprintf("redis://default:%s@localhost:%d", password, opts.PortBase),
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
