package topology

import (
	"fmt"
	"path"
	"strings"

	"github.com/joshrotenberg/redis-up/internal/core/instance"
)

// Failover tuning written into every generated sentinel config.
const (
	sentinelDownAfterMillis = 5000
	sentinelFailoverTimeout = 10000
	sentinelParallelSyncs   = 1
)

// sentinelConfContainerPath is where the generated config is mounted; the
// sentinel process is started against this path.
const sentinelConfContainerPath = "/etc/redis/sentinel.conf"

// SentinelConfDir returns the config-root-relative directory holding the
// generated sentinel configs for an instance. Stop removes this directory.
//
// Pattern: sentinel/{instance}
// Example: sentinel/redis-sentinel-1
func SentinelConfDir(instanceName string) string {
	return path.Join("sentinel", instanceName)
}

// SentinelOptions configures a monitored master group plan.
type SentinelOptions struct {
	Masters          int
	Sentinels        int
	RedisPortBase    int
	SentinelPortBase int
	Persist          bool
	Memory           string
	Insight          bool
	InsightPort      int
}

// Quorum returns the majority quorum for the configured sentinel count.
func (o SentinelOptions) Quorum() int {
	return o.sentinelCount()/2 + 1
}

func (o SentinelOptions) masterCount() int {
	if o.Masters < 1 {
		return 1
	}
	return o.Masters
}

func (o SentinelOptions) sentinelCount() int {
	if o.Sentinels < 1 {
		return 1
	}
	return o.Sentinels
}

// BuildSentinel lays out the monitored masters followed by the sentinel nodes,
// all on a dedicated network. Each sentinel gets its own generated config file
// monitoring every master by container name.
func BuildSentinel(name, password string, opts SentinelOptions) *Plan {
	masters := opts.masterCount()
	sentinels := opts.sentinelCount()
	quorum := opts.Quorum()
	network := NetworkName(name)

	plan := &Plan{
		Name:    name,
		Kind:    instance.KindSentinel,
		Network: network,
	}

	masterContainers := make([]string, 0, masters)
	for j := 0; j < masters; j++ {
		masterName := MasterName(name, j+1)
		port := opts.RedisPortBase + j

		cmd := []string{"redis-server", "--port", fmt.Sprintf("%d", port), "--requirepass", password}
		if opts.Persist {
			cmd = append(cmd, "--appendonly", "yes")
		}

		master := ContainerPlan{
			Name:    masterName,
			Image:   ImageRedis,
			Cmd:     cmd,
			Network: network,
			Memory:  opts.Memory,
			Ports:   []PortMapping{{Host: port, Container: port}},
		}

		if opts.Persist {
			vol := DataVolumeName(masterName)
			plan.Volumes = append(plan.Volumes, vol)
			master.Mounts = append(master.Mounts, MountPlan{Source: vol, Target: "/data"})
		}

		plan.Containers = append(plan.Containers, master)
		plan.Ports = append(plan.Ports, port)
		masterContainers = append(masterContainers, masterName)
	}

	sentinelContainers := make([]string, 0, sentinels)
	for i := 0; i < sentinels; i++ {
		sentinelName := SentinelName(name, i+1)
		port := opts.SentinelPortBase + i

		conf := sentinelConf(name, password, port, masters, quorum, opts.RedisPortBase)

		node := ContainerPlan{
			Name:    sentinelName,
			Image:   ImageRedis,
			Cmd:     []string{"redis-sentinel", sentinelConfContainerPath},
			Network: network,
			Ports:   []PortMapping{{Host: port, Container: port}},
			ConfigFiles: []ConfigFilePlan{{
				Path:          path.Join(SentinelConfDir(name), fmt.Sprintf("sentinel-%d.conf", i+1)),
				ContainerPath: sentinelConfContainerPath,
				Content:       conf,
			}},
		}

		plan.Containers = append(plan.Containers, node)
		plan.Ports = append(plan.Ports, port)
		sentinelContainers = append(sentinelContainers, sentinelName)
	}

	attrs := instance.SentinelAttrs{
		Masters:            masters,
		Sentinels:          sentinels,
		Quorum:             quorum,
		RedisPortBase:      opts.RedisPortBase,
		SentinelPortBase:   opts.SentinelPortBase,
		Network:            network,
		MasterContainers:   masterContainers,
		SentinelContainers: sentinelContainers,
		Persist:            opts.Persist,
		Memory:             opts.Memory,
		Insight:            opts.Insight,
	}

	conn := instance.Connection{
		Host:     "localhost",
		Port:     opts.RedisPortBase,
		Password: password,
		URL:      fmt.Sprintf("redis://:%s@localhost:%d", password, opts.RedisPortBase),
		Extra:    map[string]int{"sentinel_base": opts.SentinelPortBase},
	}

	if opts.Insight {
		plan.Containers = append(plan.Containers, insightContainer(name, opts.InsightPort, network))
		conn.Extra["redisinsight"] = opts.InsightPort
		attrs.InsightPort = opts.InsightPort
	}

	plan.Connection = conn
	plan.Attributes = attrs
	return plan
}

// sentinelConf renders the config for one sentinel node. Every master gets a
// monitor block addressed by container name so failover works inside the
// instance network.
func sentinelConf(name, password string, port, masters, quorum, redisPortBase int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "port %d\n", port)
	b.WriteString("sentinel announce-hostnames yes\n")
	b.WriteString("sentinel resolve-hostnames yes\n")

	for j := 0; j < masters; j++ {
		masterName := MasterName(name, j+1)
		masterPort := redisPortBase + j

		fmt.Fprintf(&b, "sentinel monitor master-%d %s %d %d\n", j+1, masterName, masterPort, quorum)
		if password != "" {
			fmt.Fprintf(&b, "sentinel auth-pass master-%d %s\n", j+1, password)
		}
		fmt.Fprintf(&b, "sentinel down-after-milliseconds master-%d %d\n", j+1, sentinelDownAfterMillis)
		fmt.Fprintf(&b, "sentinel failover-timeout master-%d %d\n", j+1, sentinelFailoverTimeout)
		fmt.Fprintf(&b, "sentinel parallel-syncs master-%d %d\n", j+1, sentinelParallelSyncs)
	}

	return b.String()
}
