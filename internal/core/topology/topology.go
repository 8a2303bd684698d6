// Package topology computes container layouts for each instance kind. Builders
// are pure: they take resolved inputs (name, password, options) and return a
// Plan describing every network, volume, config file, container, and bootstrap
// step. Realizing the plan against Docker happens in shell/launcher.
package topology

import (
	"fmt"
	"time"

	"github.com/joshrotenberg/redis-up/internal/core/instance"
)

// =============================================================================
// Images
// =============================================================================

const (
	ImageRedis      = "redis:7-alpine"
	ImageStack      = "redis/redis-stack-server:latest"
	ImageInsight    = "redis/redisinsight:latest"
	ImageEnterprise = "redislabs/redis:latest"
)

// =============================================================================
// Plan Types
// =============================================================================

// Plan is the full layout for one instance, computed before any Docker call.
// Realization happens in declaration order: network, config files, volumes,
// containers, bootstrap steps.
type Plan struct {
	Name string
	Kind instance.Kind

	// Network, when set, is created before any container starts. Containers
	// reference it through their own Network field.
	Network string

	// Volumes lists named volumes created up front.
	Volumes []string

	// Containers are created and started in order.
	Containers []ContainerPlan

	// Bootstrap steps run after all containers are up.
	Bootstrap []BootstrapStep

	Ports      []int
	Connection instance.Connection
	Attributes instance.Attributes
}

// ContainerPlan describes one container to create and start.
type ContainerPlan struct {
	Name    string
	Image   string
	Cmd     []string
	Env     map[string]string
	Ports   []PortMapping
	Mounts  []MountPlan
	Network string
	CapAdd  []string

	// Memory is a human-readable limit such as "256m" or "1g", parsed at
	// realization time. Empty means unlimited.
	Memory string

	// ConfigFiles are written under the config root before the container
	// starts and bind-mounted at their container paths.
	ConfigFiles []ConfigFilePlan

	// Aux marks helper containers whose startup failure degrades the
	// deployment instead of failing it.
	Aux bool
}

// PortMapping maps a host port to a container port.
type PortMapping struct {
	Host      int
	Container int
	Protocol  string // defaults to tcp when empty
}

// MountPlan attaches a named volume, or a host path when Source is absolute,
// to a container path.
type MountPlan struct {
	Source   string
	Target   string
	ReadOnly bool
}

// ConfigFilePlan is a file generated for one container. Path is relative to
// the config root; ContainerPath is where the file is bind-mounted.
type ConfigFilePlan struct {
	Path          string
	ContainerPath string
	Content       string
}

// BootstrapStep is a command executed inside a running container after the
// whole layout is up, such as cluster formation.
type BootstrapStep struct {
	Container string
	Cmd       []string

	// Attempts retries the command until it succeeds, waiting Delay between
	// tries. InitialDelay applies once before the first try.
	Attempts     int
	Delay        time.Duration
	InitialDelay time.Duration

	// Optional steps log a warning instead of failing the deployment when
	// every attempt fails.
	Optional bool
}

// =============================================================================
// Naming
// =============================================================================

// DataVolumeName generates the persistence volume name for a container.
//
// Pattern: {container}-data
// Example: redis-basic-1-data
func DataVolumeName(container string) string {
	return fmt.Sprintf("%s-data", container)
}

// NetworkName generates the dedicated network name for an instance.
//
// Pattern: {instance}-network
// Example: redis-cluster-1-network
func NetworkName(instanceName string) string {
	return fmt.Sprintf("%s-network", instanceName)
}

// InsightContainerName generates the RedisInsight container name for an
// instance.
//
// Pattern: {instance}-insight
// Example: redis-basic-1-insight
func InsightContainerName(instanceName string) string {
	return fmt.Sprintf("%s-insight", instanceName)
}

// ClusterNodeName generates the container name for cluster node i, zero-based.
//
// Pattern: {instance}-node-{index}
// Example: redis-cluster-1-node-0
func ClusterNodeName(instanceName string, index int) string {
	return fmt.Sprintf("%s-node-%d", instanceName, index)
}

// MasterName generates the container name for monitored master n, one-based.
//
// Pattern: {instance}-master-{n}
// Example: redis-sentinel-1-master-1
func MasterName(instanceName string, n int) string {
	return fmt.Sprintf("%s-master-%d", instanceName, n)
}

// SentinelName generates the container name for sentinel n, one-based.
//
// Pattern: {instance}-sentinel-{n}
// Example: redis-sentinel-1-sentinel-1
func SentinelName(instanceName string, n int) string {
	return fmt.Sprintf("%s-sentinel-%d", instanceName, n)
}

// EnterpriseContainerName generates the administrative container name for an
// enterprise cluster.
//
// Pattern: {instance}-enterprise
// Example: redis-enterprise-1-enterprise
func EnterpriseContainerName(instanceName string) string {
	return fmt.Sprintf("%s-enterprise", instanceName)
}

// EnterpriseClusterName generates the logical cluster name passed to the
// enterprise bootstrap.
//
// Pattern: {instance}-cluster
// Example: redis-enterprise-1-cluster
func EnterpriseClusterName(instanceName string) string {
	return fmt.Sprintf("%s-cluster", instanceName)
}
