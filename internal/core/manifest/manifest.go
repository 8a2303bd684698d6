// Package manifest parses declarative deployment manifests: a versioned YAML
// document listing instances to stand up in order. Field defaults mirror the
// CLI flag defaults so a minimal entry behaves like a bare start command.
package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/joshrotenberg/redis-up/internal/core/instance"
	"github.com/joshrotenberg/redis-up/internal/core/topology"
)

// SupportedAPIVersion is the only manifest schema this build understands.
const SupportedAPIVersion = "v1"

// Defaults applied when a manifest entry omits a field.
const (
	DefaultPort               = 6379
	DefaultInsightPort        = 8001
	DefaultMasters            = 3
	DefaultReplicas           = 1
	DefaultClusterPortBase    = 7000
	DefaultSentinels          = 3
	DefaultSentinelPortBase   = 26379
	DefaultEnterpriseNodes    = 3
	DefaultEnterprisePortBase = 8443
	DefaultDBPort             = 12000
	DefaultEnterpriseDB       = "mydb"
)

// Manifest is a versioned list of deployment requests.
type Manifest struct {
	APIVersion  string       `yaml:"api-version"`
	Deployments []Deployment `yaml:"deployments"`
}

// Deployment is one named instance request. Kind-specific settings sit
// alongside the name and type; which ones apply depends on the type.
// Optional numeric fields are pointers so zero values and absent fields
// resolve differently.
type Deployment struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`

	Password    string `yaml:"password"`
	Persist     bool   `yaml:"persist"`
	Memory      string `yaml:"memory"`
	WithInsight bool   `yaml:"with-insight"`
	InsightPort *int   `yaml:"insight-port"`

	// Basic and stack.
	Port *int `yaml:"port"`

	// Cluster. PortBase doubles as the enterprise UI port, with a
	// different default per kind.
	Masters  *int `yaml:"masters"`
	Replicas *int `yaml:"replicas"`
	PortBase *int `yaml:"port-base"`
	Stack    bool `yaml:"stack"`

	// Sentinel.
	Sentinels        *int `yaml:"sentinels"`
	RedisPortBase    *int `yaml:"redis-port-base"`
	SentinelPortBase *int `yaml:"sentinel-port-base"`

	// Enterprise.
	Nodes    *int    `yaml:"nodes"`
	CreateDB *string `yaml:"create-db"`
	DBPort   *int    `yaml:"db-port"`
}

// Parse decodes a manifest document and validates its version marker and
// entry names. Per-entry type validation is deferred to deploy time so one
// bad entry cannot block the rest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if m.APIVersion == "" {
		m.APIVersion = SupportedAPIVersion
	}
	if m.APIVersion != SupportedAPIVersion {
		return nil, fmt.Errorf("unsupported API version: %s. Expected: %s", m.APIVersion, SupportedAPIVersion)
	}

	if len(m.Deployments) == 0 {
		return nil, fmt.Errorf("manifest contains no deployments")
	}
	for i, d := range m.Deployments {
		if d.Name == "" {
			return nil, fmt.Errorf("deployment %d has no name", i)
		}
	}

	return &m, nil
}

// Kind resolves the entry's type tag.
func (d Deployment) Kind() (instance.Kind, error) {
	return instance.ParseKind(d.Type)
}

// BasicOptions resolves the entry into single-node options.
func (d Deployment) BasicOptions() topology.BasicOptions {
	return topology.BasicOptions{
		Port:        intOr(d.Port, DefaultPort),
		Persist:     d.Persist,
		Memory:      d.Memory,
		Insight:     d.WithInsight,
		InsightPort: intOr(d.InsightPort, DefaultInsightPort),
	}
}

// StackOptions resolves the entry into stack options. Manifest stacks get the
// popular-module bundle.
func (d Deployment) StackOptions() topology.StackOptions {
	return topology.StackOptions{
		Port:        intOr(d.Port, DefaultPort),
		Modules:     topology.DemoModules(),
		Persist:     d.Persist,
		Memory:      d.Memory,
		Insight:     d.WithInsight,
		InsightPort: intOr(d.InsightPort, DefaultInsightPort),
	}
}

// ClusterOptions resolves the entry into cluster options.
func (d Deployment) ClusterOptions() topology.ClusterOptions {
	return topology.ClusterOptions{
		Masters:     intOr(d.Masters, DefaultMasters),
		Replicas:    intOr(d.Replicas, DefaultReplicas),
		PortBase:    intOr(d.PortBase, DefaultClusterPortBase),
		Persist:     d.Persist,
		Memory:      d.Memory,
		Stack:       d.Stack,
		Insight:     d.WithInsight,
		InsightPort: intOr(d.InsightPort, DefaultInsightPort),
	}
}

// SentinelOptions resolves the entry into sentinel options. Manifest sentinel
// groups always monitor a single master.
func (d Deployment) SentinelOptions() topology.SentinelOptions {
	return topology.SentinelOptions{
		Masters:          1,
		Sentinels:        intOr(d.Sentinels, DefaultSentinels),
		RedisPortBase:    intOr(d.RedisPortBase, DefaultPort),
		SentinelPortBase: intOr(d.SentinelPortBase, DefaultSentinelPortBase),
		Persist:          d.Persist,
		Memory:           d.Memory,
		Insight:          d.WithInsight,
		InsightPort:      intOr(d.InsightPort, DefaultInsightPort),
	}
}

// EnterpriseOptions resolves the entry into enterprise options. A database is
// always created; entries that omit create-db get the default name.
func (d Deployment) EnterpriseOptions() topology.EnterpriseOptions {
	return topology.EnterpriseOptions{
		Nodes:       intOr(d.Nodes, DefaultEnterpriseNodes),
		PortBase:    intOr(d.PortBase, DefaultEnterprisePortBase),
		DBPort:      intOr(d.DBPort, DefaultDBPort),
		CreateDB:    strOr(d.CreateDB, DefaultEnterpriseDB),
		Persist:     d.Persist,
		Memory:      d.Memory,
		Insight:     d.WithInsight,
		InsightPort: intOr(d.InsightPort, DefaultInsightPort),
	}
}

func intOr(p *int, def int) int {
	if p != nil {
		return *p
	}
	return def
}

func strOr(p *string, def string) string {
	if p != nil {
		return *p
	}
	return def
}
