package instance

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// Connection Details
// =============================================================================

// Connection holds everything a client needs to reach an instance.
type Connection struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password,omitempty"`
	URL      string `json:"url"`

	// Extra maps auxiliary endpoints to host ports, such as "redisinsight"
	// for the RedisInsight UI or "api" for the enterprise REST API.
	Extra map[string]int `json:"extra,omitempty"`
}

// =============================================================================
// Kind-Specific Attributes
// =============================================================================

// Attributes carries the kind-specific facts needed to stop, inspect, or
// describe an instance without re-deriving its container layout.
type Attributes interface {
	attributeKind() Kind
}

// BasicAttrs describes a single-container Redis instance.
type BasicAttrs struct {
	Persist     bool   `json:"persist"`
	Memory      string `json:"memory,omitempty"`
	Insight     bool   `json:"insight"`
	InsightPort int    `json:"insight_port,omitempty"`
}

func (BasicAttrs) attributeKind() Kind { return KindBasic }

// StackAttrs describes a Redis Stack instance and the modules it loads.
type StackAttrs struct {
	Modules     []string `json:"modules,omitempty"`
	Persist     bool     `json:"persist"`
	Memory      string   `json:"memory,omitempty"`
	Network     string   `json:"network,omitempty"`
	Insight     bool     `json:"insight"`
	InsightPort int      `json:"insight_port,omitempty"`
}

func (StackAttrs) attributeKind() Kind { return KindStack }

// ClusterAttrs describes a sharded cluster and its node layout.
type ClusterAttrs struct {
	Masters     int    `json:"masters"`
	Replicas    int    `json:"replicas"`
	TotalNodes  int    `json:"total_nodes"`
	PortBase    int    `json:"port_base"`
	Network     string `json:"network"`
	Stack       bool   `json:"stack"`
	Persist     bool   `json:"persist"`
	Memory      string `json:"memory,omitempty"`
	Insight     bool   `json:"insight"`
	InsightPort int    `json:"insight_port,omitempty"`
}

func (ClusterAttrs) attributeKind() Kind { return KindCluster }

// SentinelAttrs describes a sentinel-monitored group of masters.
type SentinelAttrs struct {
	Masters            int      `json:"masters"`
	Sentinels          int      `json:"sentinels"`
	Quorum             int      `json:"quorum"`
	RedisPortBase      int      `json:"redis_port_base"`
	SentinelPortBase   int      `json:"sentinel_port_base"`
	Network            string   `json:"network"`
	MasterContainers   []string `json:"master_containers"`
	SentinelContainers []string `json:"sentinel_containers"`
	Persist            bool     `json:"persist"`
	Memory             string   `json:"memory,omitempty"`
	Insight            bool     `json:"insight"`
	InsightPort        int      `json:"insight_port,omitempty"`
}

func (SentinelAttrs) attributeKind() Kind { return KindSentinel }

// EnterpriseAttrs describes a Redis Enterprise node and its database, if one
// was bootstrapped. Manual means the cluster was left for setup through the UI.
type EnterpriseAttrs struct {
	Nodes       int    `json:"nodes"`
	UIPort      int    `json:"ui_port"`
	APIPort     int    `json:"api_port"`
	DBPort      int    `json:"db_port,omitempty"`
	DBName      string `json:"db_name,omitempty"`
	Manual      bool   `json:"manual"`
	Insight     bool   `json:"insight"`
	InsightPort int    `json:"insight_port,omitempty"`
}

func (EnterpriseAttrs) attributeKind() Kind { return KindEnterprise }

// =============================================================================
// Instance Descriptor
// =============================================================================

// Instance is the persisted record of one logical deployment. Containers are
// listed in start order; the first entry is the one used for log streaming
// and interactive shells.
type Instance struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Kind       Kind       `json:"kind"`
	CreatedAt  time.Time  `json:"created_at"`
	Ports      []int      `json:"ports"`
	Containers []string   `json:"containers"`
	Connection Connection `json:"connection"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// instanceJSON mirrors Instance with attributes deferred so the concrete
// type can be chosen from the kind during decode.
type instanceJSON struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Kind       Kind            `json:"kind"`
	CreatedAt  time.Time       `json:"created_at"`
	Ports      []int           `json:"ports"`
	Containers []string        `json:"containers"`
	Connection Connection      `json:"connection"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
}

// UnmarshalJSON decodes an instance, resolving the attributes payload into
// the concrete type for the instance's kind.
func (i *Instance) UnmarshalJSON(data []byte) error {
	var raw instanceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	i.ID = raw.ID
	i.Name = raw.Name
	i.Kind = raw.Kind
	i.CreatedAt = raw.CreatedAt
	i.Ports = raw.Ports
	i.Containers = raw.Containers
	i.Connection = raw.Connection
	i.Attributes = nil

	if len(raw.Attributes) == 0 || string(raw.Attributes) == "null" {
		return nil
	}

	attrs, err := decodeAttributes(raw.Kind, raw.Attributes)
	if err != nil {
		return fmt.Errorf("instance %q: %w", raw.Name, err)
	}
	i.Attributes = attrs
	return nil
}

func decodeAttributes(kind Kind, data []byte) (Attributes, error) {
	switch kind {
	case KindBasic:
		var a BasicAttrs
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		return a, nil
	case KindStack:
		var a StackAttrs
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		return a, nil
	case KindCluster:
		var a ClusterAttrs
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		return a, nil
	case KindSentinel:
		var a SentinelAttrs
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		return a, nil
	case KindEnterprise:
		var a EnterpriseAttrs
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown instance kind %q", kind)
	}
}

// NumericSuffix returns the trailing "-N" portion of the instance name, or 0
// when the name has no numeric suffix. Generated names always carry one, so
// the suffix orders instances allocated within the same clock tick.
func (i Instance) NumericSuffix() int {
	idx := strings.LastIndex(i.Name, "-")
	if idx < 0 {
		return 0
	}
	n, err := strconv.Atoi(i.Name[idx+1:])
	if err != nil {
		return 0
	}
	return n
}
