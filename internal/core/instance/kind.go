// Package instance defines deployment kinds, instance descriptors, and the
// in-memory registry that records every Redis environment this tool starts.
package instance

import "fmt"

// =============================================================================
// Deployment Kinds
// =============================================================================

// Kind identifies the deployment topology of an instance.
type Kind string

const (
	KindBasic      Kind = "basic"
	KindStack      Kind = "stack"
	KindCluster    Kind = "cluster"
	KindSentinel   Kind = "sentinel"
	KindEnterprise Kind = "enterprise"
)

// Kinds returns every supported kind in display order.
func Kinds() []Kind {
	return []Kind{KindBasic, KindStack, KindCluster, KindSentinel, KindEnterprise}
}

// ParseKind converts a user-supplied string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindBasic, KindStack, KindCluster, KindSentinel, KindEnterprise:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown instance type %q (expected basic, stack, cluster, sentinel, or enterprise)", s)
	}
}

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	switch k {
	case KindBasic, KindStack, KindCluster, KindSentinel, KindEnterprise:
		return true
	}
	return false
}

// String returns the registry spelling of the kind.
func (k Kind) String() string {
	return string(k)
}

// DisplayName returns the human-readable name used in command output.
func (k Kind) DisplayName() string {
	switch k {
	case KindBasic:
		return "Basic Redis"
	case KindStack:
		return "Redis Stack"
	case KindCluster:
		return "Redis Cluster"
	case KindSentinel:
		return "Redis Sentinel"
	case KindEnterprise:
		return "Redis Enterprise"
	default:
		return string(k)
	}
}
