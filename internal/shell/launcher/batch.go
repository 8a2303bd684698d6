package launcher

import (
	"github.com/joshrotenberg/redis-up/internal/core/instance"
	"github.com/joshrotenberg/redis-up/internal/core/manifest"
	"github.com/joshrotenberg/redis-up/internal/core/topology"
)

// =============================================================================
// Batch Deployment
// =============================================================================

// BatchItem records the outcome of one manifest entry.
type BatchItem struct {
	Name     string
	Kind     instance.Kind
	Instance *instance.Instance
	Err      error
}

// BatchResult aggregates a manifest deployment.
type BatchResult struct {
	Succeeded int
	Failed    int
	Items     []BatchItem
}

// DeployManifest starts every entry in order. A failed entry is recorded and
// the rest still deploy, so one bad entry cannot block the others; the result
// carries per-entry outcomes and the final counts. When progress is non-nil
// it is called with each item as it completes.
func (l *Launcher) DeployManifest(m *manifest.Manifest, progress func(BatchItem)) *BatchResult {
	result := &BatchResult{}

	record := func(item BatchItem) {
		result.Items = append(result.Items, item)
		if progress != nil {
			progress(item)
		}
	}

	for _, d := range m.Deployments {
		item := BatchItem{Name: d.Name}

		kind, err := d.Kind()
		if err != nil {
			item.Err = err
			result.Failed++
			l.logger.Warn("skipping manifest entry", "name", d.Name, "error", err)
			record(item)
			continue
		}
		item.Kind = kind

		inst, err := l.Start(StartRequest{
			Kind:  kind,
			Name:  d.Name,
			Build: buildFor(d, kind),
		})
		if err != nil {
			item.Err = err
			result.Failed++
			l.logger.Warn("manifest entry failed", "name", d.Name, "error", err)
		} else {
			item.Instance = inst
			result.Succeeded++
		}
		record(item)
	}

	return result
}

// buildFor resolves the entry into its kind's builder, generating a password
// when the entry does not pin one.
func buildFor(d manifest.Deployment, kind instance.Kind) func(string) *topology.Plan {
	password := d.Password
	if password == "" {
		password = instance.GeneratePassword()
	}

	switch kind {
	case instance.KindBasic:
		opts := d.BasicOptions()
		return func(name string) *topology.Plan {
			return topology.BuildBasic(name, password, opts)
		}
	case instance.KindStack:
		opts := d.StackOptions()
		return func(name string) *topology.Plan {
			return topology.BuildStack(name, password, opts)
		}
	case instance.KindCluster:
		opts := d.ClusterOptions()
		return func(name string) *topology.Plan {
			return topology.BuildCluster(name, password, opts)
		}
	case instance.KindSentinel:
		opts := d.SentinelOptions()
		return func(name string) *topology.Plan {
			return topology.BuildSentinel(name, password, opts)
		}
	case instance.KindEnterprise:
		opts := d.EnterpriseOptions()
		return func(name string) *topology.Plan {
			return topology.BuildEnterprise(name, password, opts)
		}
	}
	return nil
}
