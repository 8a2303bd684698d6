package launcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joshrotenberg/redis-up/internal/core/instance"
	"github.com/joshrotenberg/redis-up/internal/core/topology"
	"github.com/joshrotenberg/redis-up/internal/shell/docker"
)

// =============================================================================
// Instance Resolution
// =============================================================================

// Resolve finds the instance a command should act on: the named one, or the
// most recent of the kind when no name is given.
func (l *Launcher) Resolve(kind instance.Kind, name string) (instance.Instance, error) {
	reg, err := l.store.Load()
	if err != nil {
		return instance.Instance{}, err
	}
	return ResolveInstance(reg, kind, name)
}

// ResolveAny finds the named instance of any kind, or the most recent
// instance overall when no name is given. Logs and shell use this because
// they do not take a kind.
func (l *Launcher) ResolveAny(name string) (instance.Instance, error) {
	reg, err := l.store.Load()
	if err != nil {
		return instance.Instance{}, err
	}
	return ResolveAnyInstance(reg, name)
}

// List returns recorded instances, optionally filtered by kind, newest first.
func (l *Launcher) List(kind instance.Kind) ([]instance.Instance, error) {
	reg, err := l.store.Load()
	if err != nil {
		return nil, err
	}
	if kind == "" {
		return reg.List(), nil
	}
	return reg.ListByKind(kind), nil
}

// ResolveInstance applies the kind-scoped resolution rules to an already
// loaded registry. Read-only commands use it directly so they work without a
// Docker connection.
func ResolveInstance(reg *instance.Registry, kind instance.Kind, name string) (instance.Instance, error) {
	if name == "" {
		inst, ok := reg.LatestOfKind(kind)
		if !ok {
			return instance.Instance{}, NewLaunchError("resolve", "",
				fmt.Sprintf("no %s instances found. Start one first or pass a name", kind), ErrInstanceNotFound)
		}
		return inst, nil
	}

	inst, ok := reg.Get(name)
	if !ok {
		return instance.Instance{}, NewLaunchError("resolve", name, "instance not found", ErrInstanceNotFound)
	}
	if inst.Kind != kind {
		return instance.Instance{}, NewLaunchError("resolve", name,
			fmt.Sprintf("instance is %s, not %s", inst.Kind, kind), ErrKindMismatch)
	}
	return inst, nil
}

// ResolveAnyInstance is ResolveInstance without the kind scope.
func ResolveAnyInstance(reg *instance.Registry, name string) (instance.Instance, error) {
	if name == "" {
		all := reg.List()
		if len(all) == 0 {
			return instance.Instance{}, NewLaunchError("resolve", "",
				"no instances found. Start one first", ErrInstanceNotFound)
		}
		return all[0], nil
	}

	inst, ok := reg.Get(name)
	if !ok {
		return instance.Instance{}, NewLaunchError("resolve", name, "instance not found", ErrInstanceNotFound)
	}
	return inst, nil
}

// =============================================================================
// Stop
// =============================================================================

// StopRequest names the instance to stop. An empty Name resolves to the most
// recent instance of the kind.
type StopRequest struct {
	Kind instance.Kind
	Name string
}

// StopResult reports what a stop actually removed. Removed counts containers,
// including ones that were already gone; Failures counts every resource that
// could not be removed.
type StopResult struct {
	Instance instance.Instance
	Removed  int
	Failures int
}

// Stop tears down the resolved instance and removes it from the registry.
// Stuck resources are counted in the result, not fatal; the registry entry
// goes away either way so a half-dead instance cannot wedge the tool.
func (l *Launcher) Stop(req StopRequest) (*StopResult, error) {
	reg, err := l.store.Load()
	if err != nil {
		return nil, err
	}

	inst, err := ResolveInstance(reg, req.Kind, req.Name)
	if err != nil {
		return nil, err
	}

	l.logger.Info("stopping instance", "instance", inst.Name, "kind", inst.Kind)

	removed, failures := l.teardown(inst)

	reg.Remove(inst.Name)
	if err := l.store.Save(reg); err != nil {
		return nil, err
	}

	l.logger.Info("instance stopped", "instance", inst.Name, "removed", removed, "failures", failures)
	return &StopResult{Instance: inst, Removed: removed, Failures: failures}, nil
}

// teardown force-removes every container in descriptor order, then the
// instance network, kind-specific named volumes, and generated config files.
// Containers are removed with their anonymous volumes; named data volumes
// survive so a restart with the same name finds its data.
func (l *Launcher) teardown(inst instance.Instance) (removed, failures int) {
	timeout := l.stopTimeout
	for _, name := range inst.Containers {
		if err := l.docker.StopContainer(name, &timeout); err != nil {
			l.logger.Debug("stop failed, removing anyway", "container", name, "error", err)
		}

		err := l.docker.RemoveContainer(name, docker.RemoveOptions{Force: true, RemoveVolumes: true})
		switch {
		case err == nil:
			removed++
			l.logger.Debug("container removed", "container", name)
		case errors.Is(err, docker.ErrContainerNotFound):
			removed++
			l.logger.Debug("container already gone", "container", name)
		default:
			failures++
			l.logger.Warn("failed to remove container", "container", name, "error", err)
		}
	}

	if network := instanceNetwork(inst); network != "" {
		if err := l.docker.RemoveNetwork(network); err != nil && !errors.Is(err, docker.ErrNetworkNotFound) {
			failures++
			l.logger.Warn("failed to remove network", "network", network, "error", err)
		}
	}

	for _, vol := range instanceVolumes(inst) {
		if err := l.docker.RemoveVolume(vol, true); err != nil && !errors.Is(err, docker.ErrVolumeNotFound) {
			failures++
			l.logger.Warn("failed to remove volume", "volume", vol, "error", err)
		}
	}

	if dir := l.instanceConfDir(inst); dir != "" {
		if err := os.RemoveAll(dir); err != nil {
			l.logger.Warn("failed to remove config directory", "dir", dir, "error", err)
		}
	}

	return removed, failures
}

// instanceNetwork returns the dedicated network recorded for the instance,
// or "" when the kind runs on the default bridge.
func instanceNetwork(inst instance.Instance) string {
	switch attrs := inst.Attributes.(type) {
	case instance.StackAttrs:
		return attrs.Network
	case instance.ClusterAttrs:
		return attrs.Network
	case instance.SentinelAttrs:
		return attrs.Network
	}
	return ""
}

// instanceVolumes returns named volumes to remove on stop. Only enterprise
// uses volumes that outlive their container removal.
func instanceVolumes(inst instance.Instance) []string {
	if _, ok := inst.Attributes.(instance.EnterpriseAttrs); !ok {
		return nil
	}
	persistent, ephemeral := topology.EnterprisePersistVolumes(inst.Name)
	return []string{persistent, ephemeral}
}

// instanceConfDir returns the generated-config directory to remove on stop,
// or "" when the kind has none.
func (l *Launcher) instanceConfDir(inst instance.Instance) string {
	if _, ok := inst.Attributes.(instance.SentinelAttrs); !ok {
		return ""
	}
	root, err := filepath.Abs(l.configDir)
	if err != nil {
		return ""
	}
	return filepath.Join(root, filepath.FromSlash(topology.SentinelConfDir(inst.Name)))
}

// =============================================================================
// Cleanup
// =============================================================================

// CleanupResult aggregates a bulk teardown.
type CleanupResult struct {
	Cleaned int // instances removed from the registry
	Errors  int // individual resource removals that failed
}

// Cleanup tears down every instance, or every instance of one kind, and
// removes them from the registry regardless of per-resource failures. The
// registry is saved once at the end.
func (l *Launcher) Cleanup(kind instance.Kind) (*CleanupResult, error) {
	reg, err := l.store.Load()
	if err != nil {
		return nil, err
	}

	var targets []instance.Instance
	if kind == "" {
		targets = reg.List()
	} else {
		targets = reg.ListByKind(kind)
	}

	result := &CleanupResult{}
	for _, inst := range targets {
		l.logger.Info("cleaning up instance", "instance", inst.Name, "kind", inst.Kind)
		_, failures := l.teardown(inst)
		result.Errors += failures
		reg.Remove(inst.Name)
		result.Cleaned++
	}

	if err := l.store.Save(reg); err != nil {
		return result, err
	}
	return result, nil
}
