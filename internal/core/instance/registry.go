package instance

import (
	"fmt"
	"sort"
)

// =============================================================================
// Instance Registry
// =============================================================================

// Registry records every instance by name along with the per-kind counters
// used to generate names. Commands load it once, mutate it, and persist it
// back through the store.
type Registry struct {
	Instances map[string]Instance `json:"instances"`
	Counters  map[string]uint64   `json:"counters"`
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		Instances: make(map[string]Instance),
		Counters:  make(map[string]uint64),
	}
}

// Add upserts a descriptor keyed by its name.
func (r *Registry) Add(inst Instance) {
	if r.Instances == nil {
		r.Instances = make(map[string]Instance)
	}
	r.Instances[inst.Name] = inst
}

// Get returns the named descriptor and whether it exists.
func (r *Registry) Get(name string) (Instance, bool) {
	inst, ok := r.Instances[name]
	return inst, ok
}

// Remove deletes the named descriptor, returning it and whether it existed.
func (r *Registry) Remove(name string) (Instance, bool) {
	inst, ok := r.Instances[name]
	if ok {
		delete(r.Instances, name)
	}
	return inst, ok
}

// Len returns the number of recorded instances.
func (r *Registry) Len() int {
	return len(r.Instances)
}

// List returns all descriptors, newest first.
func (r *Registry) List() []Instance {
	out := make([]Instance, 0, len(r.Instances))
	for _, inst := range r.Instances {
		out = append(out, inst)
	}
	sort.Slice(out, func(a, b int) bool {
		return newerThan(out[a], out[b])
	})
	return out
}

// ListByKind returns all descriptors of the given kind, newest first.
func (r *Registry) ListByKind(kind Kind) []Instance {
	out := make([]Instance, 0)
	for _, inst := range r.Instances {
		if inst.Kind == kind {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		return newerThan(out[a], out[b])
	})
	return out
}

// LatestOfKind returns the most recently created instance of the given kind.
// Creation time ranks first; the numeric name suffix breaks ties so that
// instances created within the same clock tick resolve in allocation order.
func (r *Registry) LatestOfKind(kind Kind) (Instance, bool) {
	var latest Instance
	found := false
	for _, inst := range r.Instances {
		if inst.Kind != kind {
			continue
		}
		if !found || newerThan(inst, latest) {
			latest = inst
			found = true
		}
	}
	return latest, found
}

// newerThan reports whether a was created after b, using the numeric name
// suffix as a tie break on equal timestamps.
func newerThan(a, b Instance) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.NumericSuffix() > b.NumericSuffix()
}

// =============================================================================
// Name Allocation
// =============================================================================

// AllocateName increments the kind's counter and returns the generated name.
//
// Pattern: redis-{kind}-{counter}
// Example: redis-basic-1, redis-cluster-3
func (r *Registry) AllocateName(kind Kind) string {
	if r.Counters == nil {
		r.Counters = make(map[string]uint64)
	}
	r.Counters[string(kind)]++
	return fmt.Sprintf("redis-%s-%d", kind, r.Counters[string(kind)])
}

// RollbackName undoes the most recent allocation for the kind after a failed
// deployment. The counter never drops below zero.
func (r *Registry) RollbackName(kind Kind) {
	if r.Counters[string(kind)] > 0 {
		r.Counters[string(kind)]--
	}
}
