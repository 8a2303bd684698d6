package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joshrotenberg/redis-up/internal/core/instance"
)

// =============================================================================
// Module Selection Tests
// =============================================================================

func TestSelectModules_NoFlags(t *testing.T) {
	assert.Empty(t, selectModules(false, false, false, false, false, false))
}

func TestSelectModules_DemoBundle(t *testing.T) {
	mods := selectModules(true, false, false, false, false, false)
	assert.Equal(t, []string{"JSON", "Search", "TimeSeries"}, mods)
}

func TestSelectModules_IndividualFlags(t *testing.T) {
	mods := selectModules(false, true, false, true, false, true)
	assert.Equal(t, []string{"JSON", "TimeSeries", "Bloom"}, mods)
}

func TestSelectModules_FlagsExtendBundleWithoutDuplicates(t *testing.T) {
	mods := selectModules(true, true, false, false, true, false)
	assert.Equal(t, []string{"JSON", "Search", "TimeSeries", "Graph"}, mods)
}

// =============================================================================
// Display Helper Tests
// =============================================================================

func TestKindNoun(t *testing.T) {
	assert.Equal(t, "Basic Redis instance", kindNoun(instance.KindBasic))
	assert.Equal(t, "Redis Stack instance", kindNoun(instance.KindStack))
	assert.Equal(t, "Redis Cluster", kindNoun(instance.KindCluster))
	assert.Equal(t, "Sentinel setup", kindNoun(instance.KindSentinel))
	assert.Equal(t, "Enterprise cluster", kindNoun(instance.KindEnterprise))
}

func TestKindIcon(t *testing.T) {
	assert.Equal(t, "[B]", kindIcon(instance.KindBasic))
	assert.Equal(t, "[S]", kindIcon(instance.KindStack))
	assert.Equal(t, "[C]", kindIcon(instance.KindCluster))
	assert.Equal(t, "[N]", kindIcon(instance.KindSentinel))
	assert.Equal(t, "[E]", kindIcon(instance.KindEnterprise))
}

func TestJoinInts(t *testing.T) {
	assert.Equal(t, "7000, 7001, 7002", joinInts([]int{7000, 7001, 7002}, ", "))
	assert.Equal(t, "", joinInts(nil, ", "))
}

func TestNodeAddresses(t *testing.T) {
	assert.Equal(t, "localhost:7000, localhost:7001", nodeAddresses([]int{7000, 7001}))
}
