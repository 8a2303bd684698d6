package topology

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshrotenberg/redis-up/internal/core/instance"
)

func TestSentinelOptions_Quorum(t *testing.T) {
	tests := []struct {
		name      string
		sentinels int
		want      int
	}{
		{
			name:      "three sentinels",
			sentinels: 3,
			want:      2,
		},
		{
			name:      "five sentinels",
			sentinels: 5,
			want:      3,
		},
		{
			name:      "single sentinel",
			sentinels: 1,
			want:      1,
		},
		{
			name:      "even count",
			sentinels: 4,
			want:      3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := SentinelOptions{Sentinels: tt.sentinels}
			assert.Equal(t, tt.want, opts.Quorum())
		})
	}
}

func TestBuildSentinel_Layout(t *testing.T) {
	plan := BuildSentinel("redis-sentinel-1", "pw", SentinelOptions{
		Masters:          1,
		Sentinels:        3,
		RedisPortBase:    6379,
		SentinelPortBase: 26379,
	})

	// 1 master + 3 sentinels, masters first
	require.Len(t, plan.Containers, 4)
	assert.Equal(t, "redis-sentinel-1-master-1", plan.Containers[0].Name)
	assert.Equal(t, "redis-sentinel-1-sentinel-1", plan.Containers[1].Name)
	assert.Equal(t, "redis-sentinel-1-sentinel-3", plan.Containers[3].Name)

	assert.Equal(t, []int{6379, 26379, 26380, 26381}, plan.Ports)
	assert.Equal(t, "redis-sentinel-1-network", plan.Network)
	for _, c := range plan.Containers {
		assert.Equal(t, "redis-sentinel-1-network", c.Network)
	}

	attrs := plan.Attributes.(instance.SentinelAttrs)
	assert.Equal(t, 2, attrs.Quorum)
	assert.Equal(t, []string{"redis-sentinel-1-master-1"}, attrs.MasterContainers)
	require.Len(t, attrs.SentinelContainers, 3)

	assert.Equal(t, "redis://:pw@localhost:6379", plan.Connection.URL)
	assert.Equal(t, 26379, plan.Connection.Extra["sentinel_base"])
}

func TestBuildSentinel_ConfContent(t *testing.T) {
	plan := BuildSentinel("s", "secret", SentinelOptions{
		Masters:          1,
		Sentinels:        3,
		RedisPortBase:    6379,
		SentinelPortBase: 26379,
	})

	first := plan.Containers[1]
	require.Len(t, first.ConfigFiles, 1)
	cf := first.ConfigFiles[0]
	assert.Equal(t, "sentinel/s/sentinel-1.conf", cf.Path)
	assert.Equal(t, "/etc/redis/sentinel.conf", cf.ContainerPath)

	lines := strings.Split(strings.TrimSpace(cf.Content), "\n")
	require.GreaterOrEqual(t, len(lines), 8)
	assert.Equal(t, "port 26379", lines[0])
	assert.Equal(t, "sentinel announce-hostnames yes", lines[1])
	assert.Equal(t, "sentinel resolve-hostnames yes", lines[2])
	assert.Equal(t, "sentinel monitor master-1 s-master-1 6379 2", lines[3])
	assert.Equal(t, "sentinel auth-pass master-1 secret", lines[4])
	assert.Equal(t, "sentinel down-after-milliseconds master-1 5000", lines[5])
	assert.Equal(t, "sentinel failover-timeout master-1 10000", lines[6])
	assert.Equal(t, "sentinel parallel-syncs master-1 1", lines[7])

	// Each sentinel listens on its own published port.
	second := plan.Containers[2].ConfigFiles[0]
	assert.True(t, strings.HasPrefix(second.Content, "port 26380\n"))
	assert.Equal(t, "sentinel/s/sentinel-2.conf", second.Path)
}

func TestBuildSentinel_MultipleMasters(t *testing.T) {
	plan := BuildSentinel("s", "pw", SentinelOptions{
		Masters:          2,
		Sentinels:        3,
		RedisPortBase:    6379,
		SentinelPortBase: 26379,
	})

	require.Len(t, plan.Containers, 5)
	assert.Equal(t, "s-master-1", plan.Containers[0].Name)
	assert.Equal(t, "s-master-2", plan.Containers[1].Name)
	assert.Contains(t, plan.Containers[1].Cmd, "6380")

	conf := plan.Containers[2].ConfigFiles[0].Content
	assert.Contains(t, conf, "sentinel monitor master-1 s-master-1 6379 2")
	assert.Contains(t, conf, "sentinel monitor master-2 s-master-2 6380 2")
}

func TestBuildSentinel_ClampsToOneMaster(t *testing.T) {
	plan := BuildSentinel("s", "pw", SentinelOptions{
		Masters:          0,
		Sentinels:        3,
		RedisPortBase:    6379,
		SentinelPortBase: 26379,
	})

	attrs := plan.Attributes.(instance.SentinelAttrs)
	assert.Equal(t, 1, attrs.Masters)
	assert.Equal(t, "s-master-1", plan.Containers[0].Name)
}

func TestBuildSentinel_NoAuthPassWithoutPassword(t *testing.T) {
	plan := BuildSentinel("s", "", SentinelOptions{
		Masters:          1,
		Sentinels:        1,
		RedisPortBase:    6379,
		SentinelPortBase: 26379,
	})

	conf := plan.Containers[1].ConfigFiles[0].Content
	assert.NotContains(t, conf, "auth-pass")
	assert.Contains(t, conf, "sentinel monitor master-1 s-master-1 6379 1")
}

func TestBuildSentinel_PersistMountsMasterVolumes(t *testing.T) {
	plan := BuildSentinel("s", "pw", SentinelOptions{
		Masters:          1,
		Sentinels:        3,
		RedisPortBase:    6379,
		SentinelPortBase: 26379,
		Persist:          true,
	})

	assert.Equal(t, []string{"s-master-1-data"}, plan.Volumes)
	require.Len(t, plan.Containers[0].Mounts, 1)
	assert.Contains(t, plan.Containers[0].Cmd, "--appendonly")

	// Sentinels stay stateless.
	assert.Empty(t, plan.Containers[1].Mounts)
}
