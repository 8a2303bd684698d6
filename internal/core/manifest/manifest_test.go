package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshrotenberg/redis-up/internal/core/instance"
)

func TestParse_MinimalEntry(t *testing.T) {
	doc := []byte(`api-version: v1
deployments:
  - name: cache
    type: basic
`)

	m, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, "v1", m.APIVersion)
	require.Len(t, m.Deployments, 1)

	d := m.Deployments[0]
	assert.Equal(t, "cache", d.Name)

	kind, err := d.Kind()
	require.NoError(t, err)
	assert.Equal(t, instance.KindBasic, kind)

	opts := d.BasicOptions()
	assert.Equal(t, 6379, opts.Port)
	assert.Equal(t, 8001, opts.InsightPort)
	assert.False(t, opts.Persist)
}

func TestParse_MissingVersionDefaultsToV1(t *testing.T) {
	doc := []byte(`deployments:
  - name: cache
    type: basic
`)

	m, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, SupportedAPIVersion, m.APIVersion)
}

func TestParse_UnsupportedVersion(t *testing.T) {
	doc := []byte(`api-version: v2
deployments:
  - name: cache
    type: basic
`)

	_, err := Parse(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported API version: v2")
}

func TestParse_EmptyDeployments(t *testing.T) {
	_, err := Parse([]byte("api-version: v1\ndeployments: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no deployments")
}

func TestParse_MissingName(t *testing.T) {
	doc := []byte(`api-version: v1
deployments:
  - type: basic
    port: 6379
`)

	_, err := Parse(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no name")
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("deployments: [unclosed"))
	assert.Error(t, err)
}

func TestDeployment_UnknownTypeFailsAtKindResolution(t *testing.T) {
	doc := []byte(`api-version: v1
deployments:
  - name: odd
    type: memcached
`)

	m, err := Parse(doc)
	require.NoError(t, err, "parsing should tolerate unknown types")

	_, err = m.Deployments[0].Kind()
	assert.Error(t, err)
}

func TestDeployment_ClusterDefaults(t *testing.T) {
	doc := []byte(`api-version: v1
deployments:
  - name: session-cluster
    type: cluster
`)

	m, err := Parse(doc)
	require.NoError(t, err)

	opts := m.Deployments[0].ClusterOptions()
	assert.Equal(t, 3, opts.Masters)
	assert.Equal(t, 1, opts.Replicas)
	assert.Equal(t, 7000, opts.PortBase)
	assert.False(t, opts.Stack)
}

func TestDeployment_ClusterExplicitZeroReplicas(t *testing.T) {
	doc := []byte(`api-version: v1
deployments:
  - name: session-cluster
    type: cluster
    replicas: 0
`)

	m, err := Parse(doc)
	require.NoError(t, err)

	opts := m.Deployments[0].ClusterOptions()
	assert.Equal(t, 0, opts.Replicas, "explicit zero must not fall back to the default")
}

func TestDeployment_SentinelDefaults(t *testing.T) {
	doc := []byte(`api-version: v1
deployments:
  - name: ha
    type: sentinel
`)

	m, err := Parse(doc)
	require.NoError(t, err)

	opts := m.Deployments[0].SentinelOptions()
	assert.Equal(t, 1, opts.Masters)
	assert.Equal(t, 3, opts.Sentinels)
	assert.Equal(t, 6379, opts.RedisPortBase)
	assert.Equal(t, 26379, opts.SentinelPortBase)
	assert.Equal(t, 2, opts.Quorum())
}

func TestDeployment_EnterpriseDefaults(t *testing.T) {
	doc := []byte(`api-version: v1
deployments:
  - name: ent
    type: enterprise
`)

	m, err := Parse(doc)
	require.NoError(t, err)

	opts := m.Deployments[0].EnterpriseOptions()
	assert.Equal(t, 8443, opts.PortBase)
	assert.Equal(t, 12000, opts.DBPort)
	assert.Equal(t, "mydb", opts.CreateDB)
	assert.False(t, opts.Manual)
}

func TestDeployment_StackGetsDemoBundle(t *testing.T) {
	doc := []byte(`api-version: v1
deployments:
  - name: analytics
    type: stack
    port: 6380
`)

	m, err := Parse(doc)
	require.NoError(t, err)

	opts := m.Deployments[0].StackOptions()
	assert.Equal(t, 6380, opts.Port)
	assert.Equal(t, []string{"JSON", "Search", "TimeSeries"}, opts.Modules)
}

func TestExamples_AllParse(t *testing.T) {
	examples := Examples()
	require.Len(t, examples, 6)

	names := make([]string, 0, len(examples))
	for _, ex := range examples {
		m, err := Parse([]byte(ex.Content))
		require.NoError(t, err, "example %s should parse", ex.Filename)

		for _, d := range m.Deployments {
			_, err := d.Kind()
			require.NoError(t, err, "example %s entry %s", ex.Filename, d.Name)
		}
		names = append(names, ex.Filename)
	}

	assert.Contains(t, names, "multi-deployment.yaml")
}

func TestExamples_MultiDeploymentShape(t *testing.T) {
	for _, ex := range Examples() {
		if ex.Filename != "multi-deployment.yaml" {
			continue
		}

		m, err := Parse([]byte(ex.Content))
		require.NoError(t, err)
		require.Len(t, m.Deployments, 3)
		assert.Equal(t, "cache-redis", m.Deployments[0].Name)
		assert.Equal(t, "analytics-stack", m.Deployments[1].Name)
		assert.Equal(t, "session-cluster", m.Deployments[2].Name)
		return
	}
	t.Fatal("multi-deployment.yaml example missing")
}
