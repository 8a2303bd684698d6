package launcher

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshrotenberg/redis-up/internal/core/instance"
	"github.com/joshrotenberg/redis-up/internal/core/topology"
	"github.com/joshrotenberg/redis-up/internal/shell/docker"
	"github.com/joshrotenberg/redis-up/internal/shell/store"
)

// =============================================================================
// Fake Docker Client
// =============================================================================

var _ docker.Client = (*fakeClient)(nil)

type fakeContainer struct {
	id      string
	name    string
	spec    docker.ContainerSpec
	running bool
}

type execCall struct {
	container string
	cmd       []string
}

// fakeClient is an in-memory docker.Client. Failures are injected per
// container name; like the real daemon it resolves both names and ids.
type fakeClient struct {
	nextID     int
	containers map[string]*fakeContainer // by id
	byName     map[string]string
	networks   map[string]bool
	volumes    map[string]bool
	images     map[string]bool

	createErr map[string]error
	startErr  map[string]error
	removeErr map[string]error
	execErr   map[string]error
	execFailN map[string]int // fail this many execs, then succeed

	execs   []execCall
	pulled  []string
	removed []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		containers: make(map[string]*fakeContainer),
		byName:     make(map[string]string),
		networks:   make(map[string]bool),
		volumes:    make(map[string]bool),
		images:     make(map[string]bool),
		createErr:  make(map[string]error),
		startErr:   make(map[string]error),
		removeErr:  make(map[string]error),
		execErr:    make(map[string]error),
		execFailN:  make(map[string]int),
	}
}

func (f *fakeClient) find(ref string) (*fakeContainer, bool) {
	if c, ok := f.containers[ref]; ok {
		return c, true
	}
	if id, ok := f.byName[ref]; ok {
		return f.containers[id], true
	}
	return nil, false
}

func (f *fakeClient) CreateContainer(spec docker.ContainerSpec) (string, error) {
	if err := f.createErr[spec.Name]; err != nil {
		return "", err
	}
	if _, exists := f.byName[spec.Name]; exists {
		return "", docker.NewDockerError("CreateContainer", "container", spec.Name,
			fmt.Sprintf("the container name %q is already in use by container \"abc123\"", spec.Name),
			docker.ErrContainerAlreadyExists)
	}

	f.nextID++
	id := fmt.Sprintf("ctr-%d", f.nextID)
	f.containers[id] = &fakeContainer{id: id, name: spec.Name, spec: spec}
	f.byName[spec.Name] = id
	return id, nil
}

func (f *fakeClient) StartContainer(ref string) error {
	c, ok := f.find(ref)
	if !ok {
		return docker.NewDockerError("StartContainer", "container", ref, "container not found", docker.ErrContainerNotFound)
	}
	if err := f.startErr[c.name]; err != nil {
		return err
	}
	c.running = true
	return nil
}

func (f *fakeClient) StopContainer(ref string, timeout *time.Duration) error {
	c, ok := f.find(ref)
	if !ok {
		return docker.NewDockerError("StopContainer", "container", ref, "container not found", docker.ErrContainerNotFound)
	}
	c.running = false
	return nil
}

func (f *fakeClient) RemoveContainer(ref string, opts docker.RemoveOptions) error {
	c, ok := f.find(ref)
	if !ok {
		return docker.NewDockerError("RemoveContainer", "container", ref, "container not found", docker.ErrContainerNotFound)
	}
	if err := f.removeErr[c.name]; err != nil {
		return err
	}
	delete(f.containers, c.id)
	delete(f.byName, c.name)
	f.removed = append(f.removed, c.name)
	return nil
}

func (f *fakeClient) InspectContainer(ref string) (*docker.ContainerInfo, error) {
	c, ok := f.find(ref)
	if !ok {
		return nil, docker.NewDockerError("InspectContainer", "container", ref, "container not found", docker.ErrContainerNotFound)
	}
	state := "exited"
	if c.running {
		state = "running"
	}
	return &docker.ContainerInfo{
		ID:     c.id,
		Name:   c.name,
		Image:  c.spec.Image,
		Status: docker.ContainerStatus(state),
		State:  state,
		Labels: c.spec.Labels,
	}, nil
}

func (f *fakeClient) ListContainers(opts docker.ListOptions) ([]docker.ContainerInfo, error) {
	var out []docker.ContainerInfo
	for _, c := range f.containers {
		info, _ := f.InspectContainer(c.id)
		out = append(out, *info)
	}
	return out, nil
}

func (f *fakeClient) ContainerLogs(ref string, opts docker.LogOptions) (io.ReadCloser, error) {
	if _, ok := f.find(ref); !ok {
		return nil, docker.NewDockerError("ContainerLogs", "container", ref, "container not found", docker.ErrContainerNotFound)
	}
	return io.NopCloser(strings.NewReader("")), nil
}

func (f *fakeClient) ExecContainer(ref string, cmd []string) (string, error) {
	c, ok := f.find(ref)
	if !ok {
		return "", docker.NewDockerError("ExecContainer", "container", ref, "container not found", docker.ErrContainerNotFound)
	}
	f.execs = append(f.execs, execCall{container: c.name, cmd: cmd})

	if n := f.execFailN[c.name]; n > 0 {
		f.execFailN[c.name] = n - 1
		return "", docker.NewDockerError("ExecContainer", "container", ref, "command failed", docker.ErrExecFailed)
	}
	if err := f.execErr[c.name]; err != nil {
		return "", err
	}
	return "", nil
}

func (f *fakeClient) CreateNetwork(spec docker.NetworkSpec) (string, error) {
	if f.networks[spec.Name] {
		return "", docker.NewDockerError("CreateNetwork", "network", spec.Name, "network already exists", docker.ErrNetworkAlreadyExists)
	}
	f.networks[spec.Name] = true
	return "net-" + spec.Name, nil
}

func (f *fakeClient) RemoveNetwork(name string) error {
	if !f.networks[name] {
		return docker.NewDockerError("RemoveNetwork", "network", name, "network not found", docker.ErrNetworkNotFound)
	}
	delete(f.networks, name)
	return nil
}

func (f *fakeClient) CreateVolume(spec docker.VolumeSpec) (string, error) {
	f.volumes[spec.Name] = true
	return spec.Name, nil
}

func (f *fakeClient) RemoveVolume(name string, force bool) error {
	if !f.volumes[name] {
		return docker.NewDockerError("RemoveVolume", "volume", name, "volume not found", docker.ErrVolumeNotFound)
	}
	delete(f.volumes, name)
	return nil
}

func (f *fakeClient) PullImage(image string, opts docker.PullOptions) error {
	f.pulled = append(f.pulled, image)
	f.images[image] = true
	return nil
}

func (f *fakeClient) ImageExists(image string) (bool, error) {
	return f.images[image], nil
}

func (f *fakeClient) Ping() error  { return nil }
func (f *fakeClient) Close() error { return nil }

// =============================================================================
// Test Helpers
// =============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestLauncher(t *testing.T) (*Launcher, *fakeClient, *store.FileStore) {
	t.Helper()
	cli := newFakeClient()
	dir := t.TempDir()
	st := store.NewFileStore(store.RegistryPath(dir), testLogger())
	l := New(cli, st, filepath.Join(dir, "conf"), testLogger())
	return l, cli, st
}

func basicRequest(port int) StartRequest {
	return StartRequest{
		Kind: instance.KindBasic,
		Build: func(name string) *topology.Plan {
			return topology.BuildBasic(name, "secret", topology.BasicOptions{Port: port})
		},
	}
}

// flakyStore fails Save on demand while delegating everything else.
type flakyStore struct {
	store.Store
	saveErr error
}

func (s *flakyStore) Save(reg *instance.Registry) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.Store.Save(reg)
}

// =============================================================================
// Start Tests
// =============================================================================

func TestStartCommitsDescriptor(t *testing.T) {
	l, cli, st := newTestLauncher(t)

	inst, err := l.Start(basicRequest(6379))
	require.NoError(t, err)

	assert.Equal(t, "redis-basic-1", inst.Name)
	assert.Equal(t, instance.KindBasic, inst.Kind)
	assert.NotEmpty(t, inst.ID)
	assert.False(t, inst.CreatedAt.IsZero())
	assert.Equal(t, []string{"redis-basic-1"}, inst.Containers)
	assert.Equal(t, []int{6379}, inst.Ports)
	assert.Equal(t, "secret", inst.Connection.Password)

	info, err := cli.InspectContainer("redis-basic-1")
	require.NoError(t, err)
	assert.Equal(t, "running", info.State)
	assert.Equal(t, "true", info.Labels[docker.LabelManaged])
	assert.Equal(t, "redis-basic-1", info.Labels[docker.LabelInstance])
	assert.Equal(t, "basic", info.Labels[docker.LabelKind])

	reg, err := st.Load()
	require.NoError(t, err)
	saved, ok := reg.Get("redis-basic-1")
	require.True(t, ok)
	assert.Equal(t, inst.ID, saved.ID)
	assert.Equal(t, uint64(1), reg.Counters["basic"])
}

func TestStartAllocatesSequentialNames(t *testing.T) {
	l, _, _ := newTestLauncher(t)

	first, err := l.Start(basicRequest(6379))
	require.NoError(t, err)
	second, err := l.Start(basicRequest(6380))
	require.NoError(t, err)

	assert.Equal(t, "redis-basic-1", first.Name)
	assert.Equal(t, "redis-basic-2", second.Name)
}

func TestStartKeepsUserSuppliedName(t *testing.T) {
	l, _, st := newTestLauncher(t)

	req := basicRequest(6379)
	req.Name = "mycache"

	inst, err := l.Start(req)
	require.NoError(t, err)
	assert.Equal(t, "mycache", inst.Name)

	reg, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), reg.Counters["basic"])
}

func TestStartRollsBackOnContainerFailure(t *testing.T) {
	l, cli, st := newTestLauncher(t)

	cli.startErr["redis-cluster-1-node-1"] = errors.New("oci runtime error")

	req := StartRequest{
		Kind: instance.KindCluster,
		Build: func(name string) *topology.Plan {
			return topology.BuildCluster(name, "secret", topology.ClusterOptions{Masters: 3, PortBase: 7000})
		},
	}

	_, err := l.Start(req)
	require.Error(t, err)

	// Node 0 was created and started, node 1 created; both are gone again,
	// along with the network.
	assert.Empty(t, cli.containers)
	assert.Empty(t, cli.networks)

	reg, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, uint64(0), reg.Counters["cluster"])

	// A retry allocates the same name.
	cli.startErr = map[string]error{}
	inst, err := l.Start(req)
	require.NoError(t, err)
	assert.Equal(t, "redis-cluster-1", inst.Name)
}

func TestStartFailureWithUserNameLeavesCounter(t *testing.T) {
	l, cli, st := newTestLauncher(t)

	cli.startErr["mycache"] = errors.New("oci runtime error")

	req := basicRequest(6379)
	req.Name = "mycache"

	_, err := l.Start(req)
	require.Error(t, err)

	reg, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), reg.Counters["basic"])
	assert.Equal(t, 0, reg.Len())
}

func TestStartClassifiesNameConflict(t *testing.T) {
	l, _, _ := newTestLauncher(t)

	_, err := l.Start(basicRequest(6379))
	require.NoError(t, err)

	// Same container name again: the fake reports Docker's 409 text.
	req := basicRequest(6380)
	req.Name = "redis-basic-1"

	_, err = l.Start(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNameConflict)
	assert.Contains(t, err.Error(), "--name")
	assert.Contains(t, err.Error(), "redis-up cleanup")
}

func TestStartClassifiesPortConflict(t *testing.T) {
	l, cli, _ := newTestLauncher(t)

	cli.startErr["redis-basic-1"] = errors.New(
		"driver failed programming external connectivity on endpoint redis-basic-1: " +
			"Bind for 0.0.0.0:6379 failed: port is already allocated")

	_, err := l.Start(basicRequest(6379))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPortConflict)
	assert.Contains(t, err.Error(), "--port")
}

func TestStartPassesThroughUnclassifiedErrors(t *testing.T) {
	l, cli, _ := newTestLauncher(t)

	cli.startErr["redis-basic-1"] = errors.New("oci runtime error: exec format issue")

	_, err := l.Start(basicRequest(6379))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNameConflict)
	assert.NotErrorIs(t, err, ErrPortConflict)
	assert.Contains(t, err.Error(), "redis-basic-1")
	assert.Contains(t, err.Error(), "oci runtime error")
}

func TestStartContinuesWhenInsightFails(t *testing.T) {
	l, cli, st := newTestLauncher(t)

	cli.startErr["redis-basic-1-insight"] = errors.New("oci runtime error")

	req := StartRequest{
		Kind: instance.KindBasic,
		Build: func(name string) *topology.Plan {
			return topology.BuildBasic(name, "secret", topology.BasicOptions{
				Port:        6379,
				Insight:     true,
				InsightPort: 8001,
			})
		},
	}

	inst, err := l.Start(req)
	require.NoError(t, err)

	// The UI container is not part of the committed instance, and its
	// remnant was removed.
	assert.Equal(t, []string{"redis-basic-1"}, inst.Containers)
	_, found := cli.find("redis-basic-1-insight")
	assert.False(t, found)

	reg, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
}

func TestStartWritesSentinelConfigs(t *testing.T) {
	l, cli, _ := newTestLauncher(t)

	req := StartRequest{
		Kind: instance.KindSentinel,
		Build: func(name string) *topology.Plan {
			return topology.BuildSentinel(name, "secret", topology.SentinelOptions{
				Masters:          1,
				Sentinels:        1,
				RedisPortBase:    6380,
				SentinelPortBase: 26379,
			})
		},
	}

	inst, err := l.Start(req)
	require.NoError(t, err)

	confPath := filepath.Join(l.configDir, "sentinel", inst.Name, "sentinel-1.conf")
	data, err := os.ReadFile(confPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "port 26379")
	assert.Contains(t, string(data), "sentinel monitor master-1")

	// The generated file is bind-mounted writable so sentinel can rewrite it.
	node, found := cli.find(inst.Name + "-sentinel-1")
	require.True(t, found)
	require.Len(t, node.spec.Volumes, 1)
	mount := node.spec.Volumes[0]
	assert.Equal(t, confPath, mount.Source)
	assert.Equal(t, "/etc/redis/sentinel.conf", mount.Target)
	assert.False(t, mount.ReadOnly)
}

func TestStartReusesExistingNetwork(t *testing.T) {
	l, cli, _ := newTestLauncher(t)

	network := topology.NetworkName("redis-stack-1")
	cli.networks[network] = true
	cli.startErr["redis-stack-1"] = errors.New("oci runtime error")

	req := StartRequest{
		Kind: instance.KindStack,
		Build: func(name string) *topology.Plan {
			return topology.BuildStack(name, "secret", topology.StackOptions{
				Port:        6379,
				Insight:     true,
				InsightPort: 8001,
			})
		},
	}

	_, err := l.Start(req)
	require.Error(t, err)

	// Rollback removes only what this attempt created; the pre-existing
	// network survives.
	assert.True(t, cli.networks[network])
	assert.Empty(t, cli.containers)
}

func TestStartPullsMissingImages(t *testing.T) {
	l, cli, _ := newTestLauncher(t)

	_, err := l.Start(basicRequest(6379))
	require.NoError(t, err)
	assert.Equal(t, []string{topology.ImageRedis}, cli.pulled)

	// Second start finds the image cached.
	_, err = l.Start(basicRequest(6380))
	require.NoError(t, err)
	assert.Equal(t, []string{topology.ImageRedis}, cli.pulled)
}

func TestStartRejectsBadMemoryLimit(t *testing.T) {
	l, _, st := newTestLauncher(t)

	req := StartRequest{
		Kind: instance.KindBasic,
		Build: func(name string) *topology.Plan {
			return topology.BuildBasic(name, "secret", topology.BasicOptions{Port: 6379, Memory: "lots"})
		},
	}

	_, err := l.Start(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid memory limit")

	reg, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), reg.Counters["basic"])
}

func TestStartSaveFailureReportsRunningInstance(t *testing.T) {
	cli := newFakeClient()
	dir := t.TempDir()
	st := &flakyStore{
		Store:   store.NewFileStore(store.RegistryPath(dir), testLogger()),
		saveErr: errors.New("disk full"),
	}
	l := New(cli, st, filepath.Join(dir, "conf"), testLogger())

	_, err := l.Start(basicRequest(6379))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not be recorded")

	// The instance itself is untouched by the bookkeeping failure.
	info, err := cli.InspectContainer("redis-basic-1")
	require.NoError(t, err)
	assert.Equal(t, "running", info.State)
}

func TestStartLogsPhaseTransitions(t *testing.T) {
	cli := newFakeClient()
	dir := t.TempDir()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	st := store.NewFileStore(store.RegistryPath(dir), testLogger())
	l := New(cli, st, filepath.Join(dir, "conf"), logger)

	_, err := l.Start(basicRequest(6379))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "phase=allocating")
	assert.Contains(t, out, "phase=realizing")
	assert.Contains(t, out, "phase=committed")
	assert.NotContains(t, out, "phase=rolling_back")

	buf.Reset()
	cli.startErr["redis-basic-2"] = errors.New("oci runtime error")

	_, err = l.Start(basicRequest(6380))
	require.Error(t, err)

	out = buf.String()
	assert.Contains(t, out, "phase=rolling_back")
	assert.Contains(t, out, "phase=failed")
	assert.NotContains(t, out, "phase=committed")
}

// =============================================================================
// Bootstrap Tests
// =============================================================================

func bootstrapPlan(name string, step topology.BootstrapStep) *topology.Plan {
	return &topology.Plan{
		Name: name,
		Kind: instance.KindCluster,
		Containers: []topology.ContainerPlan{
			{Name: name + "-node-0", Image: topology.ImageRedis},
		},
		Bootstrap:  []topology.BootstrapStep{step},
		Ports:      []int{7000},
		Attributes: instance.ClusterAttrs{Masters: 1, TotalNodes: 1, PortBase: 7000},
	}
}

func TestBootstrapRetriesUntilSuccess(t *testing.T) {
	l, cli, _ := newTestLauncher(t)

	cli.execFailN["job-node-0"] = 2

	req := StartRequest{
		Kind: instance.KindCluster,
		Name: "job",
		Build: func(name string) *topology.Plan {
			return bootstrapPlan(name, topology.BootstrapStep{
				Container: name + "-node-0",
				Cmd:       []string{"redis-cli", "--cluster", "create"},
				Attempts:  3,
			})
		},
	}

	_, err := l.Start(req)
	require.NoError(t, err)
	assert.Len(t, cli.execs, 3)
	assert.Equal(t, []string{"redis-cli", "--cluster", "create"}, cli.execs[0].cmd)
}

func TestBootstrapExhaustionRollsBack(t *testing.T) {
	l, cli, st := newTestLauncher(t)

	cli.execErr["job-node-0"] = errors.New("CLUSTERDOWN")

	req := StartRequest{
		Kind: instance.KindCluster,
		Name: "job",
		Build: func(name string) *topology.Plan {
			return bootstrapPlan(name, topology.BootstrapStep{
				Container: name + "-node-0",
				Cmd:       []string{"redis-cli", "--cluster", "create"},
				Attempts:  3,
			})
		},
	}

	_, err := l.Start(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBootstrapFailed)
	assert.Contains(t, err.Error(), "3 attempts")
	assert.Len(t, cli.execs, 3)

	assert.Empty(t, cli.containers)
	reg, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
}

func TestBootstrapOptionalStepFailureIsTolerated(t *testing.T) {
	l, cli, _ := newTestLauncher(t)

	cli.execErr["job-node-0"] = errors.New("command not found")

	req := StartRequest{
		Kind: instance.KindCluster,
		Name: "job",
		Build: func(name string) *topology.Plan {
			return bootstrapPlan(name, topology.BootstrapStep{
				Container: name + "-node-0",
				Cmd:       []string{"true"},
				Attempts:  1,
				Optional:  true,
			})
		},
	}

	inst, err := l.Start(req)
	require.NoError(t, err)
	assert.Equal(t, []string{"job-node-0"}, inst.Containers)
}

// =============================================================================
// Classification Tests
// =============================================================================

func TestClassifyStartError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "name in use",
			err:  errors.New(`the container name "/redis-basic-1" is already in use by container "abc"`),
			want: ErrNameConflict,
		},
		{
			name: "409 conflict",
			err:  errors.New("Error response from daemon: Conflict. The container name is taken"),
			want: ErrNameConflict,
		},
		{
			name: "bare already exists",
			err:  errors.New(`container "redis-basic-1" already exists`),
			want: ErrNameConflict,
		},
		{
			name: "port allocated",
			err:  errors.New("Bind for 0.0.0.0:6379 failed: port is already allocated"),
			want: ErrPortConflict,
		},
		{
			name: "external connectivity",
			err:  errors.New("driver failed programming external connectivity on endpoint redis-basic-1"),
			want: ErrPortConflict,
		},
		{
			name: "networking setup",
			err:  errors.New("failed to set up container networking"),
			want: ErrPortConflict,
		},
		{
			name: "address in use",
			err:  errors.New("listen tcp 0.0.0.0:6379: address already in use"),
			want: ErrPortConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyStartError("start", "redis-basic-1", tt.err)
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestClassifyStartErrorChecksNamesFirst(t *testing.T) {
	// Docker's 409 name response also mentions binding in some daemon
	// versions; the name branch must win.
	err := errors.New(`Conflict. The container name "/x" is already in use by container "abc". ` +
		"You have to remove (or rename) that container to be able to reuse that name.")

	got := classifyStartError("start", "x", err)
	assert.ErrorIs(t, got, ErrNameConflict)
}

func TestLaunchErrorFormat(t *testing.T) {
	withInstance := NewLaunchError("start", "redis-basic-1", "boom", nil)
	assert.Equal(t, "start redis-basic-1: boom", withInstance.Error())

	bare := NewLaunchError("resolve", "", "no instances found", ErrInstanceNotFound)
	assert.Equal(t, "resolve: no instances found", bare.Error())
	assert.ErrorIs(t, bare, ErrInstanceNotFound)
}
