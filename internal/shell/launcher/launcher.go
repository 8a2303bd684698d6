package launcher

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	units "github.com/docker/go-units"
	"github.com/google/uuid"

	"github.com/joshrotenberg/redis-up/internal/core/instance"
	"github.com/joshrotenberg/redis-up/internal/core/topology"
	"github.com/joshrotenberg/redis-up/internal/shell/docker"
	"github.com/joshrotenberg/redis-up/internal/shell/store"
)

// DefaultStopTimeout bounds how long a container gets to shut down cleanly
// before it is killed.
const DefaultStopTimeout = 10 * time.Second

// rollbackStopTimeout is the shorter grace period used when tearing down a
// failed start attempt.
const rollbackStopTimeout = 5 * time.Second

// =============================================================================
// Deployment Phases
// =============================================================================

// Phase is a stage of the start state machine. Transitions are logged at
// debug level so a failed deployment can be traced through its lifecycle.
type Phase string

const (
	PhaseAllocating  Phase = "allocating"
	PhaseRealizing   Phase = "realizing"
	PhaseCommitted   Phase = "committed"
	PhaseRollingBack Phase = "rolling_back"
	PhaseFailed      Phase = "failed"
)

// =============================================================================
// Launcher
// =============================================================================

// Launcher drives deployments end to end: it loads the registry, realizes
// topology plans against Docker, and persists the outcome.
type Launcher struct {
	docker      docker.Client
	store       store.Store
	logger      *slog.Logger
	configDir   string
	stopTimeout time.Duration
}

// New creates a launcher. Generated config files are written under configDir.
func New(dockerClient docker.Client, st store.Store, configDir string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		docker:      dockerClient,
		store:       st,
		logger:      logger,
		configDir:   configDir,
		stopTimeout: DefaultStopTimeout,
	}
}

// SetStopTimeout overrides the graceful stop window used by Stop and Cleanup.
func (l *Launcher) SetStopTimeout(d time.Duration) {
	if d > 0 {
		l.stopTimeout = d
	}
}

// StartRequest describes one deployment. When Name is empty a name is
// allocated from the kind's counter and rolled back if the start fails.
type StartRequest struct {
	Kind instance.Kind
	Name string

	// Build computes the layout once the final name is known.
	Build func(name string) *topology.Plan
}

// Start runs the deployment state machine: allocate a name, realize the plan
// in order, and either commit a descriptor to the registry or roll back every
// resource this attempt created. The returned error is classified so name and
// port collisions carry actionable guidance.
func (l *Launcher) Start(req StartRequest) (*instance.Instance, error) {
	reg, err := l.store.Load()
	if err != nil {
		return nil, err
	}

	name := req.Name
	allocated := false
	if name == "" {
		name = reg.AllocateName(req.Kind)
		allocated = true
	}
	l.transition(name, PhaseAllocating)

	l.logger.Info("starting instance", "kind", req.Kind, "instance", name)

	plan := req.Build(name)

	l.transition(name, PhaseRealizing)
	res, err := l.realize(plan)
	if err != nil {
		l.transition(name, PhaseRollingBack)
		l.rollback(plan, res)
		if allocated {
			reg.RollbackName(req.Kind)
			if saveErr := l.store.Save(reg); saveErr != nil {
				l.logger.Warn("failed to persist counter rollback", "instance", name, "error", saveErr)
			}
		}
		l.transition(name, PhaseFailed)
		return nil, classifyStartError("start", name, err)
	}

	inst := instance.Instance{
		ID:         uuid.NewString(),
		Name:       name,
		Kind:       plan.Kind,
		CreatedAt:  time.Now().UTC(),
		Ports:      plan.Ports,
		Containers: res.containerNames,
		Connection: plan.Connection,
		Attributes: plan.Attributes,
	}

	reg.Add(inst)
	if err := l.store.Save(reg); err != nil {
		return nil, NewLaunchError("start", name,
			fmt.Sprintf("instance is running but could not be recorded: %v", err), err)
	}
	l.transition(name, PhaseCommitted)

	l.logger.Info("instance started", "instance", name, "containers", len(inst.Containers))
	return &inst, nil
}

func (l *Launcher) transition(name string, p Phase) {
	l.logger.Debug("deployment phase", "instance", name, "phase", string(p))
}

// =============================================================================
// Plan Realization
// =============================================================================

// realized tracks what a single start attempt actually created, so rollback
// can target exactly those resources and nothing else.
type realized struct {
	containerNames []string          // descriptor containers, start order
	ids            map[string]string // every live container, name to id
	order          []string          // creation order
	networkCreated bool
	confDirs       []string
}

func (r *realized) addConfDir(dir string) {
	for _, d := range r.confDirs {
		if d == dir {
			return
		}
	}
	r.confDirs = append(r.confDirs, dir)
}

func (r *realized) forget(name string) {
	delete(r.ids, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

// realize walks the plan in order: network, config files, volumes, containers,
// bootstrap steps. It returns what was created even on failure so the caller
// can roll back.
func (l *Launcher) realize(plan *topology.Plan) (*realized, error) {
	res := &realized{ids: make(map[string]string)}

	if plan.Network != "" {
		if err := l.ensureNetwork(plan, res); err != nil {
			return res, err
		}
	}

	if err := l.writeConfigFiles(plan, res); err != nil {
		return res, err
	}

	for _, vol := range plan.Volumes {
		if err := l.ensureVolume(plan, vol); err != nil {
			return res, err
		}
	}

	for _, c := range plan.Containers {
		if err := l.runContainer(plan, c, res); err != nil {
			if c.Aux {
				l.logger.Warn("auxiliary container failed, continuing without it",
					"container", c.Name, "error", err)
				l.discardAux(c.Name, res)
				continue
			}
			return res, err
		}
		res.containerNames = append(res.containerNames, c.Name)
	}

	for _, step := range plan.Bootstrap {
		if err := l.runBootstrap(step, res); err != nil {
			if step.Optional {
				l.logger.Warn("optional bootstrap step failed",
					"container", step.Container, "error", err)
				continue
			}
			return res, err
		}
	}

	return res, nil
}

func (l *Launcher) labels(plan *topology.Plan) map[string]string {
	return map[string]string{
		docker.LabelManaged:  "true",
		docker.LabelInstance: plan.Name,
		docker.LabelKind:     string(plan.Kind),
	}
}

func (l *Launcher) ensureNetwork(plan *topology.Plan, res *realized) error {
	_, err := l.docker.CreateNetwork(docker.NetworkSpec{
		Name:   plan.Network,
		Driver: "bridge",
		Labels: l.labels(plan),
	})
	if err != nil {
		if errors.Is(err, docker.ErrNetworkAlreadyExists) {
			l.logger.Debug("network already exists, reusing", "network", plan.Network)
			return nil
		}
		return err
	}

	res.networkCreated = true
	l.logger.Debug("network created", "network", plan.Network)
	return nil
}

// writeConfigFiles renders every generated config under the config root and
// records the bind mounts to attach. The config root is resolved to an
// absolute path because Docker rejects relative bind sources. Mounts stay
// writable; sentinel rewrites its own config at runtime.
func (l *Launcher) writeConfigFiles(plan *topology.Plan, res *realized) error {
	root, err := filepath.Abs(l.configDir)
	if err != nil {
		return NewLaunchError("start", plan.Name, "failed to resolve config directory", err)
	}

	for i := range plan.Containers {
		c := &plan.Containers[i]
		for _, cf := range c.ConfigFiles {
			hostPath := filepath.Join(root, filepath.FromSlash(cf.Path))
			dir := filepath.Dir(hostPath)

			if err := os.MkdirAll(dir, 0755); err != nil {
				return NewLaunchError("start", plan.Name,
					fmt.Sprintf("failed to create config directory %s", dir), err)
			}
			if err := os.WriteFile(hostPath, []byte(cf.Content), 0644); err != nil {
				return NewLaunchError("start", plan.Name,
					fmt.Sprintf("failed to write config file %s", hostPath), err)
			}

			res.addConfDir(dir)
			c.Mounts = append(c.Mounts, topology.MountPlan{Source: hostPath, Target: cf.ContainerPath})
			l.logger.Debug("config file written", "path", hostPath)
		}
	}
	return nil
}

func (l *Launcher) ensureVolume(plan *topology.Plan, name string) error {
	// VolumeCreate is idempotent for the local driver, so an existing data
	// volume from a previous run is picked up as is.
	_, err := l.docker.CreateVolume(docker.VolumeSpec{
		Name:   name,
		Driver: "local",
		Labels: l.labels(plan),
	})
	if err != nil {
		return err
	}
	l.logger.Debug("volume ready", "volume", name)
	return nil
}

// ensureImage pulls the image unless it is already present. Pull failures are
// logged and the create is attempted anyway, which covers images loaded
// outside a registry.
func (l *Launcher) ensureImage(image string) {
	exists, err := l.docker.ImageExists(image)
	if err == nil && exists {
		return
	}
	l.logger.Info("pulling image", "image", image)
	if err := l.docker.PullImage(image, docker.PullOptions{}); err != nil {
		l.logger.Warn("failed to pull image, trying anyway", "image", image, "error", err)
	}
}

func (l *Launcher) runContainer(plan *topology.Plan, c topology.ContainerPlan, res *realized) error {
	l.ensureImage(c.Image)

	spec, err := l.containerSpec(plan, c)
	if err != nil {
		return err
	}

	id, err := l.docker.CreateContainer(spec)
	if err != nil {
		return err
	}
	res.ids[c.Name] = id
	res.order = append(res.order, c.Name)

	if err := l.docker.StartContainer(id); err != nil {
		return err
	}

	l.logger.Debug("container started", "container", c.Name, "id", id)
	return nil
}

func (l *Launcher) containerSpec(plan *topology.Plan, c topology.ContainerPlan) (docker.ContainerSpec, error) {
	spec := docker.ContainerSpec{
		Name:    c.Name,
		Image:   c.Image,
		Command: c.Cmd,
		Env:     c.Env,
		Labels:  l.labels(plan),
		CapAdd:  c.CapAdd,
	}

	for _, p := range c.Ports {
		spec.Ports = append(spec.Ports, docker.PortBinding{
			ContainerPort: p.Container,
			HostPort:      p.Host,
			Protocol:      p.Protocol,
		})
	}
	for _, m := range c.Mounts {
		spec.Volumes = append(spec.Volumes, docker.VolumeMount{
			Source:   m.Source,
			Target:   m.Target,
			ReadOnly: m.ReadOnly,
		})
	}
	if c.Network != "" {
		spec.Networks = []string{c.Network}
	}

	if c.Memory != "" {
		limit, err := units.RAMInBytes(c.Memory)
		if err != nil {
			return spec, NewLaunchError("start", plan.Name,
				fmt.Sprintf("invalid memory limit %q for container %s", c.Memory, c.Name), err)
		}
		spec.Resources.MemoryLimit = limit
	}

	return spec, nil
}

// discardAux removes whatever remains of an auxiliary container that failed
// to start and drops it from the attempt's tracking.
func (l *Launcher) discardAux(name string, res *realized) {
	id, ok := res.ids[name]
	if !ok {
		return
	}
	if err := l.docker.RemoveContainer(id, docker.RemoveOptions{Force: true, RemoveVolumes: true}); err != nil {
		l.logger.Debug("failed to remove auxiliary container", "container", name, "error", err)
	}
	res.forget(name)
}

// runBootstrap executes one step inside its target container, retrying until
// the attempt budget runs out.
func (l *Launcher) runBootstrap(step topology.BootstrapStep, res *realized) error {
	id, ok := res.ids[step.Container]
	if !ok {
		return NewLaunchError("bootstrap", step.Container, "target container was not created", ErrBootstrapFailed)
	}

	if step.InitialDelay > 0 {
		time.Sleep(step.InitialDelay)
	}

	attempts := step.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 && step.Delay > 0 {
			time.Sleep(step.Delay)
		}
		if _, err := l.docker.ExecContainer(id, step.Cmd); err != nil {
			lastErr = err
			l.logger.Debug("bootstrap attempt failed",
				"container", step.Container, "attempt", i+1, "error", err)
			continue
		}
		l.logger.Debug("bootstrap step succeeded", "container", step.Container, "attempt", i+1)
		return nil
	}

	return NewLaunchError("bootstrap", step.Container,
		fmt.Sprintf("failed after %d attempts: %v", attempts, lastErr), ErrBootstrapFailed)
}

// =============================================================================
// Rollback
// =============================================================================

// rollback best-effort removes everything the failed attempt created, in
// reverse creation order. Failures are logged, never escalated, so they
// cannot mask the error that triggered the rollback. Named data volumes are
// left behind for a retry to reuse.
func (l *Launcher) rollback(plan *topology.Plan, res *realized) {
	if len(res.order) == 0 && !res.networkCreated && len(res.confDirs) == 0 {
		return
	}
	l.logger.Info("rolling back failed deployment", "instance", plan.Name)

	timeout := rollbackStopTimeout
	for i := len(res.order) - 1; i >= 0; i-- {
		name := res.order[i]
		id := res.ids[name]
		if err := l.docker.StopContainer(id, &timeout); err != nil {
			l.logger.Debug("failed to stop container during rollback", "container", name, "error", err)
		}
		if err := l.docker.RemoveContainer(id, docker.RemoveOptions{Force: true, RemoveVolumes: true}); err != nil {
			l.logger.Warn("failed to remove container during rollback", "container", name, "error", err)
		} else {
			l.logger.Debug("container removed", "container", name)
		}
	}

	if res.networkCreated {
		if err := l.docker.RemoveNetwork(plan.Network); err != nil {
			l.logger.Warn("failed to remove network during rollback", "network", plan.Network, "error", err)
		}
	}

	for _, dir := range res.confDirs {
		if err := os.RemoveAll(dir); err != nil {
			l.logger.Warn("failed to remove config directory during rollback", "dir", dir, "error", err)
		}
	}
}
