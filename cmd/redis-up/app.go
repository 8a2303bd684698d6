package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joshrotenberg/redis-up/internal/core/instance"
	"github.com/joshrotenberg/redis-up/internal/shell/docker"
	"github.com/joshrotenberg/redis-up/internal/shell/launcher"
	"github.com/joshrotenberg/redis-up/internal/shell/store"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess      = 0
	ExitConfigError  = 1
	ExitDockerError  = 2
	ExitCommandError = 3
	ExitUsageError   = 4
)

// =============================================================================
// App
// =============================================================================

// App carries the state shared by all subcommands of one invocation. The
// Docker connection is opened on first use so read-only commands like list
// and info work without a running daemon.
type App struct {
	cfg     *Config
	logger  *slog.Logger
	verbose bool

	store    *store.FileStore
	docker   *docker.DockerClient
	launcher *launcher.Launcher
}

// NewApp creates the command environment.
func NewApp(cfg *Config, logger *slog.Logger, verbose bool) *App {
	return &App{
		cfg:     cfg,
		logger:  logger,
		verbose: verbose,
		store:   store.NewFileStore(store.RegistryPath(cfg.Registry.Dir), logger),
	}
}

// Close releases the Docker connection if one was opened.
func (a *App) Close() {
	if a.docker != nil {
		a.docker.Close()
	}
}

// openDocker connects to Docker on demand and verifies the daemon responds.
func (a *App) openDocker() (*docker.DockerClient, error) {
	if a.docker != nil {
		return a.docker, nil
	}

	d, err := docker.NewDockerClient(a.cfg.Docker.Host)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to Docker: %w (is the daemon running?)", err)
	}
	if err := d.Ping(); err != nil {
		d.Close()
		return nil, fmt.Errorf("cannot connect to Docker: %w (is the daemon running?)", err)
	}

	a.docker = d
	return d, nil
}

// openLauncher builds the deployment launcher over the shared store.
func (a *App) openLauncher() (*launcher.Launcher, error) {
	if a.launcher != nil {
		return a.launcher, nil
	}

	d, err := a.openDocker()
	if err != nil {
		return nil, err
	}

	l := launcher.New(d, a.store, a.cfg.Registry.Dir, a.logger)
	l.SetStopTimeout(a.cfg.Docker.StopTimeout)
	a.launcher = l
	return l, nil
}

// registry loads the instance registry without touching Docker.
func (a *App) registry() (*instance.Registry, error) {
	return a.store.Load()
}

// fail reports an operation failure the way every command does.
func (a *App) fail(err error) int {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return ExitCommandError
}

// dockerFail reports a failure to reach the Docker daemon.
func (a *App) dockerFail(err error) int {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return ExitDockerError
}
