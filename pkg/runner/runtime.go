package runner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Runtime drives a container runtime CLI, docker or podman.
type Runtime struct {
	binary  string
	verbose bool
}

// DetectRuntime resolves the container runtime binary. A non-empty
// preferred name is resolved as given; otherwise docker is tried first
// with podman as the fallback.
func DetectRuntime(preferred string, verbose bool) (*Runtime, error) {
	if preferred != "" {
		path, err := exec.LookPath(preferred)
		if err != nil {
			return nil, fmt.Errorf("container runtime %s not found: %w", preferred, err)
		}
		return &Runtime{binary: path, verbose: verbose}, nil
	}
	// Check docker first
	if path, err := exec.LookPath("docker"); err == nil {
		return &Runtime{binary: path, verbose: verbose}, nil
	}
	// Fallback to podman
	if path, err := exec.LookPath("podman"); err == nil {
		return &Runtime{binary: path, verbose: verbose}, nil
	}
	return nil, fmt.Errorf("no container runtime found (docker or podman)")
}

// Name returns the display name for this runtime.
func (r *Runtime) Name() string {
	if r.binary != "" {
		return filepath.Base(r.binary)
	}
	return "runtime"
}

// Ping reports whether the runtime daemon accepts commands. A probe that
// exits non-zero means the daemon is not answering yet; that is not an
// error. Errors are reserved for faults a retry cannot fix, such as a
// vanished binary.
func (r *Runtime) Ping(ctx context.Context) (bool, error) {
	runCtx, cancel := context.WithTimeout(ctx, TimeoutProbe)
	defer cancel()
	cmd := exec.CommandContext(runCtx, r.binary, "info")
	if _, err := runCommand(cmd, r.verbose); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Pull downloads image through the runtime.
func (r *Runtime) Pull(ctx context.Context, image string) error {
	runCtx, cancel := context.WithTimeout(ctx, TimeoutPull)
	defer cancel()
	cmd := exec.CommandContext(runCtx, r.binary, "pull", image)
	if _, err := runCommand(cmd, r.verbose); err != nil {
		return fmt.Errorf("failed to pull image %s: %w", image, err)
	}
	return nil
}

// Exists reports whether image is present in the runtime's local store.
func (r *Runtime) Exists(ctx context.Context, image string) bool {
	runCtx, cancel := context.WithTimeout(ctx, TimeoutProbe)
	defer cancel()
	cmd := exec.CommandContext(runCtx, r.binary, "inspect", "--type=image", image)
	return cmd.Run() == nil
}

// Login authenticates the runtime against a registry. The password is
// written to stdin so it never appears in the process list.
func (r *Runtime) Login(ctx context.Context, server, username, password string) error {
	runCtx, cancel := context.WithTimeout(ctx, TimeoutLogin)
	defer cancel()
	cmd := exec.CommandContext(runCtx, r.binary, "login", server, "--username", username, "--password-stdin")
	cmd.Stdin = strings.NewReader(password)
	if _, err := runCommand(cmd, r.verbose); err != nil {
		return fmt.Errorf("failed to log in to %s: %w", server, err)
	}
	return nil
}
