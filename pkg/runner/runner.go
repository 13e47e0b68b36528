// Package runner shells out to the container runtime and the scanner
// binary. Every command runs under a per-operation timeout derived from
// the caller's context.
package runner

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// Per-operation timeouts. Pulls and scans move image layers and
// vulnerability databases over the network, so they get far more headroom
// than the local probe commands.
const (
	TimeoutProbe = 10 * time.Second
	TimeoutLogin = 30 * time.Second
	TimeoutPull  = 10 * time.Minute
	TimeoutScan  = 15 * time.Minute
)

// runCommand executes a command and handles verbose logging and error
// reporting. Stderr is folded into the returned error because the tools
// we drive put their diagnostics there.
func runCommand(cmd *exec.Cmd, verbose bool) ([]byte, error) {
	if verbose {
		slog.Debug("running command", "cmd", cmd.String())
	}

	output, err := cmd.Output()
	if err != nil {
		var stderr []byte
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			stderr = exitErr.Stderr
		}
		return nil, fmt.Errorf("command failed: %w\nStderr: %s", err, string(stderr))
	}

	if verbose {
		slog.Debug("command finished", "cmd", cmd.String(), "output_bytes", len(output))
	}

	return output, nil
}
