package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/fleetscan/fleetscan/pkg/installer"
)

// checkToolStatus returns a string indicating the status of required tools.
func checkToolStatus() string {
	var status strings.Builder
	status.WriteString("\nPrerequisites:\n")

	// Check for Docker or Podman
	if _, err := exec.LookPath("docker"); err == nil {
		status.WriteString("  [OK] docker\n")
	} else if _, err := exec.LookPath("podman"); err == nil {
		status.WriteString("  [OK] podman\n")
	} else {
		status.WriteString("  [MISSING] docker or podman (required to pull and inspect images)\n")
	}

	if path, source, err := installer.FindTool("trivy"); err == nil {
		fmt.Fprintf(&status, "  [OK] trivy (%s: %s)\n", source, path)
	} else {
		status.WriteString("  [MISSING] trivy (installed automatically on the first run, or run 'fleetscan setup')\n")
	}

	return status.String()
}

// initLogging points the process-wide logger at stderr so diagnostics
// never mix with run output on stdout.
func initLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
