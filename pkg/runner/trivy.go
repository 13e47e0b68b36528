package runner

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Trivy runs 'trivy image' against one image at a time.
type Trivy struct {
	binary   string
	severity string
	template string
	verbose  bool
}

// NewTrivy returns a scanner driving the trivy binary at path. severity
// narrows findings, for example "HIGH,CRITICAL"; empty keeps them all.
// template is the report template file required for HTML output.
func NewTrivy(path, severity, template string, verbose bool) *Trivy {
	return &Trivy{binary: path, severity: severity, template: template, verbose: verbose}
}

// Name returns the display name for this scanner.
func (t *Trivy) Name() string { return "trivy" }

// Version returns the scanner version, or "unknown" when it cannot be
// determined.
func (t *Trivy) Version(ctx context.Context) string {
	runCtx, cancel := context.WithTimeout(ctx, TimeoutProbe)
	defer cancel()
	cmd := exec.CommandContext(runCtx, t.binary, "--version")
	output, err := runCommand(cmd, t.verbose)
	if err != nil {
		return "unknown"
	}

	// The first line reads "Version: x.y.z"; later lines describe the
	// vulnerability databases.
	line, _, _ := strings.Cut(string(output), "\n")
	if version, ok := strings.CutPrefix(line, "Version:"); ok {
		return strings.TrimSpace(version)
	}
	return strings.TrimSpace(line)
}

// Scan runs trivy against image and writes the report to reportPath. The
// output format follows the report file extension.
func (t *Trivy) Scan(ctx context.Context, image, reportPath string) error {
	args, err := t.args(image, reportPath)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(ctx, TimeoutScan)
	defer cancel()
	cmd := exec.CommandContext(runCtx, t.binary, args...)
	if _, err := runCommand(cmd, t.verbose); err != nil {
		return fmt.Errorf("failed to scan image %s: %w", image, err)
	}
	return nil
}

// args assembles the trivy argument list for one image scan.
func (t *Trivy) args(image, reportPath string) ([]string, error) {
	args := []string{"image"}

	switch filepath.Ext(reportPath) {
	case ".json":
		args = append(args, "--format", "json")
	case ".html":
		// trivy has no native html format; it renders through a template.
		if t.template == "" {
			return nil, fmt.Errorf("html report for %s requires a template", image)
		}
		args = append(args, "--format", "template", "--template", "@"+t.template)
	default:
		args = append(args, "--format", "table")
	}

	if t.severity != "" {
		args = append(args, "--severity", t.severity)
	}
	args = append(args, "--output", reportPath, image)
	return args, nil
}
