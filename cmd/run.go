package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/fleetscan/fleetscan/pkg/batch"
	"github.com/fleetscan/fleetscan/pkg/config"
	"github.com/fleetscan/fleetscan/pkg/dockerfile"
	"github.com/fleetscan/fleetscan/pkg/installer"
	"github.com/fleetscan/fleetscan/pkg/progress"
	"github.com/fleetscan/fleetscan/pkg/props"
	"github.com/fleetscan/fleetscan/pkg/readiness"
	"github.com/fleetscan/fleetscan/pkg/report"
	"github.com/fleetscan/fleetscan/pkg/runner"
	"github.com/fleetscan/fleetscan/pkg/templates"
)

// loadRunConfig resolves the effective config: the --config flag wins,
// then a fleetscan.yaml in the working directory, then built-in defaults.
func loadRunConfig() (config.Config, error) {
	cfgPath := configFile
	if cfgPath == "" {
		if _, err := os.Stat(config.DefaultFile); err == nil {
			cfgPath = config.DefaultFile
		}
	}
	if cfgPath == "" {
		return config.Default(), nil
	}

	fmt.Printf("Using config file: %s\n", cfgPath)
	return config.Load(cfgPath)
}

// applyFlagOverrides copies explicitly set CLI flags over the loaded
// config. Flags left at their sentinel defaults change nothing.
func applyFlagOverrides(cfg *config.Config) {
	if propertiesFile != "" {
		cfg.Properties = propertiesFile
	}
	if reportsDir != "" {
		cfg.ReportsDir = reportsDir
	}
	if format != "" {
		cfg.Format = format
	}
	if severity != "" {
		cfg.Trivy.Severity = severity
	}
	if templateFile != "" {
		cfg.Trivy.Template = templateFile
	}
	if pollAttempts >= 0 {
		cfg.Poll.Attempts = pollAttempts
	}
	if pollInterval > 0 {
		cfg.Poll.Interval = config.Duration(pollInterval)
	}
	if strict {
		cfg.Strict = true
	}
}

// resolveWorkList builds the ordered image list: windows.images first,
// then linux.images, then base images of any --dockerfile arguments.
func resolveWorkList(cfg config.Config) ([]string, error) {
	list, err := props.LoadFile(cfg.Properties)
	if err != nil {
		return nil, err
	}
	items := append(list.List("windows.images"), list.List("linux.images")...)

	for _, path := range dockerfiles {
		bases, err := dockerfile.BaseImages(path)
		if err != nil {
			return nil, err
		}
		items = append(items, bases...)
	}
	return items, nil
}

// runScan performs a full batch run: wait for the runtime, provision the
// scanner, authenticate, then pull and scan every image on the work list.
// Setup failures abort the run; per-image failures are recorded in the
// summary and, unless --strict is set, do not affect the exit code.
func runScan(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}
	applyFlagOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if dryRun {
		items, err := resolveWorkList(cfg)
		if err != nil {
			return err
		}
		fmt.Printf("Would scan %d images:\n", len(items))
		for _, image := range items {
			fmt.Printf("  %s\n", image)
		}
		return nil
	}

	runID := uuid.NewString()[:8]
	slog.Info("starting scan run", "run_id", runID, "properties", cfg.Properties, "format", cfg.Format)

	rt, err := runner.DetectRuntime(cfg.Runtime, verbose)
	if err != nil {
		return err
	}

	fmt.Printf("Waiting for %s to become ready ...\n", rt.Name())
	ready, err := readiness.Wait(ctx, rt.Ping, cfg.Poll.Attempts, cfg.Poll.Interval.Std())
	if err != nil {
		return fmt.Errorf("failed waiting for %s: %w", rt.Name(), err)
	}
	if !ready {
		return fmt.Errorf("%s did not become ready after %d attempts", rt.Name(), cfg.Poll.Attempts)
	}

	url, err := cfg.ArchiveURL()
	if err != nil {
		return err
	}
	scannerPath, err := installer.Ensure(ctx, installer.Spec{
		Name: "trivy",
		URL:  url,
		Dir:  cfg.Trivy.Dir,
	})
	if err != nil {
		return fmt.Errorf("failed to provision scanner: %w", err)
	}

	if cfg.Registry.Server != "" {
		username, password, err := cfg.Credentials()
		if err != nil {
			return err
		}
		fmt.Printf("Logging in to %s ...\n", cfg.Registry.Server)
		if err := rt.Login(ctx, cfg.Registry.Server, username, password); err != nil {
			return err
		}
	}

	items, err := resolveWorkList(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.ReportsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create reports directory %s: %w", cfg.ReportsDir, err)
	}

	templatePath := cfg.Trivy.Template
	if templatePath != "" {
		if err := templates.Validate(templatePath); err != nil {
			return err
		}
	} else if cfg.Format == "html" {
		templatePath, err = templates.MaterializeDefault(cfg.ReportsDir)
		if err != nil {
			return err
		}
	}

	scanner := runner.NewTrivy(scannerPath, cfg.Trivy.Severity, templatePath, verbose)
	slog.Info("scanner ready", "version", scanner.Version(ctx), "path", scannerPath)

	pipeline := &batch.Pipeline{
		Runtime:  rt,
		Scanner:  scanner,
		Namer:    report.NewNamer(cfg.ReportsDir, templates.OutputExtension(cfg.Format)),
		Progress: progress.NewTracker(len(items), "scanning images"),
	}

	fmt.Printf("Scanning %d images ...\n", len(items))
	outcomes := pipeline.Run(ctx, items)
	pipeline.Progress.Finish()

	scanned, skipped, failed := batch.Tally(outcomes)
	summary, err := report.RenderSummary(report.SummaryContext{
		RunID:   runID,
		Rows:    summaryRows(outcomes),
		Scanned: scanned,
		Skipped: skipped,
		Failed:  failed,
	})
	if err != nil {
		return err
	}
	fmt.Println(summary)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("scan run interrupted with %d of %d images left: %w", len(items)-len(outcomes), len(items), err)
	}
	if cfg.Strict {
		if notScanned := skipped + failed; notScanned > 0 {
			return fmt.Errorf("%d of %d images were not scanned", notScanned, len(items))
		}
	}
	return nil
}
