package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fleetscan/fleetscan/pkg/installer"
	"github.com/fleetscan/fleetscan/pkg/preflight"
	"github.com/fleetscan/fleetscan/pkg/runner"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the environment is ready for a scan run",
	Long: `Run the preflight checks a scan run depends on, without scanning
anything: the container runtime answers, the scanner is available, the
image list exists and the reports directory is writable.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}
	applyFlagOverrides(&cfg)

	checks := []preflight.Check{
		{
			Name: "container runtime",
			Probe: func(ctx context.Context) error {
				rt, err := runner.DetectRuntime(cfg.Runtime, verbose)
				if err != nil {
					return err
				}
				ready, err := rt.Ping(ctx)
				if err != nil {
					return err
				}
				if !ready {
					return fmt.Errorf("%s daemon is not answering", rt.Name())
				}
				return nil
			},
		},
		{
			Name: "scanner",
			Probe: func(context.Context) error {
				_, _, err := installer.FindTool("trivy")
				return err
			},
		},
		{
			Name: "image list",
			Probe: func(context.Context) error {
				_, err := os.Stat(cfg.Properties)
				return err
			},
		},
		{
			Name: "reports directory",
			Probe: func(context.Context) error {
				return os.MkdirAll(cfg.ReportsDir, 0o755)
			},
		},
	}

	results := preflight.Run(ctx, checks)
	for _, result := range results {
		if result.Err != nil {
			fmt.Printf("  [FAIL] %s: %v\n", result.Name, result.Err)
		} else {
			fmt.Printf("  [OK] %s\n", result.Name)
		}
	}

	if !preflight.Passed(results) {
		return fmt.Errorf("environment is not ready for scanning")
	}
	fmt.Println("All checks passed.")
	return nil
}
