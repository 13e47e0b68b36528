package cmd

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/fleetscan/fleetscan/pkg/installer"
)

var (
	setupCheck bool
	setupDir   string
	setupForce bool
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Install the trivy scanner ahead of the first run",
	Long: `Download trivy into the per-user tool directory so scan runs can start
without network access. Scans install the scanner on demand anyway, so
this is only needed to front-load the download or to reinstall.`,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().BoolVar(&setupCheck, "check", false, "Only report tool status, install nothing")
	setupCmd.Flags().StringVar(&setupDir, "dir", "", "Install directory (default: ~/.fleetscan/bin)")
	setupCmd.Flags().BoolVar(&setupForce, "force", false, "Reinstall even when the scanner is already present")
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	dir := setupDir
	if dir == "" {
		d, err := installer.DefaultDir()
		if err != nil {
			return err
		}
		dir = d
	}

	if setupCheck {
		return printToolStatus(dir)
	}

	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}
	url, err := cfg.ArchiveURL()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Printf("Installing trivy into %s ...\n", dir)
	path, err := installer.Ensure(ctx, installer.Spec{
		Name:  "trivy",
		URL:   url,
		Dir:   dir,
		Force: setupForce,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Installed: %s\n", path)

	return printToolStatus(dir)
}

// printToolStatus reports where each required tool resolves from.
func printToolStatus(dir string) error { //nolint:unparam // error return is part of RunE handler contract
	fmt.Println("Tool Status:")

	if path, err := exec.LookPath("docker"); err == nil {
		fmt.Printf("  [OK] docker (%s)\n", path)
	} else if path, err := exec.LookPath("podman"); err == nil {
		fmt.Printf("  [OK] podman (%s)\n", path)
	} else {
		fmt.Println("  [MISSING] docker or podman")
	}

	if path, source, err := installer.FindToolIn("trivy", dir); err == nil {
		fmt.Printf("  [OK] trivy (%s: %s)\n", source, path)
	} else {
		fmt.Println("  [MISSING] trivy (run 'fleetscan setup' to install)")
	}

	return nil
}
