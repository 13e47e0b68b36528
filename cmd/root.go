package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	configFile       string
	propertiesFile   string
	reportsDir       string
	format           string
	dockerfiles      []string
	severity         string
	pollAttempts     int
	pollInterval     time.Duration
	strict           bool
	dryRun           bool
	verbose          bool
	templateFile     string
	listTemplates    bool
	exportTemplate   string
	validateTemplate string
)

var rootCmd = &cobra.Command{
	Use:   "fleetscan",
	Short: "Pull and scan a fleet of container images for vulnerabilities",
	Long: `Scan a whole list of container images in one run.

fleetscan reads its work list from a properties file (windows.images and
linux.images entries, optionally joined by Dockerfile base images), waits
for the container runtime to come up, installs the trivy scanner when it
is missing, and then pulls and scans every image, writing one report per
image into the reports directory.

One broken image never stops the rest of the batch: a failed pull still
falls back to any local copy of the image, an image that never arrived
is skipped, and a failed scan is recorded in the run summary while the
rest keep going. By default the run exits zero once the batch completes;
use --strict to fail the run when any image was skipped or failed.`,
	Example: `  # Scan everything listed in images.properties
  fleetscan

  # Scan with a config file and a strict exit code
  fleetscan --config fleetscan.yaml --strict

  # Also scan the base images of a Dockerfile
  fleetscan -f ./Dockerfile

  # Preview the work list without touching the runtime
  fleetscan --dry-run`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging(verbose)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Handle template developer tool flags first (these exit early)
		if listTemplates {
			return handleListTemplates()
		}
		if exportTemplate != "" {
			return handleExportTemplate(exportTemplate)
		}
		if validateTemplate != "" {
			return handleValidateTemplate(validateTemplate)
		}

		return runScan(cmd.Context())
	},
}

// Execute runs the root cobra command and exits on error.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Dynamically append tool status to the help description
	rootCmd.Long += "\n" + checkToolStatus()

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file (default: fleetscan.yaml)")
	rootCmd.PersistentFlags().StringVarP(&propertiesFile, "properties", "p", "", "Path to the image list properties file (default: images.properties)")
	rootCmd.PersistentFlags().StringVarP(&reportsDir, "reports-dir", "o", "", "Directory scan reports are written to (default: reports)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.Flags().StringArrayVarP(&dockerfiles, "dockerfile", "f", nil, "Dockerfile whose base images join the work list (repeatable)")
	rootCmd.Flags().StringVar(&format, "format", "", "Report format: html, json or table (default: html)")
	rootCmd.Flags().StringVar(&severity, "severity", "", "Only report findings of these severities (e.g. HIGH,CRITICAL)")
	rootCmd.Flags().IntVar(&pollAttempts, "attempts", -1, "How many times to probe the container runtime before giving up (default: 30)")
	rootCmd.Flags().DurationVar(&pollInterval, "interval", 0, "Delay between runtime probes (default: 2s)")
	rootCmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any image was skipped or failed")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the work list instead of scanning")

	// Template flags
	rootCmd.Flags().StringVar(&templateFile, "template", "", "Custom report template file for html output")
	rootCmd.Flags().BoolVar(&listTemplates, "list-templates", false, "List all available built-in templates")
	rootCmd.Flags().StringVar(&exportTemplate, "export-template", "", "Export a built-in template to stdout (e.g. 'default')")
	rootCmd.Flags().StringVar(&validateTemplate, "validate-template", "", "Validate a custom template file for syntax errors")

	// Add version flag as shortcut for "version" command
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("fleetscan {{.Version}}\n")
}
