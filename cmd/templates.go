package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fleetscan/fleetscan/pkg/templates"
)

// handleListTemplates prints all available built-in templates.
func handleListTemplates() error { //nolint:unparam // error return is part of RunE handler contract
	builtins := templates.ListBuiltin()
	fmt.Println("Available built-in templates:")
	fmt.Println()
	for _, b := range builtins {
		fmt.Printf("  %-10s  [%s]  %s\n", b.Name, b.Format, b.Description)
	}
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  fleetscan --export-template <name> > my-template.tpl")
	fmt.Println("  fleetscan --template my-template.tpl")
	return nil
}

// handleExportTemplate exports a built-in template to stdout.
func handleExportTemplate(name string) error {
	if !templates.IsBuiltin(name) {
		return fmt.Errorf("unknown built-in template: %s (use --list-templates to see available templates)", name)
	}

	content, err := templates.ExportBuiltin(name)
	if err != nil {
		return fmt.Errorf("failed to export template: %w", err)
	}
	if _, err = fmt.Fprint(os.Stdout, content); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	return nil
}

// handleValidateTemplate validates a custom template file for syntax errors.
func handleValidateTemplate(path string) error {
	if err := templates.Validate(path); err != nil {
		slog.Error("template validation failed", "path", path, "error", err)
		return err
	}
	fmt.Printf("Template %s is valid.\n", path)
	return nil
}
