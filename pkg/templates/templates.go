// Package templates manages report templates. One HTML template ships
// embedded in the binary; custom templates come from files on disk.
package templates

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

//go:embed html.tpl
var defaultHTML string

// BuiltinInfo describes one shipped template.
type BuiltinInfo struct {
	Name        string
	Format      string
	Description string
}

// ListBuiltin returns the templates shipped with the binary.
func ListBuiltin() []BuiltinInfo {
	return []BuiltinInfo{
		{Name: "default", Format: "html", Description: "Vulnerability table per scanned image"},
	}
}

// IsBuiltin reports whether name refers to a shipped template.
func IsBuiltin(name string) bool {
	for _, b := range ListBuiltin() {
		if b.Name == name {
			return true
		}
	}
	return false
}

// ExportBuiltin returns the content of the shipped template name.
func ExportBuiltin(name string) (string, error) {
	if name != "default" {
		return "", fmt.Errorf("unknown built-in template: %s", name)
	}
	return defaultHTML, nil
}

// MaterializeDefault writes the shipped HTML template into dir and
// returns its path. The scanner reads templates from disk, so the
// embedded copy has to land in a file first.
func MaterializeDefault(dir string) (string, error) {
	path := filepath.Join(dir, "html.tpl")
	if err := os.WriteFile(path, []byte(defaultHTML), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report template: %w", err)
	}
	return path, nil
}

// Validate parses the template file at path and reports syntax errors.
func Validate(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read template %s: %w", path, err)
	}
	if _, err := template.New(filepath.Base(path)).Parse(string(data)); err != nil {
		return fmt.Errorf("template %s: %w", path, err)
	}
	return nil
}

// OutputExtension maps a report format to its file extension.
func OutputExtension(format string) string {
	switch format {
	case "json":
		return ".json"
	case "table":
		return ".txt"
	default:
		return ".html"
	}
}

// KnownFormat reports whether format is one the scanner can produce.
func KnownFormat(format string) bool {
	switch format {
	case "html", "json", "table":
		return true
	}
	return false
}
