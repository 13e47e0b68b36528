// Package config loads the fleetscan.yaml run configuration. Every field
// has a usable default, so the file and all of its keys are optional.
package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fleetscan/fleetscan/pkg/templates"
)

// DefaultFile is the configuration file picked up from the working
// directory when --config is not given.
const DefaultFile = "fleetscan.yaml"

// DefaultTrivyVersion pins the scanner release installed when the
// configuration does not choose one.
const DefaultTrivyVersion = "0.58.1"

// Duration wraps time.Duration so intervals read naturally in YAML, for
// example "2s" or "500ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Poll controls how long to wait for the container runtime daemon.
type Poll struct {
	Attempts int      `yaml:"attempts"`
	Interval Duration `yaml:"interval"`
}

// Trivy configures the scanner binary and its findings filter.
type Trivy struct {
	Version  string `yaml:"version"`
	URL      string `yaml:"url"`
	Dir      string `yaml:"dir"`
	Severity string `yaml:"severity"`
	Template string `yaml:"template"`
}

// Registry names a private registry and the environment variables its
// credentials are read from. The credentials themselves never appear in
// the file.
type Registry struct {
	Server      string `yaml:"server"`
	UsernameEnv string `yaml:"username_env"`
	PasswordEnv string `yaml:"password_env"`
}

// Config is the full run configuration.
type Config struct {
	Runtime    string   `yaml:"runtime"`
	Properties string   `yaml:"properties"`
	ReportsDir string   `yaml:"reports_dir"`
	Format     string   `yaml:"format"`
	Strict     bool     `yaml:"strict"`
	Poll       Poll     `yaml:"poll"`
	Trivy      Trivy    `yaml:"trivy"`
	Registry   Registry `yaml:"registry"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Properties: "images.properties",
		ReportsDir: "reports",
		Format:     "html",
		Poll: Poll{
			Attempts: 30,
			Interval: Duration(2 * time.Second),
		},
		Registry: Registry{
			UsernameEnv: "REGISTRY_USERNAME",
			PasswordEnv: "REGISTRY_PASSWORD",
		},
	}
}

// Load reads the configuration at path over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the run cannot work with.
func (c *Config) Validate() error {
	if c.Poll.Attempts < 0 {
		return fmt.Errorf("poll.attempts must not be negative, got %d", c.Poll.Attempts)
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be positive, got %s", c.Poll.Interval.Std())
	}
	if !templates.KnownFormat(c.Format) {
		return fmt.Errorf("unknown report format %q (choose html, json, or table)", c.Format)
	}
	return nil
}

// archiveOS and archiveArch map Go platform names to the names trivy
// release archives use.
var (
	archiveOS   = map[string]string{"linux": "Linux", "darwin": "macOS"}
	archiveArch = map[string]string{"amd64": "64bit", "arm64": "ARM64"}
)

// ArchiveURL returns the release archive for the configured scanner
// version on this platform. An explicit trivy.url wins over the rendered
// one.
func (c *Config) ArchiveURL() (string, error) {
	if c.Trivy.URL != "" {
		return c.Trivy.URL, nil
	}

	osName, ok := archiveOS[runtime.GOOS]
	if !ok {
		return "", fmt.Errorf("no trivy release archive for %s", runtime.GOOS)
	}
	arch, ok := archiveArch[runtime.GOARCH]
	if !ok {
		return "", fmt.Errorf("no trivy release archive for %s", runtime.GOARCH)
	}

	version := c.Trivy.Version
	if version == "" {
		version = DefaultTrivyVersion
	}
	return fmt.Sprintf("https://github.com/aquasecurity/trivy/releases/download/v%s/trivy_%s_%s-%s.tar.gz",
		version, version, osName, arch), nil
}

// Credentials reads the registry credentials from the configured
// environment variables. With no registry server configured it returns
// empty values and no error.
func (c *Config) Credentials() (username, password string, err error) {
	if c.Registry.Server == "" {
		return "", "", nil
	}

	username = os.Getenv(c.Registry.UsernameEnv)
	password = os.Getenv(c.Registry.PasswordEnv)
	if username == "" || password == "" {
		return "", "", fmt.Errorf("registry %s needs credentials in %s and %s",
			c.Registry.Server, c.Registry.UsernameEnv, c.Registry.PasswordEnv)
	}
	return username, password, nil
}
