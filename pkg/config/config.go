// Package config handles loading, validating, and resolving verdict configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jcadam/verdict/pkg/editor"
)

// Config is the top-level verdict configuration loaded from config.yaml.
type Config struct {
	Project   string          `yaml:"project,omitempty"`
	Output    OutputConfig    `yaml:"output"`
	Editor    EditorConfig    `yaml:"editor"`
	Chart     ChartConfig     `yaml:"chart"`
	Export    ExportConfig    `yaml:"export"`
	Publish   PublishConfig   `yaml:"publish,omitempty"`
	Apps      AppsConfig      `yaml:"apps"`
	Rendering RenderingConfig `yaml:"rendering"`
}

// OutputConfig defines where reports are written.
type OutputConfig struct {
	Dir string `yaml:"dir,omitempty"` // empty means the working directory
}

// EditorConfig defines the per-case editor.
type EditorConfig struct {
	Toolbar       []string `yaml:"toolbar,omitempty"`
	Placeholder   string   `yaml:"placeholder,omitempty"`
	Height        int      `yaml:"height,omitempty"`
	ScreenshotDir string   `yaml:"screenshot_dir,omitempty"` // base for relative image paths
}

// ChartConfig defines the summary chart canvas.
type ChartConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// ExportConfig defines PDF capture.
type ExportConfig struct {
	Engine       string  `yaml:"engine"` // auto | chrome | weasyprint | wkhtmltopdf | pandoc
	ChromeBin    string  `yaml:"chrome_bin,omitempty"`
	Scale        float64 `yaml:"scale"`
	ImageQuality float64 `yaml:"image_quality"`
	PageFormat   string  `yaml:"page_format"` // A4 | Letter | Legal
	MarginPt     float64 `yaml:"margin_pt"`
	Timeout      int     `yaml:"timeout,omitempty"` // seconds; 0 means no limit
}

// PublishConfig defines an optional SCP destination for exported PDFs.
type PublishConfig struct {
	Host       string `yaml:"host,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	User       string `yaml:"user,omitempty"`
	KeyFile    string `yaml:"key_file,omitempty"`
	Passphrase string `yaml:"passphrase,omitempty"`
	RemoteDir  string `yaml:"remote_dir,omitempty"`
	KnownHosts string `yaml:"known_hosts,omitempty"`
}

// Enabled reports whether a publish destination is configured.
func (p PublishConfig) Enabled() bool { return p.Host != "" }

// AppsConfig defines system app handoff targets.
type AppsConfig struct {
	PDF     string `yaml:"pdf,omitempty"`
	Browser string `yaml:"browser,omitempty"`
}

// RenderingConfig defines terminal rendering behavior.
type RenderingConfig struct {
	Images string `yaml:"images,omitempty"` // auto | inline | text
	Theme  string `yaml:"theme,omitempty"`  // auto | dark | light
}

// Default returns the configuration used when no config.yaml exists.
func Default() *Config {
	return &Config{
		Chart: ChartConfig{Width: 400, Height: 400},
		Export: ExportConfig{
			Engine:       "auto",
			Scale:        2,
			ImageQuality: 0.7,
			PageFormat:   "A4",
			MarginPt:     30,
		},
		Rendering: RenderingConfig{Images: "auto", Theme: "auto"},
	}
}

// ExportTimeout returns the capture timeout.
func (c *Config) ExportTimeout() time.Duration {
	return time.Duration(c.Export.Timeout) * time.Second
}

// EditorControls returns the configured toolbar, or nil for the default.
func (c *Config) EditorControls() []editor.Control {
	if len(c.Editor.Toolbar) == 0 {
		return nil
	}
	controls := make([]editor.Control, 0, len(c.Editor.Toolbar))
	for _, name := range c.Editor.Toolbar {
		controls = append(controls, editor.Control(strings.ToLower(name)))
	}
	return controls
}

// DeepCopy returns a deep copy of the config by round-tripping through YAML.
func (c *Config) DeepCopy() *Config {
	data, err := yaml.Marshal(c)
	if err != nil {
		panic(fmt.Sprintf("config marshal during DeepCopy: %v", err))
	}
	var copy Config
	if err := yaml.Unmarshal(data, &copy); err != nil {
		panic(fmt.Sprintf("config unmarshal during DeepCopy: %v", err))
	}
	return &copy
}

// VerdictDir returns the path to the verdict data directory (~/.verdict/),
// creating it if it doesn't exist. Override with VERDICT_DIR env var.
func VerdictDir() (string, error) {
	dir := os.Getenv("VERDICT_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("determining home directory: %w", err)
		}
		dir = filepath.Join(home, ".verdict")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating verdict directory: %w", err)
	}
	return dir, nil
}

// Load reads config.yaml from the verdict directory. Fields the file leaves
// out keep their Default values.
func Load(verdictDir string) (*Config, error) {
	path := filepath.Join(verdictDir, "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${VAR} references in credential fields from the environment.
// Only publish credentials are resolved; they are never stored expanded.
func ResolveEnvVars(cfg *Config) {
	cfg.Publish.Passphrase = expandEnv(cfg.Publish.Passphrase)
	cfg.Publish.User = expandEnv(cfg.Publish.User)
	cfg.Publish.KeyFile = expandEnv(cfg.Publish.KeyFile)
}

func expandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match // leave unresolved if env var not set
	})
}

// Save marshals the config to YAML and writes it to config.yaml in the verdict directory.
// Creates the parent directory if it doesn't exist.
func Save(verdictDir string, cfg *Config) error {
	if err := os.MkdirAll(verdictDir, 0o755); err != nil {
		return fmt.Errorf("creating verdict directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	header := "# verdict configuration\n# Edit this file directly or regenerate it with: vd config init\n\n"
	path := filepath.Join(verdictDir, "config.yaml")
	return os.WriteFile(path, []byte(header+string(data)), 0o644)
}

// Validate checks internal consistency of the config.
func Validate(cfg *Config) error {
	for _, name := range cfg.Editor.Toolbar {
		if !knownControl(name) {
			return fmt.Errorf("editor.toolbar has unknown control %q", name)
		}
	}
	if cfg.Editor.Height < 0 {
		return fmt.Errorf("editor.height must not be negative")
	}

	if cfg.Chart.Width < 0 || cfg.Chart.Height < 0 {
		return fmt.Errorf("chart size must not be negative, got %dx%d", cfg.Chart.Width, cfg.Chart.Height)
	}

	switch strings.ToLower(cfg.Export.Engine) {
	case "", "auto", "chrome", "weasyprint", "wkhtmltopdf", "pandoc":
		// valid
	default:
		return fmt.Errorf("invalid export.engine value %q", cfg.Export.Engine)
	}
	switch strings.ToLower(cfg.Export.PageFormat) {
	case "", "a4", "letter", "legal":
		// valid
	default:
		return fmt.Errorf("invalid export.page_format value %q", cfg.Export.PageFormat)
	}
	if cfg.Export.ImageQuality < 0 || cfg.Export.ImageQuality > 1 {
		return fmt.Errorf("export.image_quality must be between 0 and 1, got %g", cfg.Export.ImageQuality)
	}
	if cfg.Export.Scale < 0 {
		return fmt.Errorf("export.scale must not be negative")
	}
	if cfg.Export.MarginPt < 0 {
		return fmt.Errorf("export.margin_pt must not be negative")
	}
	if cfg.Export.Timeout < 0 {
		return fmt.Errorf("export.timeout must not be negative")
	}

	if p := cfg.Publish; p.Enabled() {
		if p.User == "" {
			return fmt.Errorf("publish to %q requires a user", p.Host)
		}
		if p.Port < 0 || p.Port > 65535 {
			return fmt.Errorf("publish.port %d out of range", p.Port)
		}
	} else if cfg.Publish.User != "" || cfg.Publish.RemoteDir != "" {
		return fmt.Errorf("publish settings given without publish.host")
	}

	if cfg.Rendering.Images != "" {
		switch strings.ToLower(cfg.Rendering.Images) {
		case "auto", "inline", "text":
			// valid
		default:
			return fmt.Errorf("invalid rendering.images value %q", cfg.Rendering.Images)
		}
	}
	if cfg.Rendering.Theme != "" {
		switch strings.ToLower(cfg.Rendering.Theme) {
		case "auto", "dark", "light":
			// valid
		default:
			return fmt.Errorf("invalid rendering.theme value %q", cfg.Rendering.Theme)
		}
	}

	return nil
}

func knownControl(name string) bool {
	for _, c := range editor.DefaultToolbar {
		if string(c) == strings.ToLower(name) {
			return true
		}
	}
	return false
}
