// Package config loads and validates the tikzbuild configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	builderrors "git.home.luguber.info/inful/tikzbuild/internal/errors"
)

// DefaultConfigFile is the config file probed when none is given on the command line.
const DefaultConfigFile = "tikzbuild.yaml"

// Config represents the application configuration
type Config struct {
	Source SourceConfig `yaml:"source"`
	Output OutputConfig `yaml:"output"`
	Engine EngineConfig `yaml:"engine"`
	Build  BuildConfig  `yaml:"build"`
}

// SourceConfig describes the figure source tree.
type SourceConfig struct {
	Directory string `yaml:"directory,omitempty"`
	// Extensions lists the recognized source file extensions.
	// Files with any other extension are ignored during enumeration.
	Extensions []string `yaml:"extensions,omitempty"`
}

// OutputConfig describes the mirrored output tree.
type OutputConfig struct {
	Directory string `yaml:"directory,omitempty"`
	// Extension is the compiled-artifact extension substituted for the
	// source extension when mapping paths.
	Extension string `yaml:"extension,omitempty"`
}

// EngineConfig describes the external LaTeX engine invocation.
type EngineConfig struct {
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
}

// BuildConfig holds scheduling parameters.
type BuildConfig struct {
	Jobs int `yaml:"jobs,omitempty"`
	// Timeout is a Go duration string (e.g. "90s"); empty disables the
	// per-figure timeout.
	Timeout string `yaml:"timeout,omitempty"`
}

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Extensions: []string{".tex"},
		},
		Output: OutputConfig{
			Extension: ".pdf",
		},
		Engine: EngineConfig{
			Command: "lualatex",
			Args:    []string{"-halt-on-error", "-interaction=batchmode"},
		},
		Build: BuildConfig{
			Jobs: 32,
		},
	}
}

// Load loads configuration from the specified file. The file is optional when
// explicit is false (the default path is only probed); a missing explicit
// path is a configuration error.
func Load(configPath string, explicit bool) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFiles(); err != nil {
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if !explicit {
			return Default(), nil
		}
		return nil, builderrors.NewConfigError(fmt.Sprintf("configuration file not found: %s", configPath), err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, builderrors.NewConfigError("failed to read config file", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, builderrors.NewConfigError("failed to unmarshal config", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills fields that an explicit config file left empty.
func (c *Config) applyDefaults() {
	d := Default()
	if len(c.Source.Extensions) == 0 {
		c.Source.Extensions = d.Source.Extensions
	}
	if c.Output.Extension == "" {
		c.Output.Extension = d.Output.Extension
	}
	if c.Engine.Command == "" {
		c.Engine.Command = d.Engine.Command
	}
	if c.Engine.Args == nil {
		c.Engine.Args = d.Engine.Args
	}
	if c.Build.Jobs == 0 {
		c.Build.Jobs = d.Build.Jobs
	}
}

// CompileTimeout returns the parsed per-figure timeout; zero when unset.
// Validate must have accepted the configuration first.
func (c *Config) CompileTimeout() time.Duration {
	if c.Build.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Build.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// Validate checks the configuration for values that would make a run impossible.
func (c *Config) Validate() error {
	if c.Build.Jobs < 1 {
		return builderrors.NewValidationError(
			fmt.Sprintf("jobs must be a positive integer, got %d", c.Build.Jobs), nil)
	}
	if c.Build.Timeout != "" {
		d, err := time.ParseDuration(c.Build.Timeout)
		if err != nil {
			return builderrors.NewValidationError(
				fmt.Sprintf("timeout is not a valid duration: %q", c.Build.Timeout), err)
		}
		if d < 0 {
			return builderrors.NewValidationError(
				fmt.Sprintf("timeout must not be negative, got %s", d), nil)
		}
	}
	if c.Engine.Command == "" {
		return builderrors.NewValidationError("engine command must not be empty", nil)
	}
	if c.Output.Extension == "" {
		return builderrors.NewValidationError("output extension must not be empty", nil)
	}
	for _, ext := range c.Source.Extensions {
		if ext == "" || ext[0] != '.' {
			return builderrors.NewValidationError(
				fmt.Sprintf("source extensions must start with a dot, got %q", ext), nil)
		}
	}
	return nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return builderrors.NewConfigError(
			fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath), nil)
	}

	exampleConfig := Config{
		Source: SourceConfig{
			Directory:  "./figures",
			Extensions: []string{".tex"},
		},
		Output: OutputConfig{
			Directory: "./build",
			Extension: ".pdf",
		},
		Engine: EngineConfig{
			Command: "lualatex",
			Args:    []string{"-halt-on-error", "-interaction=batchmode"},
		},
		Build: BuildConfig{
			Jobs:    32,
			Timeout: "2m",
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return builderrors.NewFileSystemError("failed to write config file", err)
	}

	return nil
}
