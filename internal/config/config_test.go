package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	builderrors "git.home.luguber.info/inful/tikzbuild/internal/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.Equal(t, []string{".tex"}, cfg.Source.Extensions)
	require.Equal(t, ".pdf", cfg.Output.Extension)
	require.Equal(t, "lualatex", cfg.Engine.Command)
	require.Equal(t, []string{"-halt-on-error", "-interaction=batchmode"}, cfg.Engine.Args)
	require.Equal(t, 32, cfg.Build.Jobs)
	require.Zero(t, cfg.CompileTimeout())
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingDefaultFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), DefaultConfigFile), false)

	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad_MissingExplicitFileIsConfigError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), true)

	require.Error(t, err)
	require.True(t, builderrors.IsCategory(err, builderrors.CategoryConfig))
}

func TestLoad_FileOverridesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tikzbuild.yaml")
	content := `
source:
  directory: ./figs
  extensions: [".tex", ".latex"]
engine:
  command: pdflatex
build:
  jobs: 4
  timeout: 90s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path, true)
	require.NoError(t, err)

	require.Equal(t, "./figs", cfg.Source.Directory)
	require.Equal(t, []string{".tex", ".latex"}, cfg.Source.Extensions)
	require.Equal(t, "pdflatex", cfg.Engine.Command)
	require.Equal(t, 4, cfg.Build.Jobs)
	require.NoError(t, cfg.Validate())
	require.Equal(t, 90*time.Second, cfg.CompileTimeout())
	// Unset fields fall back to defaults.
	require.Equal(t, ".pdf", cfg.Output.Extension)
	require.Equal(t, []string{"-halt-on-error", "-interaction=batchmode"}, cfg.Engine.Args)
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("TIKZBUILD_TEST_ENGINE", "xelatex")

	path := filepath.Join(t.TempDir(), "tikzbuild.yaml")
	content := "engine:\n  command: ${TIKZBUILD_TEST_ENGINE}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path, true)
	require.NoError(t, err)
	require.Equal(t, "xelatex", cfg.Engine.Command)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero jobs", func(c *Config) { c.Build.Jobs = 0 }},
		{"negative jobs", func(c *Config) { c.Build.Jobs = -3 }},
		{"negative timeout", func(c *Config) { c.Build.Timeout = "-1s" }},
		{"malformed timeout", func(c *Config) { c.Build.Timeout = "soon" }},
		{"empty engine", func(c *Config) { c.Engine.Command = "" }},
		{"empty output extension", func(c *Config) { c.Output.Extension = "" }},
		{"extension without dot", func(c *Config) { c.Source.Extensions = []string{"tex"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.True(t, builderrors.IsCategory(err, builderrors.CategoryValidation))
		})
	}
}

func TestInit_WritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tikzbuild.yaml")

	require.NoError(t, Init(path, false))

	cfg, err := Load(path, true)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, "./figures", cfg.Source.Directory)
	require.Equal(t, "./build", cfg.Output.Directory)

	// Second init without force refuses to overwrite.
	err = Init(path, false)
	require.Error(t, err)
	require.True(t, builderrors.IsCategory(err, builderrors.CategoryConfig))

	// Force overwrites.
	require.NoError(t, Init(path, true))
}
