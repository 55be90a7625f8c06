package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	chdir(t, t.TempDir())

	cfg, err := Load(NewViper(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	chdir(t, t.TempDir())
	t.Setenv("TURTLES_TEMPO_REFERENCE", "120")
	t.Setenv("TURTLES_DYNAMICS_DEFAULT", "pp")

	cfg, err := Load(NewViper(""))
	require.NoError(t, err)
	assert.Equal(t, 120.0, cfg.Tempo.Reference)
	assert.Equal(t, "pp", cfg.Dynamics.Default)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turtles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tempo:
  reference: 90
run:
  workers: 2
export:
  ticks_per_beat: 480
  channel_per_turtle: false
`), 0o644))

	cfg, err := Load(NewViper(path))
	require.NoError(t, err)
	assert.Equal(t, 90.0, cfg.Tempo.Reference)
	assert.Equal(t, 2, cfg.Run.Workers)
	assert.Equal(t, 480, cfg.Export.TicksPerBeat)
	assert.False(t, cfg.Export.ChannelPerTurtle)
	assert.Equal(t, "mf", cfg.Dynamics.Default, "unset keys keep their defaults")
}

func TestLoad_SearchPath(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	chdir(t, t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "turtles"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "turtles", "config.yaml"), []byte("dynamics:\n  default: f\n"), 0o644))

	cfg, err := Load(NewViper(""))
	require.NoError(t, err)
	assert.Equal(t, "f", cfg.Dynamics.Default)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("tempo: [1, 2\n"), 0o644))

		_, err := Load(NewViper(path))
		assert.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("run:\n  workers: 0\n"), 0o644))

		_, err := Load(NewViper(path))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "run.workers")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{"tempo", func(c *Config) { c.Tempo.Reference = 0 }, "tempo.reference"},
		{"dynamic", func(c *Config) { c.Dynamics.Default = "loud" }, "dynamics.default"},
		{"workers", func(c *Config) { c.Run.Workers = 0 }, "run.workers"},
		{"ticks", func(c *Config) { c.Export.TicksPerBeat = 40000 }, "export.ticks_per_beat"},
	}

	require.NoError(t, Default().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, filepath.Join("/tmp/xdg", "turtles"), ConfigDir())
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
