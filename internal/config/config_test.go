package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, meta, err := Load(nil, "")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.False(t, meta.FileNotFound)
	require.Empty(t, meta.FileUsed)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gradientgen.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
size = 512
format = "bmp"
data_dir = "/from/file"

[server]
shutdown_timeout = "3s"
addr = ":9000"
`), 0644))

	t.Setenv("GRADIENTGEN_DATA_DIR", "/from/env")
	t.Setenv("GRADIENTGEN_LOG_LEVEL", "debug")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("size", 1024, "")
	flags.String("format", "png", "")
	flags.String("addr", ":8080", "")
	flags.Int("max-jobs", 100, "")
	require.NoError(t, flags.Parse([]string{"--size=256", "--max-jobs=5"}))

	cfg, meta, err := Load(flags, path)
	require.NoError(t, err)
	require.Equal(t, path, meta.FileUsed)

	// flag > env > file > default

	require.Equal(t, 256, cfg.Size)
	require.Equal(t, "bmp", cfg.Format)
	require.Equal(t, "/from/env", cfg.DataDir)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, ":9000", cfg.Server.Addr)
	require.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	require.Equal(t, 5, cfg.Server.MaxJobs)
}

func TestLoadMissingFile(t *testing.T) {
	_, meta, err := Load(nil, filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	require.True(t, meta.FileNotFound)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"tiny size", func(c *Config) { c.Size = 1 }},
		{"negative workers", func(c *Config) { c.Workers = -2 }},
		{"unknown format", func(c *Config) { c.Format = "gif" }},
		{"unknown log level", func(c *Config) { c.Log.Level = "trace" }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
		{"max size below size", func(c *Config) { c.Server.MaxSize = 16 }},
		{"zero shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = 0 }},
		{"zero max jobs", func(c *Config) { c.Server.MaxJobs = 0 }},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestMarshalTOMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Size = 300
	cfg.Server.ShutdownTimeout = 42 * time.Second
	cfg.Server.MaxJobs = 7

	data, err := cfg.MarshalTOML()
	require.NoError(t, err)
	require.Contains(t, string(data), "42s")

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, data, 0644))

	loaded, _, err := Load(nil, path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}
