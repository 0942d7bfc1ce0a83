package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cwbudde/gradientgen/internal/gradient"
	"github.com/cwbudde/gradientgen/internal/imageio"
)

// EnvPrefix is prepended to every environment variable, e.g. GRADIENTGEN_SIZE.
const EnvPrefix = "GRADIENTGEN"

// Config is the full application configuration.
type Config struct {
	// Size is the canvas side length in pixels
	Size int `mapstructure:"size" toml:"size"`
	// Workers is the number of render goroutines (0 = GOMAXPROCS)
	Workers int `mapstructure:"workers" toml:"workers"`
	// Seed for the random source (0 = derive from the clock)
	Seed    int64  `mapstructure:"seed" toml:"seed"`
	Format  string `mapstructure:"format" toml:"format"`
	DataDir string `mapstructure:"data_dir" toml:"data_dir"`

	Log    LogConfig    `mapstructure:"log" toml:"log"`
	Server ServerConfig `mapstructure:"server" toml:"server"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level" toml:"level"`
	Format string `mapstructure:"format" toml:"format"`
}

// ServerConfig configures the HTTP job service.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" toml:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" toml:"shutdown_timeout"`
	MaxSize         int           `mapstructure:"max_size" toml:"max_size"`
	// MaxJobs bounds the jobs kept in memory; finished jobs are evicted oldest first
	MaxJobs int `mapstructure:"max_jobs" toml:"max_jobs"`
	// Persist stores completed jobs in DataDir
	Persist bool `mapstructure:"persist" toml:"persist"`
}

// Meta describes where the configuration came from.
type Meta struct {
	FileUsed     string
	FileNotFound bool
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Size:    gradient.DefaultSize,
		Workers: 0,
		Seed:    0,
		Format:  string(imageio.FormatPNG),
		DataDir: "./data",
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			MaxSize:         4096,
			MaxJobs:         100,
			Persist:         true,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("size", d.Size)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("format", d.Format)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout.String())
	v.SetDefault("server.max_size", d.Server.MaxSize)
	v.SetDefault("server.max_jobs", d.Server.MaxJobs)
	v.SetDefault("server.persist", d.Server.Persist)
}

// Load layers defaults, the optional config file, GRADIENTGEN_* environment
// variables and explicitly set flags, in increasing priority.
// Flags are matched to keys by their hyphenated names ("data-dir" for
// data_dir, "log-level" for log.level) and, for server keys, without the
// "server-" prefix ("addr" for server.addr).
func Load(flags *pflag.FlagSet, configFile string) (Config, Meta, error) {
	v := viper.NewWithOptions(viper.WithDecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	)))
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for _, key := range v.AllKeys() {
			if f := lookupFlag(flags, key); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, Meta{}, fmt.Errorf("error binding flag %s: %w", key, err)
				}
			}
		}
	}

	meta := Meta{}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			var pathErr *os.PathError
			if errors.As(err, &pathErr) {
				meta.FileNotFound = true
			} else {
				return Config{}, Meta{}, fmt.Errorf("error reading config file %s: %w", configFile, err)
			}
		} else {
			meta.FileUsed = v.ConfigFileUsed()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, Meta{}, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, Meta{}, err
	}
	return cfg, meta, nil
}

var flagReplacer = strings.NewReplacer(".", "-", "_", "-")

func lookupFlag(flags *pflag.FlagSet, key string) *pflag.Flag {
	name := flagReplacer.Replace(key)
	for _, candidate := range []string{key, name, strings.TrimPrefix(name, "server-")} {
		if f := flags.Lookup(candidate); f != nil {
			return f
		}
	}
	return nil
}

// Validate rejects values the generator or service cannot work with.
func (c Config) Validate() error {
	if c.Size < 2 {
		return fmt.Errorf("invalid size %d: must be at least 2", c.Size)
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid workers %d: cannot be negative", c.Workers)
	}
	if _, err := imageio.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "auto", "json", "text":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}
	if c.Server.MaxSize < c.Size {
		return fmt.Errorf("server.max_size %d is smaller than size %d", c.Server.MaxSize, c.Size)
	}
	if c.Server.MaxJobs < 1 {
		return fmt.Errorf("invalid server.max_jobs %d: must be at least 1", c.Server.MaxJobs)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	return nil
}

// ImageFormat returns the parsed output format.
func (c Config) ImageFormat() imageio.Format {
	f, _ := imageio.ParseFormat(c.Format)
	return f
}

// tomlConfig mirrors Config with durations as strings, the form Load accepts back.
type tomlConfig struct {
	Size    int       `toml:"size" comment:"Canvas side length in pixels"`
	Workers int       `toml:"workers" comment:"Render goroutines, 0 uses GOMAXPROCS"`
	Seed    int64     `toml:"seed" comment:"Random seed, 0 derives one from the clock"`
	Format  string    `toml:"format" comment:"Output format: png, jpeg, bmp, tiff"`
	DataDir string    `toml:"data_dir"`
	Log     LogConfig `toml:"log"`
	Server  struct {
		Addr            string `toml:"addr"`
		ShutdownTimeout string `toml:"shutdown_timeout"`
		MaxSize         int    `toml:"max_size"`
		MaxJobs         int    `toml:"max_jobs" comment:"Jobs kept in memory before finished ones are evicted"`
		Persist         bool   `toml:"persist"`
	} `toml:"server"`
}

// MarshalTOML renders c as a config file.
func (c Config) MarshalTOML() ([]byte, error) {
	out := tomlConfig{
		Size:    c.Size,
		Workers: c.Workers,
		Seed:    c.Seed,
		Format:  c.Format,
		DataDir: c.DataDir,
		Log:     c.Log,
	}
	out.Server.Addr = c.Server.Addr
	out.Server.ShutdownTimeout = c.Server.ShutdownTimeout.String()
	out.Server.MaxSize = c.Server.MaxSize
	out.Server.MaxJobs = c.Server.MaxJobs
	out.Server.Persist = c.Server.Persist

	data, err := toml.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("error marshaling config: %w", err)
	}
	return data, nil
}
