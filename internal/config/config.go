// Package config loads luabundle settings from luabundle.toml, LUABUNDLE_*
// environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// FileName is the project configuration file.
	FileName = "luabundle.toml"
	// EnvPrefix prefixes environment overrides, e.g. LUABUNDLE_BUNDLE_MINIFY.
	EnvPrefix = "LUABUNDLE"
)

// Config is the full luabundle configuration.
type Config struct {
	Bundle    BundleConfig    `toml:"bundle" mapstructure:"bundle"`
	Processor ProcessorConfig `toml:"processor" mapstructure:"processor"`
	Log       LogConfig       `toml:"log" mapstructure:"log"`
	Watch     WatchConfig     `toml:"watch" mapstructure:"watch"`
	// Targets lists extra entry/output pairs built together. When empty the
	// bundle section describes the only target.
	Targets []Target `toml:"targets,omitempty" mapstructure:"targets"`
}

// BundleConfig holds the bundling options.
type BundleConfig struct {
	Entry     string `toml:"entry" mapstructure:"entry"`
	Output    string `toml:"output" mapstructure:"output"`
	Minify    bool   `toml:"minify" mapstructure:"minify"`
	NoProcess bool   `toml:"no_process" mapstructure:"no_process"`
	// ResolveFrom is "entry" or "module"; see bundle.Base.
	ResolveFrom string   `toml:"resolve_from" mapstructure:"resolve_from"`
	External    []string `toml:"external" mapstructure:"external"`
	IgnoreFile  string   `toml:"ignore_file" mapstructure:"ignore_file"`
}

// ProcessorConfig selects the code processor. An empty Command selects the
// built-in formatter.
type ProcessorConfig struct {
	Command []string `toml:"command" mapstructure:"command"`
	Timeout string   `toml:"timeout" mapstructure:"timeout"`
}

// LogConfig holds logging options.
type LogConfig struct {
	Level string `toml:"level" mapstructure:"level"`
}

// WatchConfig holds options for watch mode.
type WatchConfig struct {
	Debounce string   `toml:"debounce" mapstructure:"debounce"`
	Ignore   []string `toml:"ignore" mapstructure:"ignore"`
}

// Target is one entry/output pair.
type Target struct {
	Entry  string `toml:"entry" mapstructure:"entry"`
	Output string `toml:"output" mapstructure:"output"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Bundle: BundleConfig{
			Entry:       "lua/main.lua",
			Output:      "lua/bundled.lua",
			ResolveFrom: "entry",
			External:    []string{},
			IgnoreFile:  ".bundleignore",
		},
		Processor: ProcessorConfig{
			Command: []string{},
			Timeout: "60s",
		},
		Log: LogConfig{Level: "info"},
		Watch: WatchConfig{
			Debounce: "300ms",
			Ignore:   []string{},
		},
	}
}

// LoadOptions controls where Load looks.
type LoadOptions struct {
	// File is an explicit config file, which must exist.
	File string
	// Dir is searched for luabundle.toml and .env; empty means the working
	// directory.
	Dir string
}

// Load reads the configuration. A missing luabundle.toml is not an error.
// It returns the config together with the file it was read from, if any.
func Load(opts LoadOptions) (*Config, string, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, Default())

	if opts.File != "" {
		if _, err := os.Stat(opts.File); err != nil {
			return nil, "", fmt.Errorf("config file: %w", err)
		}
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		v.SetConfigType("toml")
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, "", fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, "", fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config: %w", err)
	}
	return cfg, v.ConfigFileUsed(), nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("bundle.entry", d.Bundle.Entry)
	v.SetDefault("bundle.output", d.Bundle.Output)
	v.SetDefault("bundle.minify", d.Bundle.Minify)
	v.SetDefault("bundle.no_process", d.Bundle.NoProcess)
	v.SetDefault("bundle.resolve_from", d.Bundle.ResolveFrom)
	v.SetDefault("bundle.external", d.Bundle.External)
	v.SetDefault("bundle.ignore_file", d.Bundle.IgnoreFile)
	v.SetDefault("processor.command", d.Processor.Command)
	v.SetDefault("processor.timeout", d.Processor.Timeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("watch.ignore", d.Watch.Ignore)
	v.SetDefault("targets", []Target{})
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Bundle.Entry == "" {
		return errors.New("bundle.entry cannot be empty")
	}
	if c.Bundle.Output == "" {
		return errors.New("bundle.output cannot be empty")
	}
	switch c.Bundle.ResolveFrom {
	case "entry", "module":
	default:
		return fmt.Errorf("bundle.resolve_from: %q (must be 'entry' or 'module')", c.Bundle.ResolveFrom)
	}
	if _, err := c.ProcessorTimeout(); err != nil {
		return err
	}
	if _, err := c.WatchDebounce(); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	for i, t := range c.Targets {
		if t.Entry == "" || t.Output == "" {
			return fmt.Errorf("targets[%d]: entry and output are required", i)
		}
	}
	return nil
}

// ProcessorTimeout parses processor.timeout.
func (c *Config) ProcessorTimeout() (time.Duration, error) {
	return parseDuration("processor.timeout", c.Processor.Timeout)
}

// WatchDebounce parses watch.debounce.
func (c *Config) WatchDebounce() (time.Duration, error) {
	return parseDuration("watch.debounce", c.Watch.Debounce)
}

func parseDuration(key, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative", key)
	}
	return d, nil
}

// BuildTargets returns the configured targets, or the bundle section's
// entry and output when none are listed.
func (c *Config) BuildTargets() []Target {
	if len(c.Targets) > 0 {
		return c.Targets
	}
	return []Target{{Entry: c.Bundle.Entry, Output: c.Bundle.Output}}
}

// Write saves cfg as TOML to path, refusing to replace an existing file.
func Write(path string, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
