// Package config provides color scheme and configuration management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable buildshim reads.
const EnvPrefix = "BUILDSHIM"

// Output formats understood by the render package.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// ErrUnknownOutput is returned for an unsupported output format.
var ErrUnknownOutput = errors.New("unknown output format")

// ColorScheme defines the color palette for rendering flags and arguments.
type ColorScheme struct {
	Flag     string `mapstructure:"flag"`     // flag names
	Value    string `mapstructure:"value"`    // values given on the command line
	Default  string `mapstructure:"default"`  // values taken from the schema default
	Unset    string `mapstructure:"unset"`    // <unset>
	Residual string `mapstructure:"residual"` // tokens forwarded to build-script-impl
	Invalid  string `mapstructure:"invalid"`  // rejection messages
	Selected string `mapstructure:"selected"` // selected row in the TUI
}

// DefaultColors returns the default color scheme.
func DefaultColors() ColorScheme {
	return ColorScheme{
		Flag:     "#50FA7B",
		Value:    "#8BE9FD",
		Default:  "#6272A4",
		Unset:    "#44475A",
		Residual: "#FFB86C",
		Invalid:  "#FF5555",
		Selected: "#00BFFF",
	}
}

// Config holds all buildshim configuration.
type Config struct {
	Impl      string        `mapstructure:"impl"`   // build-script-impl name or path
	Output    string        `mapstructure:"output"` // text, json, yaml
	NoColor   bool          `mapstructure:"no_color"`
	Cache     bool          `mapstructure:"cache"`
	NoCache   bool          `mapstructure:"no_cache"`
	CacheDir  string        `mapstructure:"cache_dir"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	FlagsFile string        `mapstructure:"flags_file"` // replaces the embedded flag table
	Debug     bool          `mapstructure:"debug"`
	Colors    ColorScheme   `mapstructure:"colors"`
}

// CacheEnabled reports whether verdicts may be answered from the cache.
// Caching is off unless asked for; NoCache wins over Cache.
func (c *Config) CacheEnabled() bool { return c.Cache && !c.NoCache }

// DefaultConfig returns config with defaults and environment overrides
// applied. It never reads a config file.
func DefaultConfig() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		// Only malformed environment values get here.
		cfg = defaults()
	}
	return cfg
}

// Load reads configuration from path, or from $HOME/.buildshim.{yaml,toml,json}
// when path is empty. A missing default file is not an error. Environment
// variables override file values.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		home, _ := os.UserHomeDir()
		v.AddConfigPath(home)
		v.SetConfigName(".buildshim")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return decode(v)
}

func defaults() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Output:   OutputText,
		CacheDir: filepath.Join(home, ".buildshim"),
		CacheTTL: 24 * time.Hour,
		Colors:   DefaultColors(),
	}
}

func newViper() *viper.Viper {
	d := defaults()
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("impl", d.Impl)
	v.SetDefault("output", d.Output)
	v.SetDefault("no_color", false)
	v.SetDefault("cache", false)
	v.SetDefault("no_cache", false)
	v.SetDefault("cache_dir", d.CacheDir)
	v.SetDefault("cache_ttl", d.CacheTTL)
	v.SetDefault("flags_file", "")
	v.SetDefault("debug", false)
	v.SetDefault("colors.flag", d.Colors.Flag)
	v.SetDefault("colors.value", d.Colors.Value)
	v.SetDefault("colors.default", d.Colors.Default)
	v.SetDefault("colors.unset", d.Colors.Unset)
	v.SetDefault("colors.residual", d.Colors.Residual)
	v.SetDefault("colors.invalid", d.Colors.Invalid)
	v.SetDefault("colors.selected", d.Colors.Selected)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if os.Getenv("NO_COLOR") != "" {
		cfg.NoColor = true
	}
	out, err := ParseOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	cfg.Output = out
	return &cfg, nil
}

// ParseOutput normalizes an output format name.
func ParseOutput(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	case OutputYAML, "yml":
		return OutputYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownOutput, s)
	}
}
