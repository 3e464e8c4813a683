// Package config loads picopack settings using Viper from flags, environment
// variables with the PICOPACK_ prefix and an optional .picopack.yml file.
//
// Precedence follows Viper: explicit flags, then environment, then the
// config file, then the defaults registered by SetDefaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the config file looked up in the working directory.
	FileName = ".picopack.yml"

	// EnvPrefix prefixes every environment override, e.g. PICOPACK_SOURCE_DIR.
	EnvPrefix = "PICOPACK"
)

// Viper keys.
const (
	KeySourceDir       = "source.dir"
	KeySourceExtension = "source.extension"
	KeySourceExclude   = "source.exclude"
	KeyOutputPath      = "output.path"
	KeyCartVersion     = "cart.version"
	KeyWatchEnabled    = "watch.enabled"
	KeyWatchDebounce   = "watch.debounce"
	KeyLogLevel        = "log.level"
	KeyLogFormat       = "log.format"
)

type Config struct {
	Source SourceConfig `mapstructure:"source" yaml:"source"`
	Output OutputConfig `mapstructure:"output" yaml:"output"`
	Cart   CartConfig   `mapstructure:"cart" yaml:"cart"`
	Watch  WatchConfig  `mapstructure:"watch" yaml:"watch"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
	DryRun bool         `mapstructure:"-" yaml:"-"` // CLI only
}

type SourceConfig struct {
	Dir       string   `mapstructure:"dir" yaml:"dir"`
	Extension string   `mapstructure:"extension" yaml:"extension"`
	Exclude   []string `mapstructure:"exclude" yaml:"exclude"`
}

type OutputConfig struct {
	// Path is the cartridge to splice into. Empty means search the working
	// directory for a single .p8 file.
	Path string `mapstructure:"path" yaml:"path"`
}

type CartConfig struct {
	// Version is written in the header of newly bootstrapped cartridges.
	Version int `mapstructure:"version" yaml:"version"`
}

type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MarshalYAML writes the debounce as a duration string.
func (w WatchConfig) MarshalYAML() (interface{}, error) {
	return struct {
		Enabled  bool   `yaml:"enabled"`
		Debounce string `yaml:"debounce"`
	}{w.Enabled, w.Debounce.String()}, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Dir:       "src/",
			Extension: ".lua",
			Exclude:   []string{},
		},
		Cart:  CartConfig{Version: 16},
		Watch: WatchConfig{Debounce: 100 * time.Millisecond},
		Log:   LogConfig{Level: "info", Format: "text"},
	}
}

// SetDefaults registers Default() on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeySourceDir, d.Source.Dir)
	v.SetDefault(KeySourceExtension, d.Source.Extension)
	v.SetDefault(KeySourceExclude, d.Source.Exclude)
	v.SetDefault(KeyOutputPath, d.Output.Path)
	v.SetDefault(KeyCartVersion, d.Cart.Version)
	v.SetDefault(KeyWatchEnabled, d.Watch.Enabled)
	v.SetDefault(KeyWatchDebounce, d.Watch.Debounce)
	v.SetDefault(KeyLogLevel, d.Log.Level)
	v.SetDefault(KeyLogFormat, d.Log.Format)
}

// SetupEnv enables PICOPACK_* overrides on v, mapping "." to "_".
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// AutomaticEnv values are plain strings; unmarshal leaves slices empty
	if v.IsSet(KeySourceExclude) && len(config.Source.Exclude) == 0 {
		config.Source.Exclude = v.GetStringSlice(KeySourceExclude)
	}

	d := Default()
	if config.Source.Dir == "" {
		config.Source.Dir = d.Source.Dir
	}
	if config.Source.Extension == "" {
		config.Source.Extension = d.Source.Extension
	}
	if config.Source.Exclude == nil {
		config.Source.Exclude = []string{}
	}
	if config.Cart.Version == 0 {
		config.Cart.Version = d.Cart.Version
	}
	if !v.IsSet(KeyWatchDebounce) {
		config.Watch.Debounce = d.Watch.Debounce
	}
	if config.Log.Level == "" {
		config.Log.Level = d.Log.Level
	}
	if config.Log.Format == "" {
		config.Log.Format = d.Log.Format
	}

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Marshal renders config as the YAML accepted by Load.
func Marshal(config *Config) ([]byte, error) {
	return yaml.Marshal(config)
}

// WriteDefault writes Default() to path. An existing file is only replaced
// when force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	data, err := Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
