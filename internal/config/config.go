// Package config loads anvil settings from ~/.anvil/config.yaml and the
// environment.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. ANVIL_DEFAULTS_NETWORK=false.
const EnvPrefix = "ANVIL"

// Config represents the anvil configuration.
type Config struct {
	Defaults Defaults `mapstructure:"defaults"`
	Output   string   `mapstructure:"output"`
	Libvirt  Libvirt  `mapstructure:"libvirt"`
}

// Defaults are used when a command line flag or task field is not set.
type Defaults struct {
	Network        bool   `mapstructure:"network"`
	SELinuxRelabel bool   `mapstructure:"selinux_relabel"`
	Checksum       string `mapstructure:"checksum"`
}

// Libvirt configures the connection used for pool:volume references and
// the in-use guard.
type Libvirt struct {
	Socket     string        `mapstructure:"socket"`
	Timeout    time.Duration `mapstructure:"timeout"`
	CheckInUse bool          `mapstructure:"check_in_use"`
}

// Load reads cfgFile, or config.yaml in ConfigDir when cfgFile is empty.
// A missing default file yields the defaults; an explicit cfgFile must
// exist.
func Load(cfgFile string) (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return load(cfgFile, dir)
}

func load(cfgFile, configDir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		path, err := homedir.Expand(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("failed to expand config path %s: %w", cfgFile, err)
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("defaults.network", true)
	v.SetDefault("defaults.selinux_relabel", false)
	v.SetDefault("defaults.checksum", "md5")
	v.SetDefault("output", "table")
	v.SetDefault("libvirt.socket", "/var/run/libvirt/libvirt-sock")
	v.SetDefault("libvirt.timeout", "5s")
	v.SetDefault("libvirt.check_in_use", true)
}

// Validate checks the settings that cannot be checked by their consumers
// before a session starts.
func (c *Config) Validate() error {
	switch c.Output {
	case "table", "yaml", "json":
	default:
		return fmt.Errorf("invalid output %q (valid: table, yaml, json)", c.Output)
	}
	if c.Libvirt.Timeout < 0 {
		return fmt.Errorf("libvirt.timeout must not be negative, got %s", c.Libvirt.Timeout)
	}
	if c.Defaults.Checksum == "" {
		return fmt.Errorf("defaults.checksum is required")
	}
	return nil
}

// ConfigDir returns the anvil configuration directory path.
func ConfigDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	return filepath.Join(home, ".anvil"), nil
}
