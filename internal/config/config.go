package config

import (
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the full configuration structure
type Config struct {
	Image     ImageConfig     `mapstructure:"image" yaml:"image"`
	Runtime   RuntimeConfig   `mapstructure:"runtime" yaml:"runtime"`
	Convert   ConvertConfig   `mapstructure:"convert" yaml:"convert"`
	Container ContainerConfig `mapstructure:"container" yaml:"container"`
}

// ImageConfig configures the NWChem image
type ImageConfig struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Tag      string `mapstructure:"tag" yaml:"tag"`
	SkipPull bool   `mapstructure:"skip_pull" yaml:"skip_pull"`
}

// RuntimeConfig selects how the container runtime is driven
type RuntimeConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"` // cli, api
	Binary  string `mapstructure:"binary" yaml:"binary"`   // used by the cli backend
}

// ConvertConfig configures input deck conversion
type ConvertConfig struct {
	TargetExtension string `mapstructure:"target_extension" yaml:"target_extension"`
	MountTarget     string `mapstructure:"mount_target" yaml:"mount_target"`
}

// ContainerConfig configures container runtime settings
type ContainerConfig struct {
	MemoryLimit string `mapstructure:"memory_limit" yaml:"memory_limit"` // e.g., "4g"
	Network     string `mapstructure:"network" yaml:"network"`           // bridge, none, host
}

// LoadConfig loads configuration from viper with defaults
func LoadConfig() *Config {
	setDefaults()

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		// Return defaults on error
		return defaultConfig()
	}

	if cfg.Image.Tag == "" {
		cfg.Image.Tag = DefaultTag
	}

	return cfg
}

// Render returns cfg as a YAML document suitable for a config file.
func Render(cfg *Config) (string, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return "# nwchemctl configuration\n\n" + string(out), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

func setDefaults() {
	// Image defaults
	viper.SetDefault("image.name", DefaultImage)
	viper.SetDefault("image.tag", DefaultTag)
	viper.SetDefault("image.skip_pull", false)

	// Runtime defaults
	viper.SetDefault("runtime.backend", BackendCLI)
	viper.SetDefault("runtime.binary", DefaultRuntimeBinary)

	// Conversion defaults
	viper.SetDefault("convert.target_extension", DefaultTargetExtension)
	viper.SetDefault("convert.mount_target", DefaultMountTarget)

	// Container defaults
	viper.SetDefault("container.memory_limit", "")
	viper.SetDefault("container.network", "")
}

func defaultConfig() *Config {
	return &Config{
		Image: ImageConfig{
			Name: DefaultImage,
			Tag:  DefaultTag,
		},
		Runtime: RuntimeConfig{
			Backend: BackendCLI,
			Binary:  DefaultRuntimeBinary,
		},
		Convert: ConvertConfig{
			TargetExtension: DefaultTargetExtension,
			MountTarget:     DefaultMountTarget,
		},
	}
}
