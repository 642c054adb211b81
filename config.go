package spritecomp

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds engine settings and the persisted texture choices.
type Config struct {
	MaxWidth  int       `yaml:"max_width"`
	ExportDir string    `yaml:"export_dir"`
	Log       LogConfig `yaml:"log"`
	// Contributors maps contributor id to atlas key to the chosen option.
	Contributors map[string]map[string]TextureOption `yaml:"contributors,omitempty"`
}

// LogConfig configures NewLogger.
type LogConfig struct {
	Level string `yaml:"level"`
	// File, when set, routes output to a rotating log file.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.MaxWidth <= 0 {
		c.MaxWidth = DefaultMaxWidth
	}
	if c.ExportDir == "" {
		c.ExportDir = "export"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 10
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 28
	}
	if c.Contributors == nil {
		c.Contributors = make(map[string]map[string]TextureOption)
	}
}

// LoadConfig reads configuration from a YAML file. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("spritecomp: read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML configuration and applies defaults.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("spritecomp: parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// WriteConfig writes c to path as YAML.
func (c *Config) WriteConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("spritecomp: encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("spritecomp: write config: %w", err)
	}
	return nil
}

// textureOptions returns the persisted options for one contributor.
func (c *Config) textureOptions(contributor string) map[string]TextureOption {
	return c.Contributors[contributor]
}

// setTextureOption records the option for one atlas.
func (c *Config) setTextureOption(contributor, key string, opt TextureOption) {
	if c.Contributors == nil {
		c.Contributors = make(map[string]map[string]TextureOption)
	}
	m := c.Contributors[contributor]
	if m == nil {
		m = make(map[string]TextureOption)
		c.Contributors[contributor] = m
	}
	m[key] = opt
}
