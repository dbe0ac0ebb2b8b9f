package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/studybot/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

// Configer reads and writes config.toml inside a resolved .studybot/ directory.
// A zero Configer loads defaults and refuses to save.
type Configer struct {
	targetPath string
}

// NewConfiger resolves (and creates) the .studybot/ directory for override.
func NewConfiger(override string) (*Configer, error) {
	dir, err := dotdir.NewManager().Target(override)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, configFile)
	if _, err := os.Stat(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return &Configer{targetPath: path}, nil
}

// ValidConfigKeys returns every supported key in config.toml section order.
func ValidConfigKeys() []string {
	keys := make([]string, 0, len(keyRegistry))
	for _, k := range keyRegistry {
		keys = append(keys, k.name)
	}
	return keys
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig reads config.toml from the resolved directory. A missing file
// yields NewDefaultConfig(); keys left unset in the file take their defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	// Merge in defaults: fill in any zero-value fields from the loaded config
	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills every zero-valued key in cfg that has a non-zero default.
func applyDefaults(cfg *Config) {
	defaults := NewDefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}

	for _, k := range keyRegistry {
		if !isZero(k.value(cfg)) || isZero(k.value(defaults)) {
			continue
		}
		// Defaults always satisfy their own key's validation.
		_ = k.set(cfg, k.get(defaults))
	}
}

// SaveConfig persists the configuration to config.toml in the target .studybot/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	k, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := k.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	k, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return k.get(cfg), nil
}

// PresetConfig returns a Config with sane defaults for the named deployment preset.
// Supported presets: "local", "production".
// Returns an error if the preset name is not recognized.
func PresetConfig(name string) (*Config, error) {
	switch strings.ToLower(name) {
	case "local":
		cfg := NewDefaultConfig()
		cfg.Storage.Driver = "sqlite"
		cfg.Session.Provider = "memory"
		cfg.Events.Provider = "none"
		return cfg, nil

	case "production":
		cfg := NewDefaultConfig()
		cfg.Storage.Driver = "postgres"
		cfg.Storage.PostgresDSN = "postgres://studybot@localhost:5432/studybot?sslmode=disable"
		cfg.Session.Provider = "redis"
		cfg.Session.RedisAddr = "localhost:6379"
		cfg.Events.Provider = "kafka"
		cfg.Events.KafkaBrokers = "localhost:9092"
		cfg.Worker.NumWorkers = 16
		cfg.Worker.QueueSize = 1024
		return cfg, nil

	default:
		return nil, fmt.Errorf("unknown preset: %q (available: local, production)", name)
	}
}

// ValidPresetNames returns the list of recognized preset names.
func ValidPresetNames() []string {
	return []string{"local", "production"}
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentConfigVersion.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}
