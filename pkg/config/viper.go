package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/studybot/pkg/dotdir"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "STUDYBOT"

// InitViper returns a viper instance layered, lowest first, as:
//
//  1. NewDefaultConfig()
//  2. config.toml in the resolved .studybot/ directory, when present
//  3. STUDYBOT_* environment variables (STUDYBOT_SESSION_REDIS_ADDR for session.redis_addr)
//  4. cobra flags, once bound with BindRegisteredFlags
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()
	setViperDefaults(v)

	target, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	if target != "" {
		v.AddConfigPath(target)
	}
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &viper.ConfigFileNotFoundError{}) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers the typed default of every registry key.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()
	v.SetDefault("version", d.Version)
	for _, k := range keyRegistry {
		v.SetDefault(k.name, k.value(d))
	}
}

// defaultsViper holds only the defaults, for flag registration.
func defaultsViper() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}
