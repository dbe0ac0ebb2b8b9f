// Package credentials keeps studybot's secrets (Messenger tokens and backend
// passwords) out of config.toml, in a credentials.toml readable only by the
// owner.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/papercomputeco/studybot/pkg/dotdir"
)

const (
	credentialsFile = "credentials.toml"

	currentVersion = 0
)

// secret names a storable value and the config key it provides.
type secret struct {
	name      string
	configKey string
}

var registry = []secret{
	{name: "page-access-token", configKey: "messenger.page_access_token"},
	{name: "verify-token", configKey: "messenger.verify_token"},
	{name: "redis-password", configKey: "session.redis_password"},
	{name: "postgres-dsn", configKey: "storage.postgres_dsn"},
}

// Manager reads and writes credentials.toml in a .studybot/ directory.
type Manager struct {
	targetPath string
}

// NewManager resolves the .studybot/ directory the same way config does,
// with override taking precedence.
func NewManager(override string) (*Manager, error) {
	dir, err := dotdir.NewManager().Target(override)
	if err != nil {
		return nil, err
	}
	return &Manager{targetPath: filepath.Join(dir, credentialsFile)}, nil
}

// Load reads credentials.toml. A missing file yields empty Credentials.
func (m *Manager) Load() (*Credentials, error) {
	creds := &Credentials{Version: currentVersion}

	data, err := os.ReadFile(m.targetPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading credentials: %w", err)
	default:
		if err := toml.Unmarshal(data, creds); err != nil {
			return nil, fmt.Errorf("parsing credentials: %w", err)
		}
		if creds.Version > currentVersion {
			return nil, fmt.Errorf("unsupported credentials version %d (expected %d)", creds.Version, currentVersion)
		}
	}

	if creds.Secrets == nil {
		creds.Secrets = make(map[string]Secret)
	}
	return creds, nil
}

// Save replaces credentials.toml with creds. The file is written to a
// temporary sibling with 0600 permissions and renamed into place.
func (m *Manager) Save(creds *Credentials) error {
	if creds == nil {
		return errors.New("cannot save nil credentials")
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.targetPath), ".credentials-*.toml")
	if err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := toml.NewEncoder(tmp).Encode(creds); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}

	if err := os.Rename(tmp.Name(), m.targetPath); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

// update loads the credentials, applies fn and saves the result.
func (m *Manager) update(fn func(*Credentials)) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}
	fn(creds)
	return m.Save(creds)
}

// SetSecret stores a value for the named secret.
func (m *Manager) SetSecret(name, value string) error {
	if !IsSupportedSecret(name) {
		return fmt.Errorf("unsupported secret: %q", name)
	}
	return m.update(func(c *Credentials) {
		c.Secrets[name] = Secret{Value: value}
	})
}

// GetSecret returns the stored value of the named secret, or "" when nothing
// is stored.
func (m *Manager) GetSecret(name string) (string, error) {
	creds, err := m.Load()
	if err != nil {
		return "", err
	}
	return creds.Secrets[name].Value, nil
}

// RemoveSecret deletes a stored secret.
func (m *Manager) RemoveSecret(name string) error {
	return m.update(func(c *Credentials) {
		delete(c.Secrets, name)
	})
}

// ListSecrets returns the sorted names of the stored secrets.
func (m *Manager) ListSecrets() ([]string, error) {
	creds, err := m.Load()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(creds.Secrets))
	for name := range creds.Secrets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// ApplyTo fills every config key that is still empty in v with its stored
// secret. Flags, environment variables and config.toml values win.
func (m *Manager) ApplyTo(v *viper.Viper) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}

	for _, s := range registry {
		value := creds.Secrets[s.name].Value
		if value != "" && v.GetString(s.configKey) == "" {
			v.Set(s.configKey, value)
		}
	}
	return nil
}

// GetTarget returns the resolved path to the credentials file.
func (m *Manager) GetTarget() string {
	return m.targetPath
}

// ConfigKeyForSecret returns the config key a secret provides, or "" for
// unknown secrets.
func ConfigKeyForSecret(name string) string {
	for _, s := range registry {
		if s.name == name {
			return s.configKey
		}
	}
	return ""
}

// SupportedSecrets returns the names of the secrets that can be stored.
func SupportedSecrets() []string {
	names := make([]string, 0, len(registry))
	for _, s := range registry {
		names = append(names, s.name)
	}
	return names
}

// IsSupportedSecret reports whether name can be stored.
func IsSupportedSecret(name string) bool {
	return ConfigKeyForSecret(name) != ""
}
