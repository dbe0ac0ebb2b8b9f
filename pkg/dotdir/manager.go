// Package dotdir manages the .studybot/ and ~/.studybot directories, which
// hold config.toml, credentials.toml and the default SQLite database.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DirName is the name of the studybot directory.
	DirName = ".studybot"

	// HomeEnv names a directory used in place of ~/.studybot.
	HomeEnv = "STUDYBOT_HOME"

	// DatabaseFile is the default SQLite database name inside the directory.
	DatabaseFile = "studybot.sqlite"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path of the .studybot/ directory to use,
// creating it when missing. Precedence:
//  1. overrideDir
//  2. ./.studybot/ when it exists
//  3. $STUDYBOT_HOME
//  4. ~/.studybot/
func (m *Manager) Target(overrideDir string) (string, error) {
	dir, err := m.Resolve(overrideDir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating studybot directory %s: %w", dir, err)
	}

	return dir, nil
}

// Resolve applies the same precedence as Target without touching the
// filesystem beyond a stat of ./.studybot/.
func (m *Manager) Resolve(overrideDir string) (string, error) {
	if overrideDir != "" {
		return filepath.Abs(overrideDir)
	}

	local, err := m.Local()
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(local); err == nil && info.IsDir() {
		return local, nil
	}

	if home := os.Getenv(HomeEnv); home != "" {
		return filepath.Abs(home)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// Local returns ./.studybot/ under the current working directory, whether or
// not it exists.
func (m *Manager) Local() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return filepath.Join(cwd, DirName), nil
}

// DatabasePath returns the default SQLite database path inside the resolved
// directory.
func (m *Manager) DatabasePath(overrideDir string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DatabaseFile), nil
}
