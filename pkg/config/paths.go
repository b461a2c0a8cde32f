package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the config directory when set.
const HomeEnv = "CHANNELHUB_HOME"

// ConfigDir returns the channelhub config directory: $CHANNELHUB_HOME if set,
// otherwise ~/.channelhub.
func ConfigDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".channelhub"), nil
}

// DefaultPath resolves a config file name such as "gateway.yaml".
// Absolute names are returned unchanged. Otherwise the first existing file
// among ./name, <dir>/configs/name and <dir>/name wins; when none exists the
// configs path is returned so callers can report where they looked.
func DefaultPath(name string) (string, error) {
	if filepath.IsAbs(name) {
		return name, nil
	}

	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}

	candidates := []string{
		name,
		filepath.Join(dir, "configs", name),
		filepath.Join(dir, name),
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return candidates[1], nil
}
