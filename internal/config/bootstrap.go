package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnsureUserConfig makes sure the data dir holds a config.yml, seeding it
// from defaultPath when that file exists or from built-in defaults
// otherwise. Returns the path to the user config.
func EnsureUserConfig(dataDir string, defaultPath string) (string, error) {
	userPath := filepath.Join(dataDir, "config.yml")

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	src, err := os.ReadFile(defaultPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		var def Config
		def.applyDefaults()
		if src, err = yaml.Marshal(def); err != nil {
			return "", err
		}
	}

	if err := os.WriteFile(userPath, src, 0o644); err != nil {
		return "", err
	}
	return userPath, nil
}
