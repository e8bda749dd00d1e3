package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// GetDefaults returns application default paths, checking environment variables first.
// A .env file in the working directory is loaded before the lookup; variables
// already set in the environment take precedence over it.
// Environment variables:
//   - POSTIFY_CONFIG_PATH: config file location (default: ~/.config/postify.toml)
//   - POSTIFY_HOME: base directory for postify data (default: ~/.local/share/postify)
func GetDefaults() (map[string]string, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// loadDotEnv loads path if it exists. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

func getConfigPath() (string, error) {
	if path := os.Getenv("POSTIFY_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "postify.toml"), nil
}

// getBaseDir follows the XDG layout unless POSTIFY_HOME is set.
func getBaseDir() (string, error) {
	if path := os.Getenv("POSTIFY_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "postify"), nil
}
