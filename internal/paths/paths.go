// Package paths resolves where ellie keeps its config.yaml and its data.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "ellie"

// DefaultDataDirName is the data directory created under the working
// directory when no flag, config value or environment variable names one.
const DefaultDataDirName = ".ellie"

// Environment overrides.
const (
	EnvConfigDir = "ELLIE_CONFIG_DIR"
	EnvDataDir   = "ELLIE_DATA_DIR"
)

// platformDir is swapped out by tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir is $XDG_CONFIG_HOME/ellie or ~/.config/ellie on Linux and
// os.UserConfigDir()/ellie elsewhere.
func DefaultConfigDir() (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appName), nil
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// firstAbs returns the first non-empty candidate as an absolute path.
func firstAbs(candidates ...string) (string, bool, error) {
	for _, c := range candidates {
		if c != "" {
			abs, err := filepath.Abs(c)
			return abs, true, err
		}
	}
	return "", false, nil
}

// ResolveConfigDir picks the --config-dir flag, then ELLIE_CONFIG_DIR, then
// DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	if dir, ok, err := firstAbs(flag, os.Getenv(EnvConfigDir)); ok {
		return dir, err
	}
	return DefaultConfigDir()
}

// ResolveDataDir picks the --data-dir flag, then data_dir from config.yaml,
// then ELLIE_DATA_DIR, then .ellie under the working directory.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if dir, ok, err := firstAbs(flag, configYAMLValue, os.Getenv(EnvDataDir)); ok {
		return dir, err
	}
	return filepath.Abs(DefaultDataDirName)
}
