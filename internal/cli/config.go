package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/ellie/internal/lifecycle"
	"github.com/mesh-intelligence/ellie/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// Config keys.
	cfgKeyBackend     = "backend"
	cfgKeyDataDir     = "data_dir"
	cfgKeyHTTPAddr    = "http_addr"
	cfgKeyLockTimeout = "lock_timeout"
	cfgKeyWriteRate   = "write_rate"
	cfgKeyWriteBurst  = "write_burst"

	defaultBackend    = types.BackendJSON
	defaultHTTPAddr   = "127.0.0.1:5000"
	defaultWriteRate  = 20.0
	defaultWriteBurst = 40
)

// settings is the effective configuration after flags, config.yaml and
// defaults are merged.
type settings struct {
	Backend     string
	DataDir     string
	HTTPAddr    string
	LockTimeout time.Duration
	WriteRate   float64
	WriteBurst  int
}

func (s settings) storage() types.Config {
	return types.Config{Backend: s.Backend, DataDir: s.DataDir}
}

// loadSettings reads config.yaml from configDir using Viper. It creates the
// directory and a default config.yaml on first run. A missing config.yaml is
// not an error.
func loadSettings(configDir string) (settings, error) {
	v, err := loadConfig(configDir)
	if err != nil {
		return settings{}, err
	}
	return settings{
		Backend:     v.GetString(cfgKeyBackend),
		DataDir:     v.GetString(cfgKeyDataDir),
		HTTPAddr:    v.GetString(cfgKeyHTTPAddr),
		LockTimeout: v.GetDuration(cfgKeyLockTimeout),
		WriteRate:   v.GetFloat64(cfgKeyWriteRate),
		WriteBurst:  v.GetInt(cfgKeyWriteBurst),
	}, nil
}

func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := writeConfigIfMissing(configPath(configDir)); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeyHTTPAddr, defaultHTTPAddr)
	v.SetDefault(cfgKeyLockTimeout, lifecycle.DefaultLockTimeout)
	v.SetDefault(cfgKeyWriteRate, defaultWriteRate)
	v.SetDefault(cfgKeyWriteBurst, defaultWriteBurst)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}
