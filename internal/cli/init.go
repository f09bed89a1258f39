package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/ellie/internal/lifecycle"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend     string        `yaml:"backend"`
	DataDir     string        `yaml:"data_dir,omitempty"`
	HTTPAddr    string        `yaml:"http_addr"`
	LockTimeout time.Duration `yaml:"lock_timeout"`
	WriteRate   float64       `yaml:"write_rate"`
	WriteBurst  int           `yaml:"write_burst"`
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize ellie storage",
		Long:  "Create configuration and data directories, then initialize the storage backend.",
		Args:  cobra.NoArgs,
		RunE:  runE(a.runInit),
	}
}

func (a *app) runInit(cmd *cobra.Command, _ []string) error {
	svc, done, err := a.openService(cmd)
	if err != nil {
		return err
	}
	defer done()

	if err := svc.Init(cmd.Context()); err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Ellie initialized successfully")
	fmt.Fprintln(out, "  config: ", a.configDir)
	fmt.Fprintln(out, "  backend:", a.settings.Backend)
	fmt.Fprintln(out, "  data:   ", svc.Location())
	return nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. If it already exists, the function returns nil.
func writeConfigIfMissing(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	cfg := configFile{
		Backend:     defaultBackend,
		HTTPAddr:    defaultHTTPAddr,
		LockTimeout: lifecycle.DefaultLockTimeout,
		WriteRate:   defaultWriteRate,
		WriteBurst:  defaultWriteBurst,
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# ellie configuration\n")
	return os.WriteFile(path, append(header, data...), 0o644)
}

// configPath returns the config.yaml location inside configDir.
func configPath(configDir string) string {
	return filepath.Join(configDir, configFileExt)
}
