// Package cli implements the ellie command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/ellie/internal/paths"
	"github.com/mesh-intelligence/ellie/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	backend   string
	jsonMode  bool
}

// app is the state shared by one command tree.
type app struct {
	flags     rootFlags
	configDir string
	settings  settings
}

// NewRootCmd creates the top-level "ellie" command with global flags and all
// subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "ellie",
		Short: "Track equipment checkouts",
		Long: "Ellie tracks who has which equipment: people check items out for a day,\n" +
			"check them back in, or hand them straight to someone else.",
		Version: Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.prepare,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.ellie)")
	pf.StringVar(&a.flags.backend, "backend", "", "storage backend: json, sqlite, bolt or memory (default: from config.yaml)")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newEquipmentCmd(a))
	root.AddCommand(newPeopleCmd(a))
	root.AddCommand(newCheckoutCmd(a))
	root.AddCommand(newCheckinCmd(a))
	root.AddCommand(newTransferCmd(a))
	root.AddCommand(newHistoryCmd(a))
	root.AddCommand(newOverdueCmd(a))
	root.AddCommand(newServeCmd(a))

	return root
}

// Run executes the command tree with args and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitCodeFor(err)
	}
	return exitSuccess
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

// prepare resolves directories and reads config.yaml before any subcommand
// runs.
func (a *app) prepare(cmd *cobra.Command, _ []string) error {
	switch cmd.Name() {
	case "version", "help", "completion":
		return nil
	}
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError{fmt.Errorf("resolve config dir: %w", err)}
	}
	s, err := loadSettings(configDir)
	if err != nil {
		return sysError{err}
	}
	if a.flags.backend != "" {
		s.Backend = a.flags.backend
	}
	s.DataDir, err = paths.ResolveDataDir(a.flags.dataDir, s.DataDir)
	if err != nil {
		return sysError{fmt.Errorf("resolve data dir: %w", err)}
	}
	if err := s.storage().Validate(); err != nil {
		return fmt.Errorf("backend %q: %w", s.Backend, err)
	}
	a.configDir = configDir
	a.settings = s
	return nil
}

// sysError marks failures of the environment rather than the request.
type sysError struct{ err error }

func (e sysError) Error() string { return e.err.Error() }
func (e sysError) Unwrap() error { return e.err }

// classify marks every error outside the user-facing kinds as a system error.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch types.KindOf(err) {
	case types.ErrValidation, types.ErrNotFound, types.ErrConflict:
		return err
	}
	var se sysError
	if errors.As(err, &se) {
		return err
	}
	return sysError{err}
}

// exitCodeFor maps a command error to an exit code. Usage mistakes caught by
// cobra and domain errors the user can fix exit 1; everything else exits 2.
func exitCodeFor(err error) int {
	var se sysError
	if errors.As(err, &se) {
		return exitSysError
	}
	return exitUserError
}

// runE adapts a command body so its errors are classified.
func runE(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return classify(fn(cmd, args))
	}
}
