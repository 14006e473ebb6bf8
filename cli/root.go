// Package cli implements rosterctl, the command line front end of the
// roster planner. Commands work directly on the server's SQLite database.
package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/warp/roster-engine/config"
	"github.com/warp/roster-engine/factory"
	"github.com/warp/roster-engine/planner"
	"github.com/warp/roster-engine/store/sqlite"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	DBPath     string
	ConfigFile string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for rosterctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rosterctl",
		Short: "rosterctl - monthly duty roster planner",
		Long:  "Generate, check and export monthly duty rosters stored in the roster database.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags. Empty db/config fall back to ROSTER_DB_PATH and
	// ROSTER_CONFIG_FILE.
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "SQLite database path")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "roster configuration file (YAML or JSON)")

	// Add subcommands
	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewPrefsCommand(opts))

	return cmd
}

// session is an opened planner plus what it was built from.
type session struct {
	Planner *planner.Planner
	Setup   *factory.Setup
	close   func() error
}

func (s *session) Close() error { return s.close() }

// open loads the configuration and opens the database. Flags win over the
// environment.
func open(opts *RootOptions, stderr io.Writer) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load configuration", err)
	}
	if opts.DBPath != "" {
		cfg.DBPath = opts.DBPath
	}
	if opts.ConfigFile != "" {
		cfg.ConfigFile = opts.ConfigFile
	}
	cfg.LogLevel = "warn"
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}

	logger, err := cfg.NewLogger(stderr)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "configure logging", err)
	}
	setup, err := cfg.Setup()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load roster configuration", err)
	}
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open database", err)
	}
	logger.Debug("database opened", "path", cfg.DBPath, "members", len(setup.Members))

	popts := []planner.Option{planner.WithLogger(logger)}
	if cfg.StrictMembers {
		popts = append(popts, planner.WithStrictMembers())
	}
	return &session{
		Planner: planner.New(setup, store, popts...),
		Setup:   setup,
		close:   store.Close,
	}, nil
}

// withSession opens a session, runs fn and closes the session.
func withSession(opts *RootOptions, cmd *cobra.Command, fn func(s *session, out *OutputFormatter) error) error {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	s, err := open(opts, cmd.ErrOrStderr())
	if err != nil {
		return out.Fail(err)
	}
	defer s.Close()
	return out.Fail(fn(s, out))
}
