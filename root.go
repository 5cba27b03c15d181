package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ghive/ghive/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagEnvFile    string
	flagStateDB    string
	flagVerbose    bool
	flagQuiet      bool
)

// resolvedCfg holds the validated configuration loaded by PersistentPreRunE.
var resolvedCfg *config.Config

// Log format names accepted by logging.log_format.
const (
	logFormatAuto = "auto"
	logFormatJSON = "json"
)

// skipConfigCommands lists commands that load config themselves without
// validation: they must work before credentials are in place.
var skipConfigCommands = map[string]bool{
	"ghive config show": true,
	"ghive history":     true,
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ghive",
		Short:   "Accept pending Google Drive ownership transfers",
		Long:    "Accepts Google Drive ownership transfers offered to a service account, within configured owner and folder allow-lists.",
		Version: version,
		// Errors are printed once, by exitOnError.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipConfigCommands[cmd.CommandPath()] {
				return nil
			}

			return loadConfig(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "dotenv file to load (default ./.env if present)")
	cmd.PersistentFlags().StringVar(&flagStateDB, "state-db", "", "ledger database path")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "only log errors")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newFoldersCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// cliOverrides collects the flags that take part in config layering. Only
// flags the user actually set override lower layers.
func cliOverrides(cmd *cobra.Command) config.CLIOverrides {
	cli := config.CLIOverrides{
		ConfigPath: flagConfigPath,
		EnvFile:    flagEnvFile,
	}

	if cmd.Flags().Changed("state-db") {
		cli.StateDB = &flagStateDB
	}

	return cli
}

// loadConfig resolves and validates the effective configuration and stores
// it in resolvedCfg for use by subcommands.
func loadConfig(cmd *cobra.Command) error {
	cli := cliOverrides(cmd)

	if err := config.LoadEnvFile(cli.EnvFile); err != nil {
		return err
	}

	cfg, err := config.Resolve(config.ReadEnvOverrides(), cli)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	resolvedCfg = cfg

	return nil
}

// mergeConfig layers the configuration like loadConfig but skips validation.
func mergeConfig(cmd *cobra.Command) (*config.Config, error) {
	cli := cliOverrides(cmd)

	if err := config.LoadEnvFile(cli.EnvFile); err != nil {
		return nil, err
	}

	cfg, err := config.Merge(config.ReadEnvOverrides(), cli)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return cfg, nil
}

// buildLogger creates the process logger on stderr. Config sets the
// baseline level and format; --verbose and --quiet override the level.
func buildLogger(cfg *config.Config) *slog.Logger {
	tty := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())

	return newLogger(os.Stderr, cfg, tty)
}

func newLogger(w io.Writer, cfg *config.Config, tty bool) *slog.Logger {
	level := slog.LevelInfo
	format := logFormatAuto

	if cfg != nil {
		// Validated already; an unparsable level keeps info.
		_ = level.UnmarshalText([]byte(cfg.Logging.LogLevel))
		format = cfg.Logging.LogFormat
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	// Scheduled runs write to CI logs: JSON unless a person is watching.
	if format == logFormatJSON || (format == logFormatAuto && !tty) {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// newHTTPClient returns an HTTP client bounded by network.timeout.
func newHTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.Timeout()}
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
