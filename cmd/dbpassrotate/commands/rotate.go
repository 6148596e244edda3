package commands

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"github.com/systmms/dbpassrotate/internal/config"
	dserrors "github.com/systmms/dbpassrotate/internal/errors"
	"github.com/systmms/dbpassrotate/internal/history"
	"github.com/systmms/dbpassrotate/internal/logging"
	"github.com/systmms/dbpassrotate/internal/metrics"
	"github.com/systmms/dbpassrotate/internal/runner"
	"github.com/systmms/dbpassrotate/internal/updater"
)

var (
	// ErrRotationFailed is returned with --fail-on-error when any database failed
	ErrRotationFailed = errors.New("password change completed with errors")

	// HelpRequested is returned after the usage text was printed on request
	HelpRequested = dserrors.UsageError{Message: "help requested"}
)

// UpdaterFactory builds the password updater once settings are known
type UpdaterFactory func(timeout time.Duration, logger *logging.Logger) runner.PasswordUpdater

// DefaultUpdater connects through the registered database/sql drivers
func DefaultUpdater(timeout time.Duration, logger *logging.Logger) runner.PasswordUpdater {
	return updater.New(updater.WithTimeout(timeout), updater.WithLogger(logger))
}

// NewRootCommand creates the dbpassrotate command
func NewRootCommand(cfg *config.Config, newUpdater UpdaterFactory) *cobra.Command {
	var (
		configFile  string
		logFile     string
		noColor     bool
		debug       bool
		failOnError bool
	)

	if newUpdater == nil {
		newUpdater = DefaultUpdater
	}

	cmd := &cobra.Command{
		Use:   "dbpassrotate [flags] {username} {password} {new_password} [db_names]",
		Short: "Change a database user's password across configured databases",
		Long: `dbpassrotate connects to each configured database with the current
credentials and changes the user's password to the new one.

Connection urls are read from the settings file as <db_name>_connection_url.
Supported vendors: oracle, postgresql, sqlserver, mysql.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 3 || len(args) > 4 {
				return dserrors.UsageError{Message: "expected {username} {password} {new_password} [db_names]"}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.Path = configFile
			cfg.Logger = logging.New(debug, noColor)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			defer func() { _ = cfg.Logger.Close() }()

			outcome, err := runRotate(cmd, cfg, newUpdater, logFile, args)
			if err != nil {
				return err
			}
			if failOnError && !outcome.Success {
				return ErrRotationFailed
			}
			return nil
		},
	}

	// Flags end at the username, so passwords and db_names may start with '-'
	cmd.Flags().SetInterspersed(false)

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return dserrors.UsageError{Message: err.Error()}
	})

	cmd.Flags().StringVar(&configFile, "config", "settings.properties", "Settings file (.properties, .yaml or .yml)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Append log output to this file (overrides log_file)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "Exit with status 2 when any database failed")

	return cmd
}

func runRotate(cmd *cobra.Command, cfg *config.Config, newUpdater UpdaterFactory, logFile string, args []string) (*runner.Outcome, error) {
	logger := cfg.Logger

	loadErr := cfg.Load()
	if loadErr != nil {
		cfg.Settings = config.NewSettings(nil)
	}

	if logFile == "" {
		logFile = cfg.Settings.LogFile()
	}
	if logFile != "" {
		if err := logger.OpenFile(logFile); err != nil {
			logger.Warn("%v, logging to stderr", err)
		}
	}

	// The run continues without settings, so every database reports a missing url
	if loadErr != nil {
		logger.Error("An error loading properties: %v", dserrors.SimplifyError(loadErr))
	}

	username := args[0]
	dbArg, given := "", len(args) > 3
	if given {
		dbArg = args[3]
	}
	databases := runner.ResolveDatabaseNames(dbArg, given, cfg.Settings)
	logger.Debug("Rotating %d database(s) from %s", len(databases), cfg.Path)

	req, err := runner.NewRequest(username, args[1], args[2], databases)
	if err != nil {
		return nil, err
	}
	defer req.Destroy()

	opts := runner.Options{
		Settings: cfg.Settings,
		Updater:  newUpdater(cfg.Settings.ConnectTimeout(), logger),
		Logger:   logger,
		Out:      cmd.OutOrStdout(),
	}

	metricsFile := cfg.Settings.MetricsFile()
	if metricsFile != "" {
		opts.Metrics = metrics.NewRotationMetrics()
	}
	if dir := cfg.Settings.HistoryDir(); dir != "" {
		opts.History = history.NewFileStorage(dir)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	outcome := runner.New(opts).Run(ctx, req)

	if opts.Metrics != nil {
		if err := opts.Metrics.WriteTextfile(metricsFile); err != nil {
			logger.Warn("%v", err)
		}
	}

	return outcome, nil
}

// Execute runs cmd with args. Help requests print the usage text and are
// reported as a UsageError, as are malformed command lines.
func Execute(ctx context.Context, cmd *cobra.Command, args []string) error {
	if len(args) > 0 && IsHelpArgument(args[0]) {
		PrintUsage(cmd, cmd.OutOrStdout())
		return HelpRequested
	}

	helpRequested := false
	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		helpRequested = true
		PrintUsage(c, c.OutOrStdout())
	})

	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		var usageErr dserrors.UsageError
		if errors.As(err, &usageErr) {
			PrintUsage(cmd, cmd.OutOrStdout())
		}
		return err
	}
	if helpRequested {
		return HelpRequested
	}
	return nil
}
