package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/systmms/dbpassrotate/internal/config"
	dserrors "github.com/systmms/dbpassrotate/internal/errors"
	"github.com/systmms/dbpassrotate/internal/history"
	"github.com/systmms/dbpassrotate/internal/logging"
	"github.com/systmms/dbpassrotate/internal/metrics"
)

// Summary lines printed after the loop
const (
	MessageErrors          = "There were some errors, please check logs."
	MessageStopped         = "The process stopped due to 'ignore_errors' property is set false"
	MessageCompleted       = "DB password change completed successfully."
	MessageCompletedErrors = "DB password change completed with errors."
)

// PasswordUpdater changes the password of one user on one database
type PasswordUpdater interface {
	UpdatePassword(ctx context.Context, connURL, username, password, newPassword string) error
}

// Result is what happened to a single database
type Result struct {
	Database  string
	Attempted bool
	Success   bool
	Err       error
	Duration  time.Duration

	// message is Err with both passwords redacted
	message string
}

// Message returns the error text safe for logs and history
func (r Result) Message() string {
	if r.message != "" || r.Err == nil {
		return r.message
	}
	return r.Err.Error()
}

// Outcome aggregates a whole run
type Outcome struct {
	Results      []Result
	Success      bool
	StopOnError  bool
	StoppedEarly bool
}

// Options wires a Runner. Updater is required;
// Out defaults to stdout and Metrics and History are optional.
type Options struct {
	Settings *config.Settings
	Updater  PasswordUpdater
	Logger   *logging.Logger
	Out      io.Writer
	Metrics  *metrics.RotationMetrics
	History  history.Storage
	Now      func() time.Time
}

// Runner drives the per-database loop of a rotation event
type Runner struct {
	settings *config.Settings
	updater  PasswordUpdater
	logger   *logging.Logger
	out      io.Writer
	metrics  *metrics.RotationMetrics
	history  history.Storage
	now      func() time.Time
}

// New creates a Runner from opts
func New(opts Options) *Runner {
	r := &Runner{
		settings: opts.Settings,
		updater:  opts.Updater,
		logger:   opts.Logger,
		out:      opts.Out,
		metrics:  opts.Metrics,
		history:  opts.History,
		now:      opts.Now,
	}
	if r.out == nil {
		r.out = os.Stdout
	}
	if r.logger == nil {
		r.logger = logging.New(false, true)
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Run applies req to every database in order and prints the summary.
// Per-database failures are logged and recorded, never returned.
func (r *Runner) Run(ctx context.Context, req *Request) *Outcome {
	outcome := &Outcome{
		Success:     true,
		StopOnError: !r.settings.IgnoreErrors(),
	}

	for _, db := range req.Databases {
		result := r.processDatabase(ctx, db, req)
		outcome.Results = append(outcome.Results, result)
		r.record(req, result)

		if !result.Success {
			outcome.Success = false
			if outcome.StopOnError {
				outcome.StoppedEarly = true
				break
			}
		}
	}

	r.printSummary(outcome)
	r.metrics.RecordRun(outcome.Success, r.now())
	return outcome
}

func (r *Runner) processDatabase(ctx context.Context, db string, req *Request) Result {
	r.printMessage("")
	r.printMessage(fmt.Sprintf("Is about to change password for db '%s' and user '%s'", db, req.Username))

	result := Result{Database: db}
	r.logPreviousAttempt(db)

	connURL, ok := r.settings.ConnectionURL(db)
	if !ok {
		result.Err = dserrors.ConfigError{
			Field:      config.ConnectionURLKey(db),
			Message:    "connection url is not set",
			Suggestion: fmt.Sprintf("Add %s=jdbc:<vendor>:... to the settings file", config.ConnectionURLKey(db)),
		}
		r.logger.Error("Connection url for DB '%s' must be specified", db)
		return result
	}

	password, err := req.Password.Reveal()
	if err != nil {
		result.Err = fmt.Errorf("failed to open password: %w", err)
		r.logger.Error("%s", result.Err)
		return result
	}
	newPassword, err := req.NewPassword.Reveal()
	if err != nil {
		result.Err = fmt.Errorf("failed to open new password: %w", err)
		r.logger.Error("%s", result.Err)
		return result
	}

	result.Attempted = true
	start := r.now()
	err = r.updater.UpdatePassword(ctx, connURL, req.Username, password, newPassword)
	result.Duration = r.now().Sub(start)

	if err != nil {
		result.Err = err
		result.message = logging.Redact(err.Error(), []string{password, newPassword})
		r.logger.Error("An error while running change password query: %s", result.message)
		return result
	}

	result.Success = true
	r.logger.Debug("Password changed for db '%s' in %s", db, result.Duration)
	return result
}

// logPreviousAttempt shows the last recorded attempt for db in debug mode
func (r *Runner) logPreviousAttempt(db string) {
	if r.history == nil || !r.logger.DebugEnabled() {
		return
	}
	entries, err := r.history.GetHistory(db, 1)
	if err != nil || len(entries) == 0 {
		return
	}
	last := entries[0]
	r.logger.Debug("Previous attempt for db '%s' at %s: %s", db, last.Timestamp.Format(time.RFC3339), last.Status)
}

func (r *Runner) record(req *Request, result Result) {
	r.metrics.RecordChange(result.Database, result.Success, result.Duration)

	if r.history == nil {
		return
	}
	entry := &history.HistoryEntry{
		Timestamp: r.now(),
		Database:  result.Database,
		Username:  req.Username,
		Status:    history.StatusSuccess,
		Duration:  result.Duration,
	}
	if !result.Success {
		entry.Status = history.StatusFailed
		entry.Error = result.Message()
	}
	if err := history.Record(r.history, entry); err != nil {
		r.logger.Warn("Failed to record rotation history for db '%s': %v", result.Database, err)
	}
}

func (r *Runner) printSummary(outcome *Outcome) {
	r.printMessage("")
	if !outcome.Success {
		r.printMessage(MessageErrors)
		if outcome.StopOnError {
			r.printMessage(MessageStopped)
		}
	}
	if outcome.Success || !outcome.StopOnError {
		if outcome.Success {
			r.printMessage(MessageCompleted)
		} else {
			r.printMessage(MessageCompletedErrors)
		}
	}
}

// printMessage writes msg to the console and repeats non-empty lines in the log
func (r *Runner) printMessage(msg string) {
	fmt.Fprintln(r.out, msg)
	if msg != "" {
		r.logger.Info("%s", msg)
	}
}
