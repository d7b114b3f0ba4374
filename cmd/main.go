// Package main provides the CLI entrypoint for subhunt.
// The root command runs a discovery; migrate and history manage the optional
// subdomain inventory. It loads configuration and initializes logging before
// any command runs.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"subhunt/internal/config"
	"subhunt/pkg/logger"
	"subhunt/pkg/serrors"
	"subhunt/pkg/storage/postgres"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitPanic   = 2
)

// flags holds every command line flag. Commands read them after cobra parsed
// the arguments.
type flags struct {
	config      string
	domain      string
	output      string
	complete    bool
	verbose     bool
	store       bool
	timeout     time.Duration
	logFile     string
	metricsFile string
}

// app carries the state shared by the commands of one process.
type app struct {
	flags flags
	cfg   *config.Config
	// ctx is the run context with the runID attached once setup ran.
	ctx         context.Context //nolint: containedctx
	closeLogger func()
}

// reportedError marks an error that has already been logged.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// fail logs err under msg and returns it marked as reported.
func (a *app) fail(ctx context.Context, msg string, err error) error {
	logger.Error(ctx, msg,
		zap.String("kind", serrors.KindOf(err).Error()),
		zap.Error(err))

	return &reportedError{err: err}
}

// setup loads the configuration, applies flag overrides and installs the
// logger. It runs before every command.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.flags.config)
	if err != nil {
		return err //nolint: wrapcheck
	}

	f := cmd.Flags()
	if f.Changed("timeout") {
		cfg.CrtSh.Timeout = a.flags.timeout
	}
	if f.Changed("log-file") {
		cfg.Log.File = a.flags.logFile
	}
	if f.Changed("metrics-file") {
		cfg.Metrics.Textfile = a.flags.metricsFile
	}
	if f.Changed("store") {
		cfg.Database.Enabled = a.flags.store
	}

	closeLogger, err := logger.Setup(cfg.Environment, logger.Options{
		Verbose: a.flags.verbose,
		File:    cfg.Log.File,
	})
	if err != nil {
		return fmt.Errorf("could not setup logger: %w", err)
	}

	a.cfg = cfg
	a.closeLogger = closeLogger
	a.ctx = logger.WithFields(cmd.Context(), zap.Stringer("runID", uuid.New()))
	cmd.SetContext(a.ctx)

	return nil
}

func (a *app) close() {
	if a.closeLogger != nil {
		a.closeLogger()
	}
}

// newPostgres creates a PostgreSQL client using configuration values and returns it
// along with a cleanup function to close the connection pool.
func newPostgres(ctx context.Context, cfg *config.Config) (*postgres.PgSQL, func(), error) {
	pgsql, err := postgres.New(ctx, postgres.Options{
		Username:           cfg.Database.Username,
		Password:           cfg.Database.Password,
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		Database:           cfg.Database.DatabaseName,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime:    cfg.Database.ConnMaxIdleTime,
		MaxOpenConnections: cfg.Database.MaxOpenConnections,
		MaxIdleConnections: cfg.Database.MaxIdleConnections,
		SslMode:            cfg.Database.SslMode,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not create postgres storage: %w", err)
	}

	return pgsql, func() {
		logger.Debug(ctx, "closing postgres client...")
		if err := pgsql.Close(); err != nil {
			logger.Warn(ctx, "could not close postgres connection", zap.Error(err))
		}
	}, nil
}

func (a *app) rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "subhunt -d <domain>",
		Short:             "Discovers subdomains through certificate transparency logs",
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.discover,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.flags.config, "config", "c", "config.yml", "Config File Path")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "Log debug messages to the console")
	pf.StringVar(&a.flags.logFile, "log-file", "", "Log file path, truncated on every run (overrides config)")

	f := rootCmd.Flags()
	f.StringVarP(&a.flags.domain, "domain", "d", "", "Target domain, e.g. example.com")
	f.StringVarP(&a.flags.output, "output", "o", "", "Write the sorted subdomains to this file")
	f.BoolVar(&a.flags.complete, "complete", false, "Include expired certificates")
	f.DurationVar(&a.flags.timeout, "timeout", 0, "Upper bound for the crt.sh request, 0 waits indefinitely (overrides config)")
	f.StringVar(&a.flags.metricsFile, "metrics-file", "", "Write run metrics in the Prometheus textfile format (overrides config)")
	f.BoolVar(&a.flags.store, "store", false, "Record the discovery in the inventory database (overrides config)")
	_ = rootCmd.MarkFlagRequired("domain")

	rootCmd.AddCommand(
		a.migrateCommand(),
		a.historyCommand(),
	)

	return rootCmd
}

// exitCode maps the outcome of a command to the process exit code. Errors that
// were not logged yet are printed to stderr.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var reported *reportedError
	if !errors.As(err, &reported) {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
	}

	return exitFailure
}

// run executes the command tree built by newRoot with args and returns the
// process exit code. A panic anywhere below is logged and turned into exitPanic.
func run(args []string, newRoot func(*app) *cobra.Command) (code int) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{ctx: ctx}
	defer a.close()

	defer func() {
		if p := recover(); p != nil {
			if a.closeLogger == nil {
				_, _ = fmt.Fprintf(os.Stderr, "captured panic, exiting: %v\n", p)
			}
			logger.Critical(a.ctx, "captured panic, exiting...", zap.Any("panic", p))
			code = exitPanic
		}
	}()

	rootCmd := newRoot(a)
	rootCmd.SetArgs(args)

	return exitCode(rootCmd.ExecuteContext(ctx))
}

func main() {
	os.Exit(run(os.Args[1:], (*app).rootCommand))
}
