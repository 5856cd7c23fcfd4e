package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/tartampluch/remind-day/internal/config"
	"github.com/tartampluch/remind-day/internal/csvcodec"
	"github.com/tartampluch/remind-day/internal/datemath"
	"github.com/tartampluch/remind-day/internal/feed"
	"github.com/tartampluch/remind-day/internal/l10n"
	"github.com/tartampluch/remind-day/internal/notify"
	"github.com/tartampluch/remind-day/internal/reminder"
	"github.com/tartampluch/remind-day/internal/server"
	"github.com/tartampluch/remind-day/internal/store"
	"github.com/tartampluch/remind-day/internal/transfer"
	"github.com/tartampluch/remind-day/internal/vcf"
)

// options holds the parsed CLI flags.
type options struct {
	settingsPath string
	exportCSV    bool
	importCSV    string
	importVCF    string
	importURL    string
}

// main is the application entry point.
// It delegates execution to runMain to ensure that deferred function calls
// (like closing log files) are executed before the process terminates.
// os.Exit() does not run defers, so we must return an integer code first.
func main() {
	os.Exit(runMain())
}

// runMain manages the application lifecycle, argument parsing, and exit codes.
func runMain() int {
	showVersion := flag.Bool(config.FlagVersion, false, config.FlagDescVersion)
	debugMode := flag.Bool(config.FlagDebug, false, config.FlagDescDebug)

	var opts options
	flag.StringVar(&opts.settingsPath, config.FlagConfig, "", config.FlagDescConfig)
	flag.BoolVar(&opts.exportCSV, config.FlagExport, false, config.FlagDescExport)
	flag.StringVar(&opts.importCSV, config.FlagImport, "", config.FlagDescImport)
	flag.StringVar(&opts.importVCF, config.FlagImportVCF, "", config.FlagDescImportVCF)
	flag.StringVar(&opts.importURL, config.FlagImportURL, "", config.FlagDescImportURL)
	flag.Parse()

	if *showVersion {
		printVersion()
		return config.ExitCodeSuccess
	}

	logCloser := setupLogging(*debugMode)
	if logCloser != nil {
		defer func() {
			_ = logCloser.Close() // Best effort close
		}()
	}

	// Root context cancels on SIGINT (Ctrl+C) or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logStartupInfo()

	if err := run(ctx, opts); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}

	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return config.ExitCodeSuccess
}

// run wires the dependencies and dispatches either a one-shot transfer
// command or the long-running feed daemon.
func run(ctx context.Context, opts options) error {
	settingsPath := opts.settingsPath
	if settingsPath == "" {
		var err error
		settingsPath, err = config.DefaultSettingsPath()
		if err != nil {
			return err
		}
	}

	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		return err
	}

	dbPath := settings.DBPath
	if dbPath == "" {
		dbPath, err = config.DefaultDBPath()
		if err != nil {
			return err
		}
	}

	db, err := store.OpenSQLite(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	clock := datemath.RealClock{}
	translator := l10n.New(settings.Language)

	registrar := notify.NewCronRegistrar(clock, notify.LogSender{})
	scheduler := reminder.NewScheduler(clock, registrar, db, translator)

	svc := &transfer.Service{
		Store:     db,
		Scheduler: scheduler,
		Clock:     clock,
		Fetcher:   vcf.NewHTTPFetcher(),
	}

	if isOneShot(opts) {
		return runOneShot(ctx, opts, settings, svc)
	}
	return runDaemon(ctx, settings, db, registrar, scheduler, translator)
}

// isOneShot reports whether any transfer flag was given.
func isOneShot(opts options) bool {
	return opts.exportCSV || opts.importCSV != "" || opts.importVCF != "" || opts.importURL != ""
}

// runOneShot executes a single import or export and exits.
func runOneShot(ctx context.Context, opts options, settings *config.Settings, svc *transfer.Service) error {
	switch {
	case opts.exportCSV:
		dir := settings.ExportDir
		if dir == "" {
			dir = "."
		}
		path, err := svc.ExportAll(ctx, dir)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil

	case opts.importCSV != "":
		outcome, err := svc.ImportFile(ctx, opts.importCSV)
		reportOutcome(outcome)
		return err

	case opts.importVCF != "":
		outcome, err := svc.ImportVCardFile(ctx, opts.importVCF)
		reportOutcome(outcome)
		return err

	default:
		outcome, err := svc.ImportVCardURL(ctx, opts.importURL,
			settings.VCard.Username, settings.ResolvePassword())
		reportOutcome(outcome)
		return err
	}
}

// reportOutcome prints an import summary to stdout for the CLI user.
func reportOutcome(outcome transfer.Outcome) {
	fmt.Printf("imported: %d, failed: %d, schedule failures: %d\n",
		outcome.Imported, outcome.Failed, outcome.ScheduleFailures)
	for _, msg := range outcome.Errors() {
		fmt.Println(msg)
	}
}

// runDaemon schedules every stored reminder, publishes the feed documents
// and serves them until the context is cancelled.
func runDaemon(ctx context.Context, settings *config.Settings, db store.FullStore,
	registrar *notify.CronRegistrar, scheduler *reminder.Scheduler, translator *l10n.Translator) error {

	registrar.Start()
	defer registrar.Stop()

	records, err := db.GetAll(ctx)
	if err != nil {
		return err
	}
	scheduler.RescheduleAll(ctx, records)

	builder := &feed.Builder{
		Clock:           datemath.RealClock{},
		ReminderTrigger: settings.ReminderTrigger,
		FormatSummary:   translator.Summary,
	}
	srv := server.NewFeedServer(settings.Port)

	refresh := func() error {
		records, err := db.GetAll(ctx)
		if err != nil {
			return err
		}

		ics, _, err := builder.Build(ctx, records)
		if err != nil {
			return err
		}
		srv.UpdateCalendar(ics)

		rows := make([]csvcodec.Record, 0, len(records))
		for _, b := range records {
			rows = append(rows, csvcodec.Record{
				Name:             b.Name,
				BirthDate:        b.BirthDate,
				Note:             b.Note,
				NotificationTime: b.NotificationTime,
			})
		}
		srv.UpdateCSV(csvcodec.Encode(rows))
		return nil
	}

	if err := refresh(); err != nil {
		return err
	}

	go refreshWorker(ctx, time.Duration(settings.RefreshMinutes)*time.Minute, refresh)

	return srv.Start(ctx)
}

// refreshWorker periodically rebuilds the served documents so date rollovers
// and external database edits become visible without a restart.
func refreshWorker(ctx context.Context, interval time.Duration, refresh func() error) {
	slog.Info(config.MsgWorkerStart,
		config.LogKeyComponent, config.CompWorker,
		config.LogKeyInterval, interval.String(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info(config.MsgWorkerStop, config.LogKeyComponent, config.CompWorker)
			return
		case <-ticker.C:
			if err := refresh(); err != nil {
				slog.Error(config.MsgRefreshFailed,
					config.LogKeyComponent, config.CompWorker,
					config.LogKeyError, err,
				)
				continue
			}
			slog.Debug(config.MsgRefreshDone, config.LogKeyComponent, config.CompWorker)
		}
	}
}

// printVersion outputs the build information to stdout.
func printVersion() {
	fmt.Printf(config.MsgVersionOutput,
		config.AppName,
		config.Version,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// logStartupInfo logs environment details useful for debugging.
func logStartupInfo() {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging configures the default slog logger.
func setupLogging(debugMode bool) io.Closer {
	var writers []io.Writer
	var logFile *os.File

	// 1. Always write to Stdout.
	writers = append(writers, os.Stdout)

	// 2. Attempt to set up a file writer in the user's cache directory.
	if logPath, err := getLogFilePath(); err == nil {
		// O_TRUNC resets logs on restart to prevent indefinite growth.
		f, err := os.OpenFile(logPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
		if err == nil {
			writers = append(writers, f)
			logFile = f
		} else {
			fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrLogFile, logPath, err)
		}
	}

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}

	logger := slog.New(slog.NewJSONHandler(io.MultiWriter(writers...), opts))
	slog.SetDefault(logger)

	if logFile == nil {
		return nil
	}
	return logFile
}

// getLogFilePath determines the platform-specific cache directory for logs.
func getLogFilePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCacheDir, err)
	}

	appDir := filepath.Join(cacheDir, config.AppID)

	// Ensure the directory exists with restricted permissions (700).
	if err := os.MkdirAll(appDir, config.DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}

	return filepath.Join(appDir, config.LogFileName), nil
}
