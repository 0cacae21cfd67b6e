// CareBoard: infection-risk and nutrition board for long-term care facilities.
//
// The same binary runs the terminal dashboard, the model backend HTTP
// server (-serve) and one-shot CSV imports for scripted use.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/careboard/careboard/internal/client"
	"github.com/careboard/careboard/internal/config"
	"github.com/careboard/careboard/internal/database"
	"github.com/careboard/careboard/internal/database/seed"
	"github.com/careboard/careboard/internal/fixture"
	"github.com/careboard/careboard/internal/modeling"
	"github.com/careboard/careboard/internal/models"
	"github.com/careboard/careboard/internal/modelserver"
	"github.com/careboard/careboard/internal/repository"
	"github.com/careboard/careboard/internal/search"
	"github.com/careboard/careboard/internal/services/immune"
	"github.com/careboard/careboard/internal/services/nutrition"
	"github.com/careboard/careboard/internal/storage"
	"github.com/careboard/careboard/internal/tui"
	"github.com/careboard/careboard/internal/tui/views/importer"
	"github.com/careboard/careboard/internal/util"
)

// Build information (set via ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

type options struct {
	configPath      string
	migrateOnly     bool
	seedData        bool
	serve           bool
	debug           bool
	importImmune    string
	importNutrition string
	clear           string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&opts.migrateOnly, "migrate-only", false, "Run migrations and exit")
	flag.BoolVar(&opts.seedData, "seed", false, "Seed the resident registry and exit")
	flag.BoolVar(&opts.serve, "serve", false, "Run the model backend HTTP server")
	flag.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flag.StringVar(&opts.importImmune, "import-immune", "", "Run an immune CSV through the pipeline and exit")
	flag.StringVar(&opts.importNutrition, "import-nutrition", "", "Run a nutrition CSV through the pipeline and exit")
	flag.StringVar(&opts.clear, "clear", "", "Clear the stored batch for a model (immune|nutrition) and exit")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("CareBoard version %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		slog.Info("received shutdown signal", "signal", sig)
		cancel()

		// Force exit after timeout
		time.AfterFunc(10*time.Second, func() {
			slog.Error("forced shutdown after timeout")
			os.Exit(1)
		})
	}()

	if err := run(ctx, opts); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, cfgPath, err := config.Load(opts.configPath, true)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, closeLog, err := setupLogging(cfg, opts.debug)
	if err != nil {
		return err
	}
	defer closeLog()

	logger.Info("CareBoard starting",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cfgPath,
	)

	if opts.serve {
		return serve(ctx, cfg, logger)
	}

	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		logger.Info("closing database")
		if err := db.Close(); err != nil {
			logger.Error("error closing database", "error", err)
		}
	}()

	if opts.migrateOnly {
		logger.Info("migrations complete, exiting")
		return nil
	}

	gen, err := seed.NewGenerator(db.DB, logger)
	if err != nil {
		return fmt.Errorf("loading seed roster: %w", err)
	}
	n, err := gen.Generate(ctx)
	if err != nil {
		return fmt.Errorf("generating seed data: %w", err)
	}
	if opts.seedData {
		logger.Info("seed data generation complete", "residents", n)
		return nil
	}

	store, closeStore, err := openBatchStore(ctx, cfg, db, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	backend := client.New(cfg.Models.BaseURL, cfg.Models.Timeout(), logger)
	residents := repository.NewResidentRepository(db.DB)
	runs := repository.NewImportRunRepository(db.DB)
	catalog, err := fixture.LoadCatalog()
	if err != nil {
		return fmt.Errorf("loading care catalog: %w", err)
	}

	pipeline := modeling.NewPipeline(backend, store, modeling.Config{
		MaxRows:              cfg.Models.MaxBatchRows,
		NutritionConcurrency: cfg.Models.NutritionConcurrency,
		Recorder:             runs,
		Logger:               logger,
	})

	if done, err := runOneShot(ctx, opts, pipeline); done {
		return err
	}

	deps := tui.Deps{
		Immune:    immune.NewService(residents, store, catalog, logger),
		Nutrition: nutrition.NewService(residents, store, catalog, logger),
		Pipeline:  pipeline,
		Batches:   store,
		Runs:      runs,
		Clock:     util.SystemClock{},
		Logger:    logger,
	}
	if cfg.Models.BaseURL != "" {
		deps.Health = backend
	}

	tui.Version = Version
	tui.BuildTime = BuildTime

	logger.Info("starting TUI", "facility", cfg.Facility.Name, "storage", cfg.Storage.Driver)

	if err := tui.Run(ctx, cfg, deps); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("CareBoard shutdown complete")
	return nil
}

func setupLogging(cfg *config.Config, debug bool) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	} else {
		switch cfg.Logging.Level {
		case config.LogLevelDebug:
			level = slog.LevelDebug
		case config.LogLevelWarn:
			level = slog.LevelWarn
		case config.LogLevelError:
			level = slog.LevelError
		}
	}

	logPath, err := config.EnsureLogDir(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	var handler slog.Handler
	closeLog := func() {}
	if logPath != "" {
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		closeLog = func() { logFile.Close() }
		handler = slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, closeLog, nil
}

func openDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*database.DB, error) {
	dbPath, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("ensuring data directory: %w", err)
	}

	backupDir, err := config.BackupDir(cfg)
	if err != nil {
		logger.Warn("failed to create backup directory", "error", err)
		backupDir = ""
	}

	if _, err := os.Stat(dbPath); err == nil {
		report, err := database.AttemptRecovery(dbPath, backupDir, logger)
		if err != nil {
			return nil, fmt.Errorf("database recovery failed: %w", err)
		}
		logRecovery(logger, report)
	}

	db, err := database.Open(dbPath, cfg.Database, backupDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	migrator, err := database.NewMigrator(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	result, err := migrator.MigrateUp(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	if len(result.Applied) > 0 {
		logger.Info("applied migrations",
			"count", len(result.Applied),
			"to_version", result.TargetVersion,
		)
	}
	return db, nil
}

// logRecovery reports how the database file was brought back to a usable
// state.
func logRecovery(logger *slog.Logger, report *database.RecoveryReport) {
	switch report.Result {
	case database.RecoveryHealthy:
		logger.Debug("database integrity verified", "path", report.Path)
	case database.RecoveryWALReplayed:
		logger.Warn("database repaired by replaying its WAL", "path", report.Path)
	case database.RecoveryFromBackup:
		logger.Warn("database restored from backup", "path", report.Path, "backup", report.BackupUsed)
	}
}

// openBatchStore returns the batch store for the configured driver and a
// function releasing any connection it holds.
func openBatchStore(ctx context.Context, cfg *config.Config, db *database.DB, logger *slog.Logger) (*storage.BatchStore, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverRedis:
		rc, err := storage.DialRedis(ctx, cfg.Storage.RedisAddr, cfg.Storage.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewBatchStore(storage.NewRedisKV(rc), logger), func() { rc.Close() }, nil
	default:
		return storage.NewBatchStore(storage.NewSQLiteKV(db.DB), logger), func() {}, nil
	}
}

// runOneShot handles the scripted import and clear flags. done reports
// whether one of them ran.
func runOneShot(ctx context.Context, opts options, pipeline *modeling.Pipeline) (done bool, err error) {
	var out importer.Outcome
	switch {
	case opts.importImmune != "":
		out = importer.Upload(ctx, pipeline, models.ModelImmune, opts.importImmune)
	case opts.importNutrition != "":
		out = importer.Upload(ctx, pipeline, models.ModelNutrition, opts.importNutrition)
	case opts.clear != "":
		out = importer.Clear(ctx, pipeline, models.ModelKind(opts.clear))
	default:
		return false, nil
	}

	fmt.Println(out.Message)
	if len(out.MissingHeaders) > 0 {
		fmt.Printf("missing headers: %v\n", out.MissingHeaders)
	}
	if !out.OK {
		return true, errors.New(out.Message)
	}
	return true, nil
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	registry := modelserver.NewRegistry(cfg.Server.GuidelinesPath, logger)

	searcher, err := search.New(search.Options{
		BaseURL:   cfg.Search.BaseURL,
		UserAgent: cfg.Search.UserAgent,
		MaxItems:  cfg.Search.MaxItems,
	}, search.NewCache(cfg.Search.CacheTTL()), logger)
	if err != nil {
		return fmt.Errorf("creating supplement search: %w", err)
	}

	srv := modelserver.New(modelserver.Options{
		Listen:      cfg.Server.Listen,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, registry, searcher, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down model server: %w", err)
	}
	logger.Info("model server stopped")
	return nil
}
