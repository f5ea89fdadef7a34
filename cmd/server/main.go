package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/bodega55/fototrack/internal/config"
	"github.com/bodega55/fototrack/internal/ingest"
	"github.com/bodega55/fototrack/internal/ledger"
	"github.com/bodega55/fototrack/internal/persistence"
	"github.com/bodega55/fototrack/internal/report"
	"github.com/bodega55/fototrack/internal/repository"
	"github.com/bodega55/fototrack/internal/storage"
	"github.com/bodega55/fototrack/internal/tracker"
	"github.com/bodega55/fototrack/internal/web"
	"github.com/bodega55/fototrack/pkg/database"
	"github.com/bodega55/fototrack/pkg/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting warehouse photo tracking service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Create data directories
	for _, dir := range []string{
		cfg.Paths.DataDir,
		cfg.Paths.MediaDir,
		cfg.Paths.LogsDir,
		cfg.Paths.ReportJSONDir,
		cfg.Paths.ReportHTMLDir,
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("Failed to create directory",
				zap.String("dir", dir),
				zap.Error(err))
		}
	}

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	historyRepo := repository.NewHistoryRepository(db.DB, logger)

	// Load the persisted ledger
	snapshots := persistence.NewSnapshotStore(cfg.Paths.ConfirmationsFile, cfg.Paths.ReturnsFile, logger)
	pending, confirmed, returns := snapshots.Load()
	store := ledger.NewStoreFrom(pending, confirmed, returns)

	logger.Info("Ledger loaded",
		zap.Int("pending", len(pending)),
		zap.Int("confirmed", len(confirmed)),
		zap.Int("returns", len(returns)))

	reports := report.NewGenerator(cfg.Paths.ReportJSONDir, cfg.Paths.ReportHTMLDir, cfg.Paths.MediaDir, logger)
	engine := tracker.NewEngine(store, snapshots, reports, historyRepo, logger)

	// Today's report reflects the loaded state before any traffic arrives
	engine.RegenerateReport()

	processor := ingest.NewProcessor(
		engine,
		storage.NewMediaStore(cfg.Paths.MediaDir, logger),
		storage.NewMessageLog(cfg.Paths.LogsDir, logger),
		ingest.NewHTTPFetcher(cfg.Transport.MediaURL, cfg.Transport.Timeout, logger),
		cfg.Groups.Allowed,
		cfg.Groups.Confirmation,
		logger,
	)

	server := web.NewServer(web.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, engine, processor, cfg.Paths.MediaDir, cfg.Paths.ReportHTMLDir, logger)

	// Run until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
