package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/taxi-dispatch/internal/config"
	"github.com/example/taxi-dispatch/internal/dispatch"
	"github.com/example/taxi-dispatch/internal/drivers"
	httpapi "github.com/example/taxi-dispatch/internal/http"
	"github.com/example/taxi-dispatch/internal/ingest"
	"github.com/example/taxi-dispatch/internal/ledger"
	"github.com/example/taxi-dispatch/internal/logging"
	"github.com/example/taxi-dispatch/internal/models"
	"github.com/example/taxi-dispatch/internal/registry"
	"github.com/example/taxi-dispatch/internal/storage"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.NewLogger(cfg.LogLevel)

	if cfg.PGDSN != "" && cfg.RunMigrations {
		if err := runMigrations(cfg.PGDSN); err != nil {
			logger.Error("migration_failed", "error", err)
		}
	}

	reg := registry.New(logging.ForComponent(logger, "registry"))
	ldg := ledger.New(cfg.RejectionLimit, logging.ForComponent(logger, "ledger"))

	var archive dispatch.Archive = storage.NewMemoryArchive()
	if cfg.PGDSN != "" {
		pg, err := storage.NewPostgresArchive(cfg.PGDSN)
		if err != nil {
			logger.Error("postgres_unavailable", "error", err)
		} else {
			archive = pg
			defer pg.Close()
		}
	}

	var journal dispatch.Journal
	if len(cfg.KafkaBrokers) > 0 {
		kj := ingest.NewKafkaJournal(cfg.KafkaBrokers, cfg.KafkaTopic)
		journal = kj
		defer kj.Close()
	}

	var mirror drivers.Mirror
	if cfg.RedisAddr != "" {
		rm := drivers.NewRedisMirror(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisGeoKey)
		mirror = rm
		defer rm.Close()
	}

	center := models.Coord{Lat: cfg.CityCenterLat, Lng: cfg.CityCenterLng}
	pool := drivers.NewPool(center, cfg.DriverUpdateInterval, mirror, logging.ForComponent(logger, "drivers"))
	pool.Generate(cfg.DriverCount)
	pool.Start()
	defer pool.Stop()

	coord := &dispatch.Coordinator{
		Conns:   reg,
		Ledger:  ldg,
		Pool:    pool,
		Journal: journal,
		Archive: archive,
		Logger:  logging.ForComponent(logger, "dispatch"),
	}

	sweeper := registry.NewSweeper(reg, cfg.SweepInterval, cfg.IdleThreshold, logging.ForComponent(logger, "sweeper"))
	sweeper.Start()
	defer sweeper.Stop()

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewServer(cfg, logger, reg, ldg, coord, pool),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting_down")

	reg.Broadcast(models.KindAll, models.ShutdownNotice{
		Type:      models.TypeServerShutdown,
		Message:   "Server is shutting down",
		Timestamp: time.Now(),
	})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_failed", "error", err)
	}
}

// runMigrations applies the rides table schema when MIGRATE=true, for
// local runs where no migration tooling is in front of the binary.
func runMigrations(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	b, err := os.ReadFile(filepath.Join("migrations", "001_create_rides.sql"))
	if err != nil {
		return err
	}
	_, err = db.Exec(string(b))
	return err
}
