package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crucial707/trade-tracker/internal/access"
	"github.com/crucial707/trade-tracker/internal/apperr"
	"github.com/crucial707/trade-tracker/internal/config"
	"github.com/crucial707/trade-tracker/internal/db"
	"github.com/crucial707/trade-tracker/internal/export"
	"github.com/crucial707/trade-tracker/internal/handlers"
	"github.com/crucial707/trade-tracker/internal/lifecycle"
	"github.com/crucial707/trade-tracker/internal/memstore"
	"github.com/crucial707/trade-tracker/internal/models"
	"github.com/crucial707/trade-tracker/internal/repo"
	"github.com/crucial707/trade-tracker/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogger(cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	guard, err := access.FromName(cfg.AccessPolicy)
	if err != nil {
		return err
	}

	var (
		store lifecycle.Store
		users handlers.UserStore
		ping  pinger
	)
	switch cfg.StoreDriver {
	case config.DriverMemory:
		mem := memstore.New()
		store, users, ping = mem, mem, mem
		slog.Warn("using in-memory store; data is lost on restart")
	default:
		// Connect to database FIRST
		database, err := db.Connect(ctx, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass,
			db.PoolOptions{MaxOpenConns: cfg.DBMaxOpenConns, MaxIdleConns: cfg.DBMaxIdleConns})
		if err != nil {
			return err
		}
		defer database.Close()
		slog.Info("connected to database", "host", cfg.DBHost, "name", cfg.DBName)

		if err := db.Run(cfg.DatabaseURL()); err != nil {
			return err
		}
		if v, dirty, err := db.Version(cfg.DatabaseURL()); err == nil {
			slog.Info("schema ready", "version", v, "dirty", dirty)
		}
		pg := repo.NewStore(database)
		store, users, ping = pg, repo.NewUserRepo(database), pg
	}

	if err := promoteSuperintendent(ctx, users, cfg.BootstrapSuperintendent); err != nil {
		return err
	}

	engine := lifecycle.New(store, guard, lifecycle.WithLogger(slog.Default()))
	slog.Info("access policy", "policy", guard.Name())

	exporter, err := newExporter(ctx, cfg, engine)
	if err != nil {
		return err
	}

	if cfg.ReportSchedule != "" {
		sweeper := scheduler.NewSweeper(engine, slog.Default())
		go func() {
			if err := scheduler.Run(ctx, cfg.ReportSchedule, sweeper); err != nil {
				slog.Error("scheduler stopped", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(deps{Engine: engine, Users: users, Store: ping, Exporter: exporter}, cfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "port", cfg.Port, "tls", cfg.TLSCertFile != "", "store", cfg.StoreDriver)
		if cfg.TLSCertFile != "" {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupLogger(format string) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

// promoteSuperintendent grants the superintendent role to the named account.
// Registration only ever creates technicians, so this is how the first
// superintendent comes to exist. A name that is not registered yet is logged
// and skipped.
func promoteSuperintendent(ctx context.Context, users handlers.UserStore, username string) error {
	if username == "" {
		return nil
	}
	u, err := users.GetUserByUsername(ctx, username)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			slog.Warn("bootstrap superintendent not registered yet", "username", username)
			return nil
		}
		return err
	}
	if u.Role == models.RoleSuperintendent {
		return nil
	}
	if _, err := users.SetRole(ctx, u.ID, models.RoleSuperintendent); err != nil {
		return err
	}
	slog.Info("promoted bootstrap superintendent", "user_id", u.ID, "username", username)
	return nil
}

// newExporter picks the S3 sink when a bucket is configured and the local
// directory otherwise.
func newExporter(ctx context.Context, cfg config.Config, engine *lifecycle.Engine) (*export.Exporter, error) {
	if cfg.ExportS3Bucket != "" {
		sink, err := export.NewS3Sink(ctx, cfg.ExportS3Bucket, cfg.ExportS3Prefix, cfg.ExportS3Region)
		if err != nil {
			return nil, err
		}
		slog.Info("audit export to s3", "bucket", cfg.ExportS3Bucket, "prefix", cfg.ExportS3Prefix)
		return export.New(engine, sink), nil
	}
	slog.Info("audit export to directory", "dir", cfg.ExportDir)
	return export.New(engine, export.FileSink{Dir: cfg.ExportDir}), nil
}
