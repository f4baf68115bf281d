// wardenctl is the operational entry point for the warden access
// control engine: schema migration, system role reconciliation, and a
// long-running mode serving health and metrics endpoints with
// scheduled re-reconciliation.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/warden/pkg/config"
	"github.com/platinummonkey/warden/pkg/observability"
	"github.com/platinummonkey/warden/pkg/role"
	"github.com/platinummonkey/warden/pkg/storage"
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	switch flag.Arg(0) {
	case "migrate":
		if err := storage.RunMigrations(context.Background(), db); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		logger.Info("migrations applied")
	case "reconcile":
		if err := reconcile(context.Background(), db, logger, nil); err != nil {
			log.Fatalf("Reconciliation failed: %v", err)
		}
		logger.Info("system roles reconciled")
	case "serve":
		if err := serve(cfg, db, logger); err != nil {
			log.Fatalf("Serve failed: %v", err)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: wardenctl <command>

Commands:
  migrate     apply database schema migrations
  reconcile   create or repair system roles, then exit
  serve       reconcile, then serve health/metrics and run the
              reconcile schedule until interrupted

Configuration is read from WARDEN_* environment variables.
`)
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func reconcile(ctx context.Context, db *sql.DB, logger *observability.Logger, metrics *observability.Metrics) error {
	store := role.NewPostgresStore(db)
	reconciler := role.NewReconciler(store, role.DefaultBaseline(), logger, metrics)
	err := reconciler.Reconcile(ctx)
	if metrics != nil {
		status := "success"
		if err != nil {
			status = "failure"
		}
		metrics.ReconcileRunsTotal.WithLabelValues(status).Inc()
	}
	return err
}

func serve(cfg *config.Config, db *sql.DB, logger *observability.Logger) error {
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
		})
		defer redisClient.Close()
	}

	if err := reconcile(context.Background(), db, logger, metrics); err != nil {
		return fmt.Errorf("startup reconciliation: %w", err)
	}
	logger.Info("system roles reconciled")

	scheduler := cron.New()
	if cfg.Reconcile.Schedule != "" {
		_, err := scheduler.AddFunc(cfg.Reconcile.Schedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := reconcile(ctx, db, logger, metrics); err != nil {
				logger.WithError(err).Error("scheduled reconciliation failed")
			}
		})
		if err != nil {
			return fmt.Errorf("invalid reconcile schedule %q: %w", cfg.Reconcile.Schedule, err)
		}
		scheduler.Start()
		defer scheduler.Stop()
		logger.WithField("schedule", cfg.Reconcile.Schedule).Info("reconcile schedule started")
	}

	health := observability.NewHealthChecker(db, redisClient)
	router := mux.NewRouter()
	router.HandleFunc("/healthz", health.Liveness).Methods("GET")
	router.HandleFunc("/readyz", health.Readiness).Methods("GET")
	router.Handle("/metrics", observability.Handler(registry)).Methods("GET")

	server := &http.Server{
		Addr:         ":" + cfg.Observability.HealthPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", server.Addr).Info("ops server listening")
		errCh <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-sigChan:
		logger.WithField("signal", sig.String()).Info("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
