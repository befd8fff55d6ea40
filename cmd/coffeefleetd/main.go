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

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/parvatipole/Final-Coffee-Manager-proversion/config"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/access"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/api"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/auth"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/db"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/fleet"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/mw"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/notification"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/seed"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/store"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/telemetry"
)

const limiterIdle = 10 * time.Minute

func main() {
	configPath := flag.String("config", "", "path to the configuration file")
	flag.Parse()
	if *configPath == "" {
		*configPath = os.Getenv("CONFIG_PATH")
	}
	if *configPath == "" {
		*configPath = "./config/config.yaml"
	}

	cfg := config.MustLoad(*configPath)

	log := setupLogger(cfg.Env)
	log.Info("starting coffee fleet service", slog.String("env", cfg.Env), slog.String("config", *configPath))

	if err := run(cfg, log); err != nil {
		log.Error("service stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("server gracefully stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Init(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Info("database initialized", slog.String("driver", cfg.Database.Driver))

	users := store.NewUserStore(gormDB)
	machines := store.NewMachineStore(gormDB)
	subs := store.NewSubscriptionStore(gormDB)

	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	issuer, err := auth.NewIssuer(users, hasher, cfg.Auth, log)
	if err != nil {
		return fmt.Errorf("failed to create session issuer: %w", err)
	}

	if cfg.Seed.Enabled {
		fixture, err := seed.Load(cfg.Seed.Path)
		if err != nil {
			return err
		}
		if _, err := seed.NewSeeder(users, machines, hasher, log).Run(ctx, fixture); err != nil {
			return fmt.Errorf("failed to seed database: %w", err)
		}
	}

	var webpushOptions *webpush.Options
	var notifier fleet.Notifier
	if cfg.Push.Enabled {
		if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
			return errors.New("push is enabled but the VAPID keys are not configured")
		}
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, subs, webpushOptions, log)
		pool.Start(ctx)
		notifier = pool
	} else {
		log.Warn("push notifications disabled")
	}

	engine := access.NewEngine(machines)
	fleetSvc := fleet.NewService(machines, engine, notifier, cfg.Alerts.LowSupplyThreshold, log)

	go telemetry.NewService(cfg.Telemetry, fleetSvc, log).Run(ctx)

	limiter := mw.NewIPRateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)
	signinLimiter := mw.NewIPRateLimiter(rate.Limit(cfg.Server.SigninRateLimitPerMin/60), max(1, int(cfg.Server.SigninRateLimitPerMin)))
	go limiter.Cleanup(ctx, time.Minute, limiterIdle)
	go signinLimiter.Cleanup(ctx, time.Minute, limiterIdle)

	if cfg.Env == config.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := api.NewHandler(issuer, engine, fleetSvc, subs, webpushOptions, log)
	router := api.NewRouter(handler, issuer, api.RouterOptions{
		Limiter:       limiter,
		SigninLimiter: signinLimiter,
		CacheTTL:      time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
		Log:           log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", slog.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server: %w", err)
	case <-ctx.Done():
	}
	log.Info("shutdown signal received, stopping services")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	return nil
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case config.EnvLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case config.EnvDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}
	return log
}
