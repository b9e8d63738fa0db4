package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/anishLS3/Placify-sub001/internal/api/routes"
	"github.com/anishLS3/Placify-sub001/internal/cache"
	"github.com/anishLS3/Placify-sub001/internal/config"
	"github.com/anishLS3/Placify-sub001/internal/database"
	"github.com/anishLS3/Placify-sub001/internal/eventbus"
	"github.com/anishLS3/Placify-sub001/internal/logger"
	"github.com/anishLS3/Placify-sub001/internal/metrics"
	"github.com/anishLS3/Placify-sub001/internal/models"
	"github.com/anishLS3/Placify-sub001/internal/realtime"
	"github.com/anishLS3/Placify-sub001/internal/scheduler"
	"github.com/anishLS3/Placify-sub001/internal/server"
	"github.com/anishLS3/Placify-sub001/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log().Fatalf("load config: %v", err)
	}

	// Setup logging with rotation
	logDir := cfg.LogDir
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		// Fallback to local directory (e.g. local dev without /app/data)
		logDir = "data/logs"
		_ = os.MkdirAll(logDir, 0o755)
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "placify.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	logger.Init(cfg.Debug, io.MultiWriter(os.Stdout, rotator))
	log := logger.Component("main")

	// Handle CLI commands
	if len(os.Args) > 1 && os.Args[1] == "reset-password" {
		if len(os.Args) != 4 {
			log.Fatalf("Usage: %s reset-password <email> <new-password>", os.Args[0])
		}
		if err := resetPassword(cfg, os.Args[2], os.Args[3]); err != nil {
			log.Fatal(err)
		}
		log.Infof("Password updated successfully for user %s", os.Args[2])
		return
	}

	log.Infof("starting %s %s", version.Name, version.Full())

	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var stats cache.StatsCache = cache.Noop{}
	if cfg.Cache.RedisURL != "" {
		redisCache, client, err := cache.Connect(ctx, cfg.Cache.RedisURL, cfg.Cache.StatsTTL)
		if err != nil {
			// Dashboards fall back to direct counts.
			log.WithError(err).Warn("redis unavailable, stats cache disabled")
		} else {
			defer client.Close()
			stats = redisCache
		}
	}

	bus := eventbus.New(eventbus.Options{QueueSize: cfg.Events.QueueSize, Logger: logger.Component("eventbus")})
	svc := routes.NewServices(db, cfg, bus, stats)

	if cfg.AdminEmail != "" {
		if _, created, err := svc.Auth.EnsureAdmin(cfg.AdminEmail, cfg.AdminPassword, "Administrator"); err != nil {
			log.WithError(err).Error("failed to bootstrap admin account")
		} else if created {
			log.WithField("email", cfg.AdminEmail).Info("created admin account")
		}
	}

	hub := realtime.NewHub(realtime.Options{})
	hub.Subscribe(bus)
	svc.Notifications.Subscribe(bus)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(registry)

	jobs := scheduler.New()
	if cfg.Audit.PurgeSchedule != "" {
		if _, err := jobs.AddAuditPurge(cfg.Audit.PurgeSchedule, cfg.Audit.Retention, svc.Audit); err != nil {
			log.Fatalf("schedule audit purge: %v", err)
		}
	}
	jobs.Start()

	srv := server.New(routes.Deps{
		DB:       db,
		Config:   cfg,
		Services: svc,
		Hub:      hub,
		Stats:    stats,
		Registry: registry,
	})
	log.Infof("listening on :%s", cfg.HTTPPort)
	runErr := srv.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := jobs.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("scheduled jobs did not finish")
	}
	hub.Close()
	if err := bus.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("event bus did not drain")
	}
	svc.Notifications.Wait()

	if runErr != nil {
		log.Fatalf("server error: %v", runErr)
	}
	log.Info("shutdown complete")
}

func resetPassword(cfg config.Config, email, newPassword string) error {
	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		return err
	}

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return err
	}
	if err := user.SetPassword(newPassword); err != nil {
		return err
	}

	// Unlock account if locked
	user.LockedUntil = nil
	user.FailedLoginAttempts = 0
	return db.Save(&user).Error
}
