// Package main is the entry point for the wallet engine. It wires the
// database, cache and services, starts the background reconciliation loops,
// and serves the HTTP API until interrupted.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"custora/internal/config"
	"custora/internal/repositories"
	"custora/internal/repositories/cache"
	"custora/internal/routes"
	"custora/internal/services/deposit"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	config.LoadEnv()

	log := logrus.New()
	if config.IsProduction() {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetLevel(logrus.DebugLevel)
	}

	db, err := repositories.InitDB(repositories.DefaultDBConfig())
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	log.Info("connected to database")

	redisClient := cache.NewRedisClient(&cache.RedisConfig{
		Host:     config.GetEnv("REDIS_HOST", "localhost"),
		Port:     config.GetEnv("REDIS_PORT", "6379"),
		Password: config.GetEnv("REDIS_PASSWORD", ""),
		DB:       config.GetIntEnv("REDIS_DB", 0),
	})
	cacheService := cache.NewCacheService(redisClient, config.GetDurationEnv("CACHE_TTL", 5*time.Minute))
	defer func() {
		if err := cacheService.Close(); err != nil {
			log.WithError(err).Warn("failed to close redis connection")
		}
	}()

	app := fiber.New(fiber.Config{
		AppName: "custora",
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Webhook-Signature",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	services := routes.SetupRoutes(app, db, cacheService, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background loops share the server's lifetime.
	poller := deposit.NewPoller(services.Deposit, services.Exchange, deposit.PollerConfig{
		Interval: config.GetDurationEnv("DEPOSIT_POLL_INTERVAL", time.Minute),
		Lookback: config.GetDurationEnv("DEPOSIT_LOOKBACK", 24*time.Hour),
	}, log)
	go poller.Run(ctx)
	go runPrincipalRelease(ctx, services, log)
	go runWithdrawalSweep(ctx, services, log)

	go func() {
		addr := ":" + config.GetEnv("PORT", "3000")
		if err := app.Listen(addr); err != nil {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Warn("shutdown incomplete")
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.WithError(err).Warn("failed to close database connection")
		}
	}
}

// runPrincipalRelease periodically unlocks matured principal transfers.
func runPrincipalRelease(ctx context.Context, services *routes.Services, log *logrus.Logger) {
	interval := config.GetDurationEnv("PRINCIPAL_RELEASE_INTERVAL", time.Hour)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			released, err := services.Transfer.ReleaseMatured(ctx)
			if err != nil {
				log.WithError(err).Error("principal release pass failed")
				continue
			}
			if released > 0 {
				log.WithField("released", released).Info("matured principal unlocked")
			}
		}
	}
}

// runWithdrawalSweep cancels pending withdrawals past their deadline.
func runWithdrawalSweep(ctx context.Context, services *routes.Services, log *logrus.Logger) {
	interval := config.GetDurationEnv("WITHDRAWAL_SWEEP_INTERVAL", 5*time.Minute)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept, err := services.Withdrawal.SweepExpired(ctx)
			if err != nil {
				log.WithError(err).Error("withdrawal sweep failed")
				continue
			}
			if swept > 0 {
				log.WithField("swept", swept).Info("expired withdrawals cancelled")
			}
		}
	}
}
