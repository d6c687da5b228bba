package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/tbordasch/befriends/docs"
	"github.com/tbordasch/befriends/internal/activity"
	"github.com/tbordasch/befriends/internal/bet"
	"github.com/tbordasch/befriends/internal/config"
	"github.com/tbordasch/befriends/internal/db"
	"github.com/tbordasch/befriends/internal/logger"
	"github.com/tbordasch/befriends/internal/notify"
	"github.com/tbordasch/befriends/internal/points"
	"github.com/tbordasch/befriends/internal/server"
	"github.com/tbordasch/befriends/internal/user"
	"github.com/tbordasch/befriends/internal/vote"
)

// @title BeFriends API
// @version 1.0
// @description Social wagering between friends: bets, votes and a points ledger.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	logger.Info("Starting BeFriends application")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, "migrations"); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	notifier := notify.New(
		cfg.EmailFrom,
		cfg.EmailFromName,
		cfg.SMTPHost,
		cfg.SMTPPort,
		cfg.SMTPUser,
		cfg.SMTPPass,
		cfg.RedisAddr,
	)
	defer notifier.Close()
	logger.Info("Notification service initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go notifier.Start(ctx)

	betRepo := bet.NewRepository(database)
	voteRepo := vote.NewRepository(database)
	pointsRepo := points.NewRepository(database)
	activityRepo := activity.NewRepository(database)
	userRepo := user.NewRepository(database)

	voteService := vote.NewService(voteRepo, betRepo, pointsRepo, activityRepo, userRepo, notifier)
	sweeper := vote.NewSweeper(voteService, betRepo, voteRepo, cfg.SweepInterval)
	go sweeper.Start(ctx)

	srv := server.New(database, cfg, notifier)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(cfg.Port); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
