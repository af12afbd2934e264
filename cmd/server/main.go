package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/teiftn/facture/internal/config"
	"github.com/teiftn/facture/internal/db"
	"github.com/teiftn/facture/internal/server"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()

	log := newLogger(cfg.App.Dev())
	defer func() { _ = log.Sync() }()

	dbConn, err := db.Connect(cfg.App.DatabaseDSN)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}

	if *migrateOnlyFlag {
		if err := db.RunSQLMigrations(cfg.App.DatabaseDSN, cfg.App.MigrationsDir); err != nil {
			log.Fatal("sql migrations", zap.Error(err))
		}
		log.Info("migrations completed")
		return
	}

	// Versioned SQL migrations in production, AutoMigrate in development.
	if cfg.App.Migrations {
		if err := db.RunSQLMigrations(cfg.App.DatabaseDSN, cfg.App.MigrationsDir); err != nil {
			log.Fatal("sql migrations", zap.Error(err))
		}
	} else if err := db.AutoMigrate(dbConn); err != nil {
		log.Fatal("automigrate", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      server.New(dbConn, log),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}

func newLogger(dev bool) *zap.Logger {
	if dev {
		log, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return log
	}
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return log
}
