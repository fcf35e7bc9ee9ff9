package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"userstore.backend/internal/config"
	"userstore.backend/internal/infrastructure/datasources"
	"userstore.backend/internal/infrastructure/models"
	"userstore.backend/pkg/logger"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	openStore  = datasources.NewConnection
)

// migrate creates the tables the service needs on the configured store.
func migrate(cfg *config.Config) error {
	store, err := openStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	tables := models.All()
	if err := datasources.EnsureSchema(store.DB, tables...); err != nil {
		return err
	}
	logger.Info(context.Background(), "Schema ready",
		zap.String("driver", store.Dialect.Name),
		zap.Int("tables", len(tables)),
	)
	return nil
}

func main() {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := loadCfg()
	logger.Init(cfg.Server.Env)

	if err := migrate(cfg); err != nil {
		log.Fatal(err)
	}
}
