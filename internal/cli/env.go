package cli

import (
	"fmt"

	"github.com/fleetpunch/attendance-backend/internal/config"
	"github.com/fleetpunch/attendance-backend/internal/db"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

// connect loads .env.local and the environment, then opens the database.
func connect() (config.Config, *gorm.DB, error) {
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}

	return cfg, db.Connect(cfg.DatabaseURL, cfg.Schema, cfg.SQLLogLevel), nil
}
