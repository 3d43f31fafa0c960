package db

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var DB *gorm.DB

// Connect opens the production postgres pool and stores it in DB.
func Connect(dsn, schemaName, logLevel string) *gorm.DB {
	if dsn == "" {
		log.Fatal("DATABASE_URL is empty")
	}

	d, err := Open(postgres.Open(dsn), schemaName, ParseLogLevel(logLevel))
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	sqlDB, err := d.DB()
	if err != nil {
		log.Fatal("Failed to get sql.DB: ", err)
	}

	// Punch and ping handlers are short; keep the pool modest.
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if schemaName != "" {
		if err := EnsureSchema(d, schemaName); err != nil {
			log.Fatal("Failed to ensure schema: ", err)
		}
	}

	DB = d
	log.Println("Connected to database")
	return d
}

// Open builds a gorm handle over any dialector. Tables are prefixed with
// schemaName when it is set. Driver errors are translated so that unique
// violations surface as gorm.ErrDuplicatedKey.
func Open(dialector gorm.Dialector, schemaName string, level logger.LogLevel) (*gorm.DB, error) {
	lg := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             100 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	d, err := gorm.Open(dialector, &gorm.Config{
		Logger:         lg,
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{TablePrefix: TablePrefix(schemaName)},
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return d, nil
}

// TablePrefix turns a postgres schema name into a gorm table prefix.
func TablePrefix(schemaName string) string {
	if schemaName == "" {
		return ""
	}
	return schemaName + "."
}

// ParseLogLevel maps a config string to a gorm log level. Unknown values
// fall back to Warn.
func ParseLogLevel(s string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// IsUniqueViolation reports whether err is a unique-constraint failure from
// either the translated gorm error or a raw pgx error.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	// sqlite, when the driver error is not translated
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
