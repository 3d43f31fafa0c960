package auth

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

func Init(d *gorm.DB) {
	if err := Migrate(d); err != nil {
		log.Fatal("Failed to auto-migrate auth tables: ", err)
	}
}

func Migrate(d *gorm.DB) error {
	if err := d.AutoMigrate(&WorkerToken{}); err != nil {
		return fmt.Errorf("auto-migrate worker_tokens: %w", err)
	}
	return nil
}
