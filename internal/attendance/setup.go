package attendance

import (
	"log"

	"gorm.io/gorm"
)

func Init(d *gorm.DB) {
	if err := Migrate(d); err != nil {
		log.Fatal("Failed to migrate attendance tables: ", err)
	}
}
