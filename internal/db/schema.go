package db

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

func EnsureSchema(d *gorm.DB, schema string) error {
	return d.Exec(`CREATE SCHEMA IF NOT EXISTS ` + pq.QuoteIdentifier(schema)).Error
}

// TableName returns the physical table name gorm uses for model, including
// any schema prefix from the naming strategy.
func TableName(d *gorm.DB, model any) (string, error) {
	stmt := &gorm.Statement{DB: d}
	if err := stmt.Parse(model); err != nil {
		return "", err
	}
	return stmt.Schema.Table, nil
}
