// Package seeds loads HR reference data and worker tokens from a YAML file.
package seeds

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fleetpunch/attendance-backend/internal/attendance"
	"github.com/fleetpunch/attendance-backend/internal/auth"
	"github.com/goccy/go-yaml"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultPath = "internal/seeds/data/fleet.yaml"

// File is the on-disk seed layout.
type File struct {
	Points  []attendance.Point  `yaml:"points"`
	Routes  []attendance.Route  `yaml:"routes"`
	Workers []attendance.Worker `yaml:"workers"`
	Tokens  []Token             `yaml:"tokens"`
}

type Token struct {
	Token     string `yaml:"token"`
	WorkerID  string `yaml:"worker_id"`
	Role      string `yaml:"role"`
	// ExpiresAt is RFC3339; empty means the token never expires.
	ExpiresAt string `yaml:"expires_at"`
}

// Counts is how many rows of each kind were upserted.
type Counts struct {
	Points, Routes, Workers, Tokens int
}

func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("could not read %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("failed to parse seed file: %w", err)
	}
	for _, w := range f.Workers {
		if strings.TrimSpace(w.ID) == "" {
			return File{}, fmt.Errorf("worker %q has no id", w.Name)
		}
	}
	return f, nil
}

// SeedAll upserts f. Existing rows are overwritten by id, so re-running the
// same file is harmless.
func SeedAll(d *gorm.DB, f File) (Counts, error) {
	err := d.Transaction(func(tx *gorm.DB) error {
		upsert := clause.OnConflict{UpdateAll: true}

		if len(f.Points) > 0 {
			if err := tx.Clauses(upsert).Create(&f.Points).Error; err != nil {
				return fmt.Errorf("failed to seed points: %w", err)
			}
		}
		if len(f.Routes) > 0 {
			if err := tx.Clauses(upsert).Create(&f.Routes).Error; err != nil {
				return fmt.Errorf("failed to seed routes: %w", err)
			}
		}
		if len(f.Workers) > 0 {
			if err := tx.Clauses(upsert).Create(&f.Workers).Error; err != nil {
				return fmt.Errorf("failed to seed workers: %w", err)
			}
		}

		for _, t := range f.Tokens {
			var exp *time.Time
			if t.ExpiresAt != "" {
				parsed, err := time.Parse(time.RFC3339, t.ExpiresAt)
				if err != nil {
					return fmt.Errorf("token for %s: invalid expires_at: %w", t.WorkerID, err)
				}
				exp = &parsed
			}
			if err := auth.Issue(tx, t.Token, t.WorkerID, t.Role, exp); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Counts{}, err
	}

	c := Counts{Points: len(f.Points), Routes: len(f.Routes), Workers: len(f.Workers), Tokens: len(f.Tokens)}
	log.Printf("✅ Seeded %d points, %d routes, %d workers, %d tokens", c.Points, c.Routes, c.Workers, c.Tokens)
	return c, nil
}
