package auth

import "time"

// WorkerToken is an issued bearer token. Only the hash is stored.
type WorkerToken struct {
	TokenHash string     `gorm:"primaryKey;size:64" json:"-"`
	WorkerID  string     `gorm:"size:64;not null;index" json:"worker_id"`
	Role      string     `gorm:"size:16;not null" json:"role"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

const RoleWorker = "worker"
