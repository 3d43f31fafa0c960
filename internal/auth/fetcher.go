package auth

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/fleetpunch/attendance-backend/internal/middleware"
	"github.com/fleetpunch/attendance-backend/internal/utils"
	"golang.org/x/crypto/blake2b"
	"gorm.io/gorm"
)

var ErrTokenNotFound = errors.New("token not found")

// HashToken is the stored form of a bearer token.
func HashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// TokenInfo resolves bearer tokens against worker_tokens.
type TokenInfo struct {
	DB *gorm.DB
}

func (ti TokenInfo) FindWorkerByToken(token string) (utils.TokenData, error) {
	var wt WorkerToken

	err := ti.DB.First(&wt, "token_hash = ?", HashToken(token)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.TokenData{}, ErrTokenNotFound
	}
	if err != nil {
		return utils.TokenData{}, fmt.Errorf("lookup token: %w", err)
	}

	return utils.TokenData{
		WorkerID:  wt.WorkerID,
		Role:      wt.Role,
		ExpiresAt: wt.ExpiresAt,
	}, nil
}

// Issue stores a token for workerID. Re-issuing the same token replaces its
// owner, role and expiry.
func Issue(d *gorm.DB, token, workerID, role string, expiresAt *time.Time) error {
	if role == "" {
		role = RoleWorker
	}
	wt := WorkerToken{
		TokenHash: HashToken(token),
		WorkerID:  workerID,
		Role:      role,
		ExpiresAt: expiresAt,
	}
	if err := d.Save(&wt).Error; err != nil {
		return fmt.Errorf("issue token for %s: %w", workerID, err)
	}
	return nil
}

var _ middleware.TokenResolver = TokenInfo{}
