package utils

import (
	"context"
	"time"
)

type contextKey string

const (
	ContextWorkerIDKey contextKey = "workerID"
	ContextRoleKey     contextKey = "role"
)

const RoleAdmin = "admin"

// TokenData is what a bearer token resolves to.
type TokenData struct {
	WorkerID  string
	Role      string
	ExpiresAt *time.Time
}

func GetWorkerIDFromContext(ctx context.Context) (string, bool) {
	workerID, ok := ctx.Value(ContextWorkerIDKey).(string)
	return workerID, ok && workerID != ""
}

func GetRoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(ContextRoleKey).(string)
	return role
}

// WithToken stores the resolved token identity on ctx.
func WithToken(ctx context.Context, t TokenData) context.Context {
	ctx = context.WithValue(ctx, ContextWorkerIDKey, t.WorkerID)
	return context.WithValue(ctx, ContextRoleKey, t.Role)
}
