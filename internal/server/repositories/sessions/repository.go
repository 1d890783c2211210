// Package sessions declares the server-side repository contract for
// login sessions kept in persistent storage.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophblog/internal/server/models"
)

// Repository defines operations for opening, resolving and closing sessions.
// Only the hash of the cookie value is ever passed in.
type Repository interface {
	// Create stores a new session for userID expiring at expires.
	Create(ctx context.Context, userID int64, tokenHash string, expires time.Time) error

	// FindByTokenHash returns the session for the hash.
	// Implementations should return a not-found error when it is absent.
	FindByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)

	// Delete removes a session by hash. Deleting a non-existent session is
	// not an error.
	Delete(ctx context.Context, tokenHash string) error

	// DeleteByUser removes every session of userID.
	DeleteByUser(ctx context.Context, userID int64) error
}
