// Package users declares the contract for persisting blog accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophblog/internal/server/models"
)

// Repository stores and looks up users.
//
// Username and email uniqueness is enforced by the store itself: Create and
// Update return common.ErrUsernameTaken or common.ErrEmailTaken when the
// underlying constraint rejects the write. Lookups that match nothing return
// common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	// UpdatePassword replaces the hash only while the stored hash is still
	// oldHash; otherwise it returns common.ErrorNotFound.
	UpdatePassword(ctx context.Context, id int64, oldHash, newHash string) error
}
