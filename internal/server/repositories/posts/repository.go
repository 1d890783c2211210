package posts

import (
	"context"

	"github.com/dmitrijs2005/gophblog/internal/server/models"
)

// Repository persists posts and serves the paginated listings.
// Listings are ordered newest first (date_posted, then id) and carry the
// author on each post.
type Repository interface {
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	ListByAuthor(ctx context.Context, userID int64, limit, offset int) ([]*models.Post, error)
	CountByAuthor(ctx context.Context, userID int64) (int, error)
	ListRecent(ctx context.Context, limit, offset int) ([]*models.Post, error)
	CountAll(ctx context.Context) (int, error)
}
