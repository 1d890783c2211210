// Package posts provides PostgreSQL-backed storage for blog posts.
package posts

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophblog/internal/dbx"
	"github.com/dmitrijs2005/gophblog/internal/server/models"
)

// PostgresRepository implements post storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a post and fills in its id and date_posted.
func (r *PostgresRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	query := `
		INSERT INTO posts (title, content, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, date_posted
	`
	if err := r.db.QueryRowContext(ctx, query, post.Title, post.Content, post.UserID).
		Scan(&post.ID, &post.DatePosted); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return post, nil
}

const selectPosts = `
		SELECT p.id, p.title, p.content, p.date_posted, p.user_id,
		       u.username, u.email, u.image_file
		FROM posts p
		JOIN users u ON u.id = p.user_id
	`

// ListByAuthor returns one page of posts written by userID.
func (r *PostgresRepository) ListByAuthor(ctx context.Context, userID int64, limit, offset int) ([]*models.Post, error) {
	query := selectPosts + `
		WHERE p.user_id = $1
		ORDER BY p.date_posted DESC, p.id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to select posts: %w", err)
	}
	return scanPosts(rows)
}

// ListRecent returns one page of posts from all authors.
func (r *PostgresRepository) ListRecent(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	query := selectPosts + `
		ORDER BY p.date_posted DESC, p.id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to select posts: %w", err)
	}
	return scanPosts(rows)
}

func (r *PostgresRepository) CountByAuthor(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM posts WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) CountAll(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func scanPosts(rows *sql.Rows) ([]*models.Post, error) {
	defer rows.Close()

	var result []*models.Post
	for rows.Next() {
		item := &models.Post{Author: &models.User{}}
		if err := rows.Scan(
			&item.ID, &item.Title, &item.Content, &item.DatePosted, &item.UserID,
			&item.Author.Username, &item.Author.Email, &item.Author.ImageFile,
		); err != nil {
			return nil, err
		}
		item.Author.ID = item.UserID
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
