package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/dmitrijs2005/gophblog/internal/dbx"
	"github.com/dmitrijs2005/gophblog/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const (
	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	if user.ImageFile == "" {
		user.ImageFile = common.DefaultImageFile
	}

	query :=
		`INSERT INTO users (username, email, password_hash, image_file)
         VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.ImageFile).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		return nil, mapWriteError(err)
	}

	return user, nil
}

const selectUser = `SELECT id, username, email, password_hash, image_file, created_at FROM users`

func (r *PostgresRepository) get(ctx context.Context, where string, arg any) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, selectUser+" WHERE "+where, arg).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.ImageFile, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.get(ctx, "id = $1", id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.get(ctx, "email = $1", email)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.get(ctx, "username = $1", username)
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users SET username = $1, email = $2, image_file = $3
		 WHERE id = $4
		 `

	res, err := r.db.ExecContext(ctx, query, user.Username, user.Email, user.ImageFile, user.ID)
	if err != nil {
		return mapWriteError(err)
	}

	return expectOneRow(res)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int64, oldHash, newHash string) error {
	query :=
		`UPDATE users SET password_hash = $1
		 WHERE id = $2 AND password_hash = $3
		 `

	res, err := r.db.ExecContext(ctx, query, newHash, id, oldHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// mapWriteError turns unique violations into the matching identity error.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case usernameConstraint:
			return common.ErrUsernameTaken
		case emailConstraint:
			return common.ErrEmailTaken
		default:
			return fmt.Errorf("%w: %s", common.ErrDuplicateIdentity, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("db error: %w", err)
}
