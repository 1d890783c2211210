// Package services contains server-side business logic. AccountService covers
// the account lifecycle: registration, login sessions, profile edits and
// password reset.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/dmitrijs2005/gophblog/internal/dbx"
	"github.com/dmitrijs2005/gophblog/internal/logging"
	"github.com/dmitrijs2005/gophblog/internal/server/auth"
	"github.com/dmitrijs2005/gophblog/internal/server/config"
	"github.com/dmitrijs2005/gophblog/internal/server/models"
	"github.com/dmitrijs2005/gophblog/internal/server/repositories/repomanager"
)

// ResetTokenService issues and checks password reset tokens.
type ResetTokenService interface {
	Issue(user *models.User) (string, error)
	Verify(ctx context.Context, token string) (*models.User, error)
}

// ResetNotifier delivers a reset link to a user.
type ResetNotifier interface {
	SendResetEmail(ctx context.Context, user *models.User) error
}

// PictureStore stores processed profile pictures.
type PictureStore interface {
	Store(ctx context.Context, filename string, r io.Reader) (string, error)
	Remove(ctx context.Context, name string)
}

// Session is a freshly opened login. Token is the cookie value; it is not
// stored anywhere server-side.
type Session struct {
	Token      string
	Expires    time.Time
	Persistent bool
	User       *models.User
}

// Upload is a picture submitted with the account form.
type Upload struct {
	Filename string
	Body     io.Reader
}

type AccountService struct {
	db               *sql.DB
	repomanager      repomanager.RepositoryManager
	tokens           ResetTokenService
	notifier         ResetNotifier
	pictures         PictureStore
	log              logging.Logger
	sessionDuration  time.Duration
	rememberDuration time.Duration

	now func() time.Time
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config,
	tokens ResetTokenService, notifier ResetNotifier, pictures PictureStore, log logging.Logger) *AccountService {
	return &AccountService{
		db:               db,
		repomanager:      m,
		tokens:           tokens,
		notifier:         notifier,
		pictures:         pictures,
		log:              log.With("module", "accounts"),
		sessionDuration:  cfg.SessionDuration,
		rememberDuration: cfg.RememberDuration,
		now:              time.Now,
	}
}

// Register creates an account. Username and email uniqueness is decided by
// the store; a rejected insert surfaces as common.ErrUsernameTaken or
// common.ErrEmailTaken.
func (s *AccountService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}
	email, err = normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{Username: username, Email: email, PasswordHash: hash, ImageFile: common.DefaultImageFile}
	u, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateIdentity) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Login checks the credentials and opens a session. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, email, password string, remember bool) (*Session, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}

	token, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("session token: %w", err)
	}

	validity := s.sessionDuration
	if remember {
		validity = s.rememberDuration
	}
	expires := s.now().Add(validity)

	if err := s.repomanager.Sessions(s.db).Create(ctx, user.ID, common.HashToken(token), expires); err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID, "remember", remember)
	return &Session{Token: token, Expires: expires, Persistent: remember, User: user}, nil
}

// Logout closes the session behind token. Unknown tokens are ignored.
func (s *AccountService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.repomanager.Sessions(s.db).Delete(ctx, common.HashToken(token)); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	return nil
}

// Authenticate resolves a session cookie into its user.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrUnauthenticated
	}

	sessions := s.repomanager.Sessions(s.db)
	hash := common.HashToken(token)
	session, err := sessions.FindByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnauthenticated
		}
		return nil, fmt.Errorf("error searching session: %w", err)
	}

	if session.Expired(s.now()) {
		if err := sessions.Delete(ctx, hash); err != nil {
			s.log.Warn(ctx, "failed to delete expired session", "error", err)
		}
		return nil, common.ErrUnauthenticated
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnauthenticated
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

// UpdateAccount changes username and email and, when picture is given,
// replaces the profile picture. The previous picture is removed only after
// the row has been updated.
func (s *AccountService) UpdateAccount(ctx context.Context, user *models.User, username, email string, picture *Upload) (*models.User, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}
	email, err = normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	updated := *user
	updated.Username = username
	updated.Email = email

	if picture != nil {
		name, err := s.pictures.Store(ctx, picture.Filename, picture.Body)
		if err != nil {
			return nil, err
		}
		updated.ImageFile = name
	}

	if err := s.repomanager.Users(s.db).Update(ctx, &updated); err != nil {
		if picture != nil {
			s.pictures.Remove(ctx, updated.ImageFile)
		}
		if errors.Is(err, common.ErrDuplicateIdentity) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	if picture != nil && user.ImageFile != updated.ImageFile {
		s.pictures.Remove(ctx, user.ImageFile)
	}

	s.log.Info(ctx, "account updated", "user_id", updated.ID, "picture", picture != nil)
	return &updated, nil
}

// RequestPasswordReset mails a reset link when email belongs to an account.
// An unknown email is not an error, so callers respond identically either way.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Info(ctx, "password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("error searching user: %w", err)
	}
	return s.notifier.SendResetEmail(ctx, user)
}

// VerifyResetToken returns the user a reset token was issued to.
func (s *AccountService) VerifyResetToken(ctx context.Context, token string) (*models.User, error) {
	return s.tokens.Verify(ctx, token)
}

// ResetPassword sets a new password for the token's user and closes all of
// that user's sessions in the same transaction. The update only applies while
// the stored hash is still the one the token was issued against, so two
// requests racing with one token cannot both succeed.
func (s *AccountService) ResetPassword(ctx context.Context, token, password string) (*models.User, error) {
	user, err := s.tokens.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, user.ID, user.PasswordHash, hash); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidOrExpiredToken
			}
			return fmt.Errorf("error updating password: %w", err)
		}
		if err := s.repomanager.Sessions(tx).DeleteByUser(ctx, user.ID); err != nil {
			return fmt.Errorf("error deleting sessions: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	user.PasswordHash = hash
	s.log.Info(ctx, "password reset", "user_id", user.ID)
	return user, nil
}
