// Package auth issues and checks password reset tokens and wraps password hashing.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/dmitrijs2005/gophblog/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

const resetAudience = "password-reset"

// ResetClaims is the payload of a reset token. PasswordFP ties the token to the
// password hash current at issue time, so a token stops working once it has
// been used to change the password.
type ResetClaims struct {
	jwt.RegisteredClaims
	UserID     int64  `json:"uid"`
	PasswordFP string `json:"pwd"`
}

// UserFinder is the lookup Verify needs.
type UserFinder interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// ResetTokens signs reset tokens with HS256 using the server secret.
type ResetTokens struct {
	secret []byte
	ttl    time.Duration
	users  UserFinder

	// Now is the clock used for issuing and validating. Defaults to time.Now.
	Now func() time.Time
}

func NewResetTokens(secret []byte, ttl time.Duration, users UserFinder) *ResetTokens {
	return &ResetTokens{secret: secret, ttl: ttl, users: users, Now: time.Now}
}

// Issue returns a signed token for user valid for the configured TTL.
func (t *ResetTokens) Issue(user *models.User) (string, error) {
	now := t.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, ResetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{resetAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		UserID:     user.ID,
		PasswordFP: passwordFingerprint(user.PasswordHash),
	})

	tokenString, err := token.SignedString(t.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify resolves token to its user. Every failure, whatever the cause,
// is reported as common.ErrInvalidOrExpiredToken.
func (t *ResetTokens) Verify(ctx context.Context, tokenString string) (*models.User, error) {
	claims := &ResetClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(resetAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.Now),
	)
	if err != nil {
		return nil, common.ErrInvalidOrExpiredToken
	}

	user, err := t.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidOrExpiredToken
		}
		return nil, err
	}

	fp := passwordFingerprint(user.PasswordHash)
	if subtle.ConstantTimeCompare([]byte(fp), []byte(claims.PasswordFP)) != 1 {
		return nil, common.ErrInvalidOrExpiredToken
	}

	return user, nil
}

func passwordFingerprint(hash string) string {
	return common.HashToken(hash)[:16]
}
