// Package common defines shared constants and sentinel errors used across
// the blog server layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")
	ErrValidation = errors.New("validation error")

	// Account lifecycle errors.
	ErrDuplicateIdentity  = errors.New("duplicate identity")
	ErrUsernameTaken      = fmt.Errorf("%w: username already taken", ErrDuplicateIdentity)
	ErrEmailTaken         = fmt.Errorf("%w: email already taken", ErrDuplicateIdentity)
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrUserNotFound       = errors.New("user not found")

	// Reset tokens are never distinguished beyond this one value.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

	// Profile picture and mail errors.
	ErrImageProcessing = errors.New("image processing failure")
	ErrMailTransport   = errors.New("mail transport failure")

	// Listing errors.
	ErrPageOutOfRange = errors.New("page out of range")
)
