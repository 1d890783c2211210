package services

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophblog/internal/common"
)

const (
	minUsernameLen = 2
	maxUsernameLen = 20
	maxEmailLen    = 120
	minPasswordLen = 6
	maxTitleLen    = 100
)

// FieldError is a validation failure tied to one form field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

func (e *FieldError) Unwrap() error { return common.ErrValidation }

func invalid(field, format string, args ...any) error {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func normalizeUsername(v string) (string, error) {
	v = strings.TrimSpace(v)
	n := utf8.RuneCountInString(v)
	if n < minUsernameLen || n > maxUsernameLen {
		return "", invalid("username", "must be between %d and %d characters long", minUsernameLen, maxUsernameLen)
	}
	return v, nil
}

func normalizeEmail(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > maxEmailLen {
		return "", invalid("email", "invalid email address")
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return "", invalid("email", "invalid email address")
	}
	return v, nil
}

func checkPassword(v string) error {
	if utf8.RuneCountInString(v) < minPasswordLen {
		return invalid("password", "must be at least %d characters long", minPasswordLen)
	}
	if len(v) > 72 {
		return invalid("password", "must be at most 72 bytes long")
	}
	return nil
}
