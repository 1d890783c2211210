package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/dmitrijs2005/gophblog/internal/logging"
	"github.com/dmitrijs2005/gophblog/internal/server/config"
	"github.com/dmitrijs2005/gophblog/internal/server/mailer"
	"github.com/dmitrijs2005/gophblog/internal/server/models"
)

const resetSubject = "Password Reset Request"

const resetBody = `To reset your password, visit the following link:
%s

If you did not make this request then simply ignore this email and no changes will be made.
`

// TokenIssuer mints reset tokens.
type TokenIssuer interface {
	Issue(user *models.User) (string, error)
}

// MailRecorder counts delivery outcomes. It may be nil.
type MailRecorder interface {
	Mail(result string)
}

// NotificationService sends the password reset mail.
type NotificationService struct {
	tokens  TokenIssuer
	sender  mailer.Sender
	baseURL string
	log     logging.Logger
	metrics MailRecorder
}

func NewNotificationService(cfg *config.Config, tokens TokenIssuer, sender mailer.Sender, metrics MailRecorder, log logging.Logger) *NotificationService {
	return &NotificationService{
		tokens:  tokens,
		sender:  sender,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		log:     log.With("module", "notifications"),
		metrics: metrics,
	}
}

// ResetURL is the external link embedded in the reset mail.
func (s *NotificationService) ResetURL(token string) string {
	return s.baseURL + "/reset_password/" + token
}

// SendResetEmail issues a token for user and mails the link. Delivery is
// attempted once; any transport failure is reported as common.ErrMailTransport.
func (s *NotificationService) SendResetEmail(ctx context.Context, user *models.User) error {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	msg := mailer.Message{
		To:      user.Email,
		Subject: resetSubject,
		Body:    fmt.Sprintf(resetBody, s.ResetURL(token)),
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		s.record("failed")
		s.log.Error(ctx, "reset mail failed", "user_id", user.ID, "error", err)
		return fmt.Errorf("%w: %v", common.ErrMailTransport, err)
	}

	s.record("sent")
	s.log.Info(ctx, "reset mail sent", "user_id", user.ID)
	return nil
}

func (s *NotificationService) record(result string) {
	if s.metrics != nil {
		s.metrics.Mail(result)
	}
}
