package blogctl

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophblog/internal/logging"
	"github.com/dmitrijs2005/gophblog/internal/server/auth"
	"github.com/dmitrijs2005/gophblog/internal/server/config"
	"github.com/dmitrijs2005/gophblog/internal/server/mailer"
	"github.com/dmitrijs2005/gophblog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophblog/internal/server/services"
)

// NewApp opens the database named in cfg and builds the commands on top of
// the same services the web server uses. The caller closes the returned DB.
func NewApp(cfg *config.Config, in io.Reader, out io.Writer) (*App, *sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	log := logging.NewJSONLogger(out, cfg.LogLevel)
	rm := repomanager.NewPostgresRepositoryManager()
	users := rm.Users(db)
	tokens := auth.NewResetTokens([]byte(cfg.SecretKey), cfg.ResetTokenTTL, users)
	notifier := services.NewNotificationService(cfg, tokens, mailer.NewLogSender(log), nil, log)

	return &App{
		accounts: services.NewAccountService(db, rm, cfg, tokens, notifier, nil, log),
		users:    users,
		tokens:   tokens,
		links:    notifier,
		migrate: func(ctx context.Context) error {
			return rm.RunMigrations(ctx, db)
		},
		in:  bufio.NewReader(in),
		out: out,
	}, db, nil
}
