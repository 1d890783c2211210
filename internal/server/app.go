// Package server wires the blog together: database, repositories, picture
// storage, mail, services and the HTTP server, and runs it until a shutdown
// signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophblog/internal/logging"
	"github.com/dmitrijs2005/gophblog/internal/server/auth"
	"github.com/dmitrijs2005/gophblog/internal/server/config"
	"github.com/dmitrijs2005/gophblog/internal/server/mailer"
	"github.com/dmitrijs2005/gophblog/internal/server/metrics"
	"github.com/dmitrijs2005/gophblog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophblog/internal/server/services"
	"github.com/dmitrijs2005/gophblog/internal/server/storage"
	"github.com/dmitrijs2005/gophblog/internal/server/web"
)

const (
	profileImagePath = "/static/profile_img"
	s3ImagePrefix    = "profile_img/"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *web.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	srv, err := buildServer(ctx, c, logger, db, rm)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &App{config: c, logger: logger, db: db, server: srv}, nil
}

// buildServer assembles services and the HTTP layer on top of an open database.
func buildServer(ctx context.Context, c *config.Config, logger logging.Logger,
	db *sql.DB, rm repomanager.RepositoryManager) (*web.Server, error) {

	store, imageDir, err := newImageStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("image store: %w", err)
	}

	m := metrics.New()
	tokens := auth.NewResetTokens([]byte(c.SecretKey), c.ResetTokenTTL, rm.Users(db))
	notifier := services.NewNotificationService(c, tokens, newSender(c, logger), m, logger)
	profiles := services.NewProfileService(store, profileImagePath+"/default.jpg", logger)

	accounts := services.NewAccountService(db, rm, c, tokens, notifier, profiles, logger)
	posts := services.NewPostService(db, rm, logger)

	return web.NewServer(c, logger, m, accounts, posts, profiles, imageDir)
}

// newImageStore picks the picture backend. The returned directory is set only
// for the local backend, whose files the HTTP server serves itself.
func newImageStore(ctx context.Context, c *config.Config) (storage.ImageStore, string, error) {
	switch c.ImageBackend {
	case config.ImageBackendS3:
		s, err := storage.NewS3Store(ctx, storage.S3Options{
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
			Prefix:       s3ImagePrefix,
			PublicURL:    c.S3PublicURL,
		})
		return s, "", err
	default:
		s, err := storage.NewLocalStore(c.ImageDir, profileImagePath)
		if err != nil {
			return nil, "", err
		}
		return s, s.Dir(), nil
	}
}

// newSender logs mail instead of sending it when no SMTP host is configured.
func newSender(c *config.Config, logger logging.Logger) mailer.Sender {
	if strings.TrimSpace(c.SMTPHost) == "" {
		return mailer.NewLogSender(logger)
	}
	return mailer.NewSMTPSender(mailer.SMTPOptions{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
		From:     c.SMTPFrom,
		TLS:      c.SMTPTLS,
	})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
