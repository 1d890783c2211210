// Package web is the server-rendered HTTP surface of the blog: routing,
// session cookies, flash messages and HTML pages.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophblog/internal/logging"
	"github.com/dmitrijs2005/gophblog/internal/server/config"
	"github.com/dmitrijs2005/gophblog/internal/server/metrics"
	"github.com/dmitrijs2005/gophblog/internal/server/models"
	"github.com/dmitrijs2005/gophblog/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

const (
	requestTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

type accountSvc interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string, remember bool) (*services.Session, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*models.User, error)
	UpdateAccount(ctx context.Context, user *models.User, username, email string, picture *services.Upload) (*models.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	VerifyResetToken(ctx context.Context, token string) (*models.User, error)
	ResetPassword(ctx context.Context, token, password string) (*models.User, error)
}

type postSvc interface {
	ListByAuthor(ctx context.Context, username string, page int) (*models.PostPage, error)
	ListRecent(ctx context.Context, page int) (*models.PostPage, error)
	Create(ctx context.Context, author *models.User, title, content string) (*models.Post, error)
}

type pictureURLs interface {
	URL(name string) string
}

type Server struct {
	address      string
	accounts     accountSvc
	posts        postSvc
	pictures     pictureURLs
	logger       logging.Logger
	metrics      *metrics.Metrics
	pages        *pageSet
	imageDir     string
	cookieSecure bool
	publicHost   string
	maxUpload    int64
	handler      http.Handler
}

// NewServer builds the router. imageDir is the directory of locally stored
// pictures; it is empty when pictures live elsewhere.
func NewServer(cfg *config.Config, l logging.Logger, m *metrics.Metrics,
	accounts accountSvc, posts postSvc, pictures pictureURLs, imageDir string) (*Server, error) {

	s := &Server{
		address:      cfg.HTTPAddr,
		accounts:     accounts,
		posts:        posts,
		pictures:     pictures,
		logger:       l.With("module", "http_server"),
		metrics:      m,
		imageDir:     imageDir,
		cookieSecure: cfg.CookieSecure,
		publicHost:   hostOf(cfg.BaseURL),
		maxUpload:    cfg.MaxUploadBytes,
	}

	pages, err := loadPages(s.templateFuncs())
	if err != nil {
		return nil, err
	}
	s.pages = pages
	s.handler = s.routes()
	return s, nil
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLog)
	r.Use(s.recoverer)
	r.Use(securityHeaders)
	r.Use(s.sameOrigin)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) { s.renderError(w, r, http.StatusNotFound) })
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusMethodNotAllowed)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Get("/static/profile_img/{name}", s.handleProfileImage)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(s.withSession)

		r.Get("/", s.handleHome)
		r.Get("/home", s.handleHome)
		r.Get("/about", s.handleAbout)
		r.Post("/logout", s.handleLogout)
		r.Get("/post/user_post/{username}", s.handleUserPosts)

		r.Group(func(r chi.Router) {
			r.Use(s.anonymousOnly)
			limited := r.With(httprate.LimitByIP(20, time.Minute))

			r.Get("/register", s.handleRegister)
			limited.Post("/register", s.handleRegister)
			r.Get("/login", s.handleLogin)
			limited.Post("/login", s.handleLogin)
			r.Get("/reset_password", s.handleResetRequest)
			limited.Post("/reset_password", s.handleResetRequest)
			r.Get("/reset_password/{token}", s.handleResetToken)
			limited.Post("/reset_password/{token}", s.handleResetToken)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/account", s.handleAccount)
			r.With(maxBytes(s.maxUpload+1<<20)).Post("/account", s.handleAccount)
			r.Get("/post/new", s.handleNewPost)
			r.Post("/post/new", s.handleNewPost)
		})
	})

	return r
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
