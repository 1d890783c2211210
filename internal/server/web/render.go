package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophblog/internal/server/models"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticRoot embed.FS

var staticFS = mustSub(staticRoot, "static")

func mustSub(f fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(f, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

var pageNames = []string{
	"home.html",
	"about.html",
	"register.html",
	"login.html",
	"account.html",
	"create_post.html",
	"user_posts.html",
	"reset_request.html",
	"reset_token.html",
	"error.html",
}

// pageSet holds one template per page, each combined with the layout.
type pageSet struct {
	pages map[string]*template.Template
}

func loadPages(funcs template.FuncMap) (*pageSet, error) {
	ps := &pageSet{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		ps.pages[name] = t
	}
	return ps, nil
}

// pageData is what every page template receives.
type pageData struct {
	Title       string
	Flash       *Flash
	CurrentUser *models.User

	Form   map[string]string
	Errors map[string]string

	Posts  *models.PostPage
	Status int
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"picture": func(name string) string { return s.pictures.URL(name) },
		"date":    func(t time.Time) string { return t.Format("2006-01-02") },
		"pager": func(p *models.PostPage) []int {
			return p.IterPages(1, 1, 2, 1)
		},
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data *pageData) {
	t, ok := s.pages.pages[name]
	if !ok {
		s.logger.Error(r.Context(), "unknown template", "name", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	data.CurrentUser = currentUser(r)
	data.Flash = s.popFlash(w, r)

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		s.logger.Error(r.Context(), "render failed", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int) {
	s.render(w, r, status, "error.html", &pageData{Title: http.StatusText(status), Status: status})
}

// serverError logs err and shows the generic 500 page.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	s.renderError(w, r, http.StatusInternalServerError)
}
