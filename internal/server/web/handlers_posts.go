package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/go-chi/chi/v5"
)

// pageParam reads ?page=N. Missing or non-numeric values mean page 1.
func pageParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return 1
	}
	return n
}

func (s *Server) listingError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, common.ErrUserNotFound) || errors.Is(err, common.ErrPageOutOfRange) {
		s.renderError(w, r, http.StatusNotFound)
		return
	}
	s.serverError(w, r, err)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	page, err := s.posts.ListRecent(r.Context(), pageParam(r))
	if err != nil {
		s.listingError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "home.html", &pageData{Title: "Home", Posts: page})
}

func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "about.html", &pageData{Title: "About"})
}

func (s *Server) handleUserPosts(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	page, err := s.posts.ListByAuthor(r.Context(), username, pageParam(r))
	if err != nil {
		s.listingError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "user_posts.html", &pageData{Title: page.Author.Username, Posts: page})
}

func (s *Server) handleNewPost(w http.ResponseWriter, r *http.Request) {
	data := &pageData{Title: "New Post", Form: map[string]string{}}
	if r.Method == http.MethodGet {
		s.render(w, r, http.StatusOK, "create_post.html", data)
		return
	}

	title := r.PostFormValue("title")
	content := r.PostFormValue("content")
	data.Form["title"], data.Form["content"] = title, content

	if _, err := s.posts.Create(r.Context(), currentUser(r), title, content); err != nil {
		if fe, ok := fieldErrors(err); ok {
			data.Errors = fe
			s.render(w, r, http.StatusOK, "create_post.html", data)
			return
		}
		s.serverError(w, r, err)
		return
	}

	s.setFlash(w, flashSuccess, "Your post has been created!")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
