package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/dmitrijs2005/gophblog/internal/server/services"
	"github.com/go-chi/chi/v5"
)

const passwordMismatch = "Field must be equal to password."

func (s *Server) event(kind, result string) {
	if s.metrics != nil {
		s.metrics.AuthEvent(kind, result)
	}
}

// fieldErrors turns a validation error into per-field messages.
func fieldErrors(err error) (map[string]string, bool) {
	var fe *services.FieldError
	if errors.As(err, &fe) {
		return map[string]string{fe.Field: capitalize(fe.Message) + "."}, true
	}
	return nil, false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	data := &pageData{Title: "Register", Form: map[string]string{}}
	if r.Method == http.MethodGet {
		s.render(w, r, http.StatusOK, "register.html", data)
		return
	}

	username := r.PostFormValue("username")
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	data.Form["username"], data.Form["email"] = username, email

	if password != r.PostFormValue("confirm_password") {
		data.Errors = map[string]string{"confirm_password": passwordMismatch}
		s.render(w, r, http.StatusOK, "register.html", data)
		return
	}

	user, err := s.accounts.Register(r.Context(), username, email, password)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrUsernameTaken):
		s.event("register", "rejected")
		s.setFlash(w, flashDanger, "That username is taken. Please choose a different one.")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	case errors.Is(err, common.ErrDuplicateIdentity):
		s.event("register", "rejected")
		s.setFlash(w, flashDanger, "That email is taken. Please choose a different one.")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	default:
		if fe, ok := fieldErrors(err); ok {
			data.Errors = fe
			s.render(w, r, http.StatusOK, "register.html", data)
			return
		}
		s.event("register", "error")
		s.serverError(w, r, err)
		return
	}

	s.event("register", "ok")
	s.logger.Info(r.Context(), "account created", "user_id", user.ID)
	s.setFlash(w, flashSuccess, "Account created successfully! Now you can log in.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	data := &pageData{Title: "Login", Form: map[string]string{"next": r.URL.Query().Get("next")}}
	if r.Method == http.MethodGet {
		s.render(w, r, http.StatusOK, "login.html", data)
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	remember := r.PostFormValue("remember") != ""

	session, err := s.accounts.Login(r.Context(), email, r.PostFormValue("password"), remember)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			s.event("login", "rejected")
			s.setFlash(w, flashDanger, "Invalid email or password.")
			target := "/login"
			if next := r.URL.Query().Get("next"); next != "" {
				target += "?next=" + url.QueryEscape(next)
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		s.event("login", "error")
		s.serverError(w, r, err)
		return
	}

	cookie := &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if session.Persistent {
		cookie.Expires = session.Expires
		cookie.MaxAge = int(time.Until(session.Expires).Seconds())
	}
	http.SetCookie(w, cookie)

	s.event("login", "ok")
	s.setFlash(w, flashSuccess, "Login successful.")
	http.Redirect(w, r, safeNext(r.URL.Query().Get("next")), http.StatusSeeOther)
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(common.SessionCookieName); err == nil {
		if err := s.accounts.Logout(r.Context(), c.Value); err != nil {
			s.logger.Error(r.Context(), "logout failed", "error", err)
		}
	}
	s.clearSessionCookie(w)
	s.event("logout", "ok")
	s.setFlash(w, flashSuccess, "Logout successful.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	data := &pageData{Title: "Account", Form: map[string]string{
		"username": user.Username,
		"email":    user.Email,
	}}
	if r.Method == http.MethodGet {
		s.render(w, r, http.StatusOK, "account.html", data)
		return
	}

	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			data.Errors = map[string]string{"picture": "File is too large."}
			s.render(w, r, http.StatusRequestEntityTooLarge, "account.html", data)
			return
		}
		s.renderError(w, r, http.StatusBadRequest)
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	username := r.PostFormValue("username")
	email := r.PostFormValue("email")
	data.Form["username"], data.Form["email"] = username, email

	var upload *services.Upload
	file, header, err := r.FormFile("picture")
	switch {
	case err == nil:
		defer file.Close()
		if header.Size > s.maxUpload {
			data.Errors = map[string]string{"picture": "File is too large."}
			s.render(w, r, http.StatusRequestEntityTooLarge, "account.html", data)
			return
		}
		if header.Filename != "" {
			upload = &services.Upload{Filename: header.Filename, Body: file}
		}
	case errors.Is(err, http.ErrMissingFile):
	default:
		s.renderError(w, r, http.StatusBadRequest)
		return
	}

	_, err = s.accounts.UpdateAccount(r.Context(), user, username, email, upload)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrUsernameTaken):
		s.setFlash(w, flashDanger, "That username is taken. Please choose a different one.")
		http.Redirect(w, r, "/account", http.StatusSeeOther)
		return
	case errors.Is(err, common.ErrDuplicateIdentity):
		s.setFlash(w, flashDanger, "That email is taken. Please choose a different one.")
		http.Redirect(w, r, "/account", http.StatusSeeOther)
		return
	case errors.Is(err, common.ErrImageProcessing):
		data.Errors = map[string]string{"picture": "Unsupported or damaged image. Please upload a JPG or PNG file."}
		s.render(w, r, http.StatusOK, "account.html", data)
		return
	default:
		if fe, ok := fieldErrors(err); ok {
			data.Errors = fe
			s.render(w, r, http.StatusOK, "account.html", data)
			return
		}
		s.serverError(w, r, err)
		return
	}

	s.setFlash(w, flashSuccess, "Account details updated!")
	http.Redirect(w, r, "/account", http.StatusSeeOther)
}

func (s *Server) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	data := &pageData{Title: "Reset Password", Form: map[string]string{}}
	if r.Method == http.MethodGet {
		s.render(w, r, http.StatusOK, "reset_request.html", data)
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	data.Form["email"] = email
	if email == "" {
		data.Errors = map[string]string{"email": "This field is required."}
		s.render(w, r, http.StatusOK, "reset_request.html", data)
		return
	}

	err := s.accounts.RequestPasswordReset(r.Context(), email)
	switch {
	case err == nil:
		s.event("reset_request", "ok")
		s.setFlash(w, flashInfo, "An email has been sent with instructions to reset your password.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, common.ErrMailTransport):
		s.event("reset_request", "error")
		s.setFlash(w, flashWarning, "We could not send the email right now. Please try again later.")
		http.Redirect(w, r, "/reset_password", http.StatusSeeOther)
	default:
		s.event("reset_request", "error")
		s.serverError(w, r, err)
	}
}

func (s *Server) invalidToken(w http.ResponseWriter, r *http.Request) {
	s.event("reset", "rejected")
	s.setFlash(w, flashWarning, "That is an invalid or expired token.")
	http.Redirect(w, r, "/reset_password", http.StatusSeeOther)
}

func (s *Server) handleResetToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	data := &pageData{Title: "Reset Password"}

	if _, err := s.accounts.VerifyResetToken(r.Context(), token); err != nil {
		if errors.Is(err, common.ErrInvalidOrExpiredToken) {
			s.invalidToken(w, r)
			return
		}
		s.serverError(w, r, err)
		return
	}

	if r.Method == http.MethodGet {
		s.render(w, r, http.StatusOK, "reset_token.html", data)
		return
	}

	password := r.PostFormValue("password")
	if password != r.PostFormValue("confirm_password") {
		data.Errors = map[string]string{"confirm_password": passwordMismatch}
		s.render(w, r, http.StatusOK, "reset_token.html", data)
		return
	}

	_, err := s.accounts.ResetPassword(r.Context(), token, password)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrInvalidOrExpiredToken):
		s.invalidToken(w, r)
		return
	default:
		if fe, ok := fieldErrors(err); ok {
			data.Errors = fe
			s.render(w, r, http.StatusOK, "reset_token.html", data)
			return
		}
		s.serverError(w, r, err)
		return
	}

	s.event("reset", "ok")
	s.setFlash(w, flashSuccess, "Your password has been updated! Now you can log in.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
