package web

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophblog/internal/common"
)

const (
	flashSuccess = "success"
	flashInfo    = "info"
	flashWarning = "warning"
	flashDanger  = "danger"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

func (s *Server) setFlash(w http.ResponseWriter, category, message string) {
	v := base64.RawURLEncoding.EncodeToString([]byte(category + "\n" + message))
	http.SetCookie(w, &http.Cookie{
		Name:     common.FlashCookieName,
		Value:    v,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads the pending flash, if any, and clears it.
func (s *Server) popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	c, err := r.Cookie(common.FlashCookieName)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     common.FlashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	b, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	category, message, ok := strings.Cut(string(b), "\n")
	if !ok {
		return nil
	}
	switch category {
	case flashSuccess, flashInfo, flashWarning, flashDanger:
	default:
		return nil
	}
	return &Flash{Category: category, Message: message}
}
