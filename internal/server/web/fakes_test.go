package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/dmitrijs2005/gophblog/internal/logging"
	"github.com/dmitrijs2005/gophblog/internal/server/config"
	"github.com/dmitrijs2005/gophblog/internal/server/metrics"
	"github.com/dmitrijs2005/gophblog/internal/server/models"
	"github.com/dmitrijs2005/gophblog/internal/server/services"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakeAccounts struct {
	authUser *models.User
	authErr  error

	regResp *models.User
	regErr  error

	loginResp     *services.Session
	loginErr      error
	loginRemember bool

	logoutToken string

	updateResp  *models.User
	updateErr   error
	updateFile  string
	updateCalls int

	resetReqEmail string
	resetReqErr   error

	verifyResp *models.User
	verifyErr  error

	resetResp *models.User
	resetErr  error
}

func (f *fakeAccounts) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	return f.regResp, f.regErr
}

func (f *fakeAccounts) Login(ctx context.Context, email, password string, remember bool) (*services.Session, error) {
	f.loginRemember = remember
	return f.loginResp, f.loginErr
}

func (f *fakeAccounts) Logout(ctx context.Context, token string) error {
	f.logoutToken = token
	return nil
}

func (f *fakeAccounts) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if f.authUser == nil && f.authErr == nil {
		return nil, common.ErrUnauthenticated
	}
	return f.authUser, f.authErr
}

func (f *fakeAccounts) UpdateAccount(ctx context.Context, user *models.User, username, email string, picture *services.Upload) (*models.User, error) {
	f.updateCalls++
	if picture != nil {
		f.updateFile = picture.Filename
	}
	return f.updateResp, f.updateErr
}

func (f *fakeAccounts) RequestPasswordReset(ctx context.Context, email string) error {
	f.resetReqEmail = email
	return f.resetReqErr
}

func (f *fakeAccounts) VerifyResetToken(ctx context.Context, token string) (*models.User, error) {
	return f.verifyResp, f.verifyErr
}

func (f *fakeAccounts) ResetPassword(ctx context.Context, token, password string) (*models.User, error) {
	return f.resetResp, f.resetErr
}

type fakePosts struct {
	byAuthor    *models.PostPage
	byAuthorErr error
	recent      *models.PostPage
	recentErr   error
	panicRecent bool

	created   *models.Post
	createErr error
	author    *models.User
}

func (f *fakePosts) ListByAuthor(ctx context.Context, username string, page int) (*models.PostPage, error) {
	return f.byAuthor, f.byAuthorErr
}

func (f *fakePosts) ListRecent(ctx context.Context, page int) (*models.PostPage, error) {
	if f.panicRecent {
		panic("boom")
	}
	if f.recent == nil && f.recentErr == nil {
		return &models.PostPage{Page: page, PerPage: services.RecentPostsPerPage}, nil
	}
	return f.recent, f.recentErr
}

func (f *fakePosts) Create(ctx context.Context, author *models.User, title, content string) (*models.Post, error) {
	f.author = author
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Post{ID: 1, Title: title, Content: content, UserID: author.ID, Author: author}, nil
}

type fakePictures struct{}

func (fakePictures) URL(name string) string { return "/static/profile_img/" + name }

// ---- helpers ----

func newTestServer(t *testing.T, accounts *fakeAccounts, posts *fakePosts, imageDir string) *Server {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()

	s, err := NewServer(cfg, logging.Nop{}, metrics.New(), accounts, posts, fakePictures{}, imageDir)
	require.NoError(t, err)
	return s
}

func alice() *models.User {
	return &models.User{ID: 1, Username: "alice", Email: "alice@example.com", ImageFile: common.DefaultImageFile}
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func postForm(target string, form string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func withSessionCookie(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: common.SessionCookieName, Value: "tok"})
	return req
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// flashOf decodes the flash cookie set by a response.
func flashOf(t *testing.T, s *Server, rec *httptest.ResponseRecorder) *Flash {
	t.Helper()
	c := responseCookie(rec, common.FlashCookieName)
	if c == nil {
		return nil
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	return s.popFlash(httptest.NewRecorder(), req)
}
