package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/dmitrijs2005/gophblog/internal/dbx"
	"github.com/dmitrijs2005/gophblog/internal/server/models"
	postsrepo "github.com/dmitrijs2005/gophblog/internal/server/repositories/posts"
	sessionsrepo "github.com/dmitrijs2005/gophblog/internal/server/repositories/sessions"
	usersrepo "github.com/dmitrijs2005/gophblog/internal/server/repositories/users"
)

var errBoom = errors.New("boom")

// fakeUsersRepo keeps users in memory and enforces the same uniqueness the
// database constraints do.
type fakeUsersRepo struct {
	mu     sync.Mutex
	rows   map[int64]*models.User
	nextID int64

	getErr    error
	updateErr error
}

func newFakeUsers() *fakeUsersRepo {
	return &fakeUsersRepo{rows: map[int64]*models.User{}}
}

func (f *fakeUsersRepo) conflict(u *models.User) error {
	for _, r := range f.rows {
		if r.ID == u.ID {
			continue
		}
		if r.Username == u.Username {
			return common.ErrUsernameTaken
		}
		if r.Email == u.Email {
			return common.ErrEmailTaken
		}
	}
	return nil
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.conflict(u); err != nil {
		return nil, err
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	cp := *u
	f.rows[u.ID] = &cp
	return u, nil
}

func (f *fakeUsersRepo) find(match func(*models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, r := range f.rows {
		if match(r) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Email == email })
}

func (f *fakeUsersRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Username == username })
}

func (f *fakeUsersRepo) Update(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	row, ok := f.rows[u.ID]
	if !ok {
		return common.ErrorNotFound
	}
	if err := f.conflict(u); err != nil {
		return err
	}
	row.Username, row.Email, row.ImageFile = u.Username, u.Email, u.ImageFile
	return nil
}

func (f *fakeUsersRepo) UpdatePassword(_ context.Context, id int64, oldHash, newHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok || row.PasswordHash != oldHash {
		return common.ErrorNotFound
	}
	row.PasswordHash = newHash
	return nil
}

func (f *fakeUsersRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeSessionsRepo struct {
	mu   sync.Mutex
	rows map[string]*models.Session

	createErr       error
	deleteByUserErr error
}

func newFakeSessions() *fakeSessionsRepo {
	return &fakeSessionsRepo{rows: map[string]*models.Session{}}
}

func (f *fakeSessionsRepo) Create(_ context.Context, userID int64, hash string, expires time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.rows[hash] = &models.Session{ID: int64(len(f.rows) + 1), UserID: userID, TokenHash: hash, Expires: expires}
	return nil
}

func (f *fakeSessionsRepo) FindByTokenHash(_ context.Context, hash string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[hash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionsRepo) Delete(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, hash)
	return nil
}

func (f *fakeSessionsRepo) DeleteByUser(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteByUserErr != nil {
		return f.deleteByUserErr
	}
	for k, s := range f.rows {
		if s.UserID == userID {
			delete(f.rows, k)
		}
	}
	return nil
}

func (f *fakeSessionsRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakePostsRepo struct {
	rows     []*models.Post
	countErr error
}

func (f *fakePostsRepo) Create(_ context.Context, p *models.Post) (*models.Post, error) {
	p.ID = int64(len(f.rows) + 1)
	p.DatePosted = time.Now()
	f.rows = append(f.rows, p)
	return p, nil
}

func (f *fakePostsRepo) sorted(match func(*models.Post) bool) []*models.Post {
	var out []*models.Post
	for _, p := range f.rows {
		if match(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DatePosted.Equal(out[j].DatePosted) {
			return out[i].DatePosted.After(out[j].DatePosted)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func window(items []*models.Post, limit, offset int) []*models.Post {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func (f *fakePostsRepo) ListByAuthor(_ context.Context, userID int64, limit, offset int) ([]*models.Post, error) {
	return window(f.sorted(func(p *models.Post) bool { return p.UserID == userID }), limit, offset), nil
}

func (f *fakePostsRepo) CountByAuthor(_ context.Context, userID int64) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.sorted(func(p *models.Post) bool { return p.UserID == userID })), nil
}

func (f *fakePostsRepo) ListRecent(_ context.Context, limit, offset int) ([]*models.Post, error) {
	return window(f.sorted(func(*models.Post) bool { return true }), limit, offset), nil
}

func (f *fakePostsRepo) CountAll(context.Context) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.rows), nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	s *fakeSessionsRepo
	p *fakePostsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	u := newFakeUsers()
	return &fakeRepoManager{u: u, s: newFakeSessions(), p: &fakePostsRepo{}}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository          { return m.u }
func (m *fakeRepoManager) Sessions(dbx.DBTX) sessionsrepo.Repository    { return m.s }
func (m *fakeRepoManager) Posts(dbx.DBTX) postsrepo.Repository          { return m.p }

type fakeNotifier struct {
	calls []*models.User
	err   error
}

func (f *fakeNotifier) SendResetEmail(_ context.Context, u *models.User) error {
	f.calls = append(f.calls, u)
	return f.err
}

type fakePictures struct {
	stored  []string
	removed []string
	err     error
}

func (f *fakePictures) Store(_ context.Context, filename string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	_, _ = io.Copy(io.Discard, r)
	name := "new-" + filename
	f.stored = append(f.stored, name)
	return name, nil
}

func (f *fakePictures) Remove(_ context.Context, name string) {
	f.removed = append(f.removed, name)
}
