package posts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophblog/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var postCols = []string{"id", "title", "content", "date_posted", "user_id", "username", "email", "image_file"}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+posts\s*\(title,\s*content,\s*user_id\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id,\s*date_posted\s*$`
	now := time.Now()
	mock.ExpectQuery(q).
		WithArgs("Hello", "World", int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "date_posted"}).AddRow(int64(11), now))

	got, err := repo.Create(context.Background(), &models.Post{Title: "Hello", Content: "World", UserID: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(11), got.ID)
	assert.True(t, got.DatePosted.Equal(now))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+posts`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Post{Title: "t", Content: "c", UserID: 1})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestListByAuthor_OrderAndPaging(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)SELECT\s+p\.id.*FROM\s+posts\s+p\s+JOIN\s+users\s+u\s+ON\s+u\.id\s*=\s*p\.user_id\s+WHERE\s+p\.user_id\s*=\s*\$1\s+ORDER\s+BY\s+p\.date_posted\s+DESC,\s*p\.id\s+DESC\s+LIMIT\s+\$2\s+OFFSET\s+\$3`
	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(postCols).
		AddRow(int64(4), "p4", "c4", base.Add(-3*time.Hour), int64(1), "alice", "a@example.com", "a.jpg").
		AddRow(int64(3), "p3", "c3", base.Add(-4*time.Hour), int64(1), "alice", "a@example.com", "a.jpg")

	mock.ExpectQuery(q).WithArgs(int64(1), 3, 3).WillReturnRows(rows)

	got, err := repo.ListByAuthor(context.Background(), 1, 3, 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p4", got[0].Title)
	assert.Equal(t, "alice", got[0].Author.Username)
	assert.Equal(t, int64(1), got[0].Author.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByAuthor_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)FROM\s+posts`).WillReturnError(errors.New("boom"))

	_, err := repo.ListByAuthor(context.Background(), 1, 3, 0)
	if err == nil || !regexp.MustCompile(`failed to select posts: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestListRecent_ScanError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(postCols).
		AddRow("not-an-int", "t", "c", time.Now(), int64(1), "alice", "a@example.com", "a.jpg")
	mock.ExpectQuery(`(?s)FROM\s+posts\s+p.*LIMIT\s+\$1\s+OFFSET\s+\$2`).WithArgs(5, 0).WillReturnRows(rows)

	_, err := repo.ListRecent(context.Background(), 5, 0)
	assert.Error(t, err)
}

func TestListRecent_RowsErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(postCols).
		AddRow(int64(1), "t", "c", time.Now(), int64(1), "alice", "a@example.com", "a.jpg").
		RowError(0, errors.New("row err"))
	mock.ExpectQuery(`(?s)FROM\s+posts\s+p`).WithArgs(5, 0).WillReturnRows(rows)

	_, err := repo.ListRecent(context.Background(), 5, 0)
	assert.EqualError(t, err, "row err")
}

func TestCounts(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`^SELECT\s+count\(\*\)\s+FROM\s+posts\s+WHERE\s+user_id\s*=\s*\$1$`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(`^SELECT\s+count\(\*\)\s+FROM\s+posts$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	n, err := repo.CountByAuthor(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	n, err = repo.CountAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, n)
}

func TestCountAll_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`count`).WillReturnError(errors.New("db err"))

	_, err := repo.CountAll(context.Background())
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
