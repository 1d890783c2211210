package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/dmitrijs2005/gophblog/internal/logging"
	"github.com/dmitrijs2005/gophblog/internal/server/models"
	"github.com/dmitrijs2005/gophblog/internal/server/repositories/repomanager"
)

const (
	UserPostsPerPage   = 3
	RecentPostsPerPage = 5
)

type PostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewPostService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *PostService {
	return &PostService{db: db, repomanager: m, log: log.With("module", "posts")}
}

// ListByAuthor returns page (1-based) of the posts written by username,
// newest first. Pages past the end are common.ErrPageOutOfRange, except
// page 1 which is always valid.
func (s *PostService) ListByAuthor(ctx context.Context, username string, page int) (*models.PostPage, error) {
	if page < 1 {
		return nil, common.ErrPageOutOfRange
	}

	author, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("error loading author: %w", err)
	}

	repo := s.repomanager.Posts(s.db)
	total, err := repo.CountByAuthor(ctx, author.ID)
	if err != nil {
		return nil, err
	}

	offset, err := pageOffset(page, UserPostsPerPage, total)
	if err != nil {
		return nil, err
	}

	items, err := repo.ListByAuthor(ctx, author.ID, UserPostsPerPage, offset)
	if err != nil {
		return nil, err
	}

	return &models.PostPage{Items: items, Page: page, PerPage: UserPostsPerPage, Total: total, Author: author}, nil
}

// ListRecent returns page (1-based) of all posts, newest first.
func (s *PostService) ListRecent(ctx context.Context, page int) (*models.PostPage, error) {
	if page < 1 {
		return nil, common.ErrPageOutOfRange
	}

	repo := s.repomanager.Posts(s.db)
	total, err := repo.CountAll(ctx)
	if err != nil {
		return nil, err
	}

	offset, err := pageOffset(page, RecentPostsPerPage, total)
	if err != nil {
		return nil, err
	}

	items, err := repo.ListRecent(ctx, RecentPostsPerPage, offset)
	if err != nil {
		return nil, err
	}

	return &models.PostPage{Items: items, Page: page, PerPage: RecentPostsPerPage, Total: total}, nil
}

// Create publishes a post by author.
func (s *PostService) Create(ctx context.Context, author *models.User, title, content string) (*models.Post, error) {
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) > maxTitleLen {
		return nil, invalid("title", "must be between 1 and %d characters long", maxTitleLen)
	}
	if strings.TrimSpace(content) == "" {
		return nil, invalid("content", "this field is required")
	}

	post, err := s.repomanager.Posts(s.db).Create(ctx, &models.Post{Title: title, Content: content, UserID: author.ID})
	if err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}
	post.Author = author

	s.log.Info(ctx, "post created", "post_id", post.ID, "user_id", author.ID)
	return post, nil
}

// pageOffset checks page against the page count before multiplying, so huge
// page numbers cannot overflow into a negative offset.
func pageOffset(page, perPage, total int) (int, error) {
	if page < 1 {
		return 0, common.ErrPageOutOfRange
	}
	pages := (total + perPage - 1) / perPage
	if page > 1 && page > pages {
		return 0, common.ErrPageOutOfRange
	}
	return (page - 1) * perPage, nil
}
