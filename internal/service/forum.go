package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shelfside/shelfside/internal/domain"
	domainerrors "github.com/shelfside/shelfside/internal/errors"
	"github.com/shelfside/shelfside/internal/id"
	"github.com/shelfside/shelfside/internal/store"
	"github.com/shelfside/shelfside/internal/store/sqlite"
	"github.com/shelfside/shelfside/internal/validation"
)

// ForumService runs the discussion feed.
type ForumService struct {
	store     *sqlite.Store
	validator *validation.Validator
	logger    *slog.Logger
	now       Clock
}

// NewForumService creates a forum service.
func NewForumService(st *sqlite.Store, v *validation.Validator, logger *slog.Logger) *ForumService {
	return &ForumService{store: st, validator: v, logger: logger, now: time.Now}
}

// CreatePostRequest is a new post, optionally about a book.
type CreatePostRequest struct {
	Content string `json:"content" validate:"required,min=3,max=5000,notblank"`
	BookID  string `json:"book_id,omitempty" validate:"omitempty,max=64"`
}

// CreateCommentRequest is a reply to a post.
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,max=2000,notblank"`
}

// LikeResult reports the state of a post after a like toggle.
type LikeResult struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}

// Feed returns a page of posts, newest first.
func (s *ForumService) Feed(ctx context.Context, filter sqlite.FeedFilter, params store.PaginationParams) (*store.PaginatedResult[*domain.FeedItem], error) {
	page, err := s.store.ListFeed(ctx, filter, params)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return page, nil
}

// Thread returns a post and its comments.
func (s *ForumService) Thread(ctx context.Context, postID string) (*domain.Thread, error) {
	t, err := s.store.GetThread(ctx, postID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return t, nil
}

// CreatePost publishes a post by authorID.
func (s *ForumService) CreatePost(ctx context.Context, authorID string, req CreatePostRequest) (*domain.FeedItem, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if req.BookID != "" {
		if _, err := s.store.GetBook(ctx, req.BookID, ""); err != nil {
			return nil, translateStoreError(err)
		}
	}

	now := s.now()
	post := &domain.Post{
		Record:   domain.Record{ID: id.MustGenerate(id.PrefixPost), CreatedAt: now, UpdatedAt: now},
		Content:  req.Content,
		AuthorID: authorID,
		BookID:   req.BookID,
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info("post created", "post_id", post.ID, "author_id", authorID, "book_id", req.BookID)

	t, err := s.store.GetThread(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	return &t.FeedItem, nil
}

// AddComment replies to postID as authorID.
func (s *ForumService) AddComment(ctx context.Context, authorID, postID string, req CreateCommentRequest) (*domain.CommentView, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	author, err := s.store.GetUser(ctx, authorID)
	if err != nil {
		return nil, translateStoreError(err)
	}

	now := s.now()
	c := &domain.Comment{
		Record:   domain.Record{ID: id.MustGenerate(id.PrefixComment), CreatedAt: now, UpdatedAt: now},
		Content:  req.Content,
		PostID:   postID,
		AuthorID: authorID,
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, translateStoreError(err)
	}

	return &domain.CommentView{Comment: *c, Author: author.Summary()}, nil
}

// ToggleLike likes postID for userID, or removes an existing like.
func (s *ForumService) ToggleLike(ctx context.Context, userID, postID string) (*LikeResult, error) {
	like := &domain.Like{
		ID:        id.MustGenerate(id.PrefixLike),
		PostID:    postID,
		UserID:    userID,
		CreatedAt: s.now(),
	}
	liked, count, err := s.store.ToggleLike(ctx, like)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return &LikeResult{Liked: liked, Count: count}, nil
}

// DeletePost removes a post. Only its author or an admin may.
func (s *ForumService) DeletePost(ctx context.Context, actor *domain.User, postID string) error {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return translateStoreError(err)
	}
	if !actor.CanModify(post.AuthorID) {
		return domainerrors.Forbidden("Only the author or an admin can delete this post")
	}

	if err := s.store.DeletePost(ctx, postID); err != nil {
		return translateStoreError(err)
	}
	s.logger.Info("post deleted", "post_id", postID, "by", actor.ID)
	return nil
}

// DeleteComment removes a comment. Only its author or an admin may.
func (s *ForumService) DeleteComment(ctx context.Context, actor *domain.User, commentID string) error {
	c, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return translateStoreError(err)
	}
	if !actor.CanModify(c.AuthorID) {
		return domainerrors.Forbidden("Only the author or an admin can delete this comment")
	}

	if err := s.store.DeleteComment(ctx, commentID); err != nil {
		return translateStoreError(err)
	}
	s.logger.Info("comment deleted", "comment_id", commentID, "by", actor.ID)
	return nil
}
