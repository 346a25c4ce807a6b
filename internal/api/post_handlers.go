package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfside/shelfside/internal/domain"
	"github.com/shelfside/shelfside/internal/service"
	"github.com/shelfside/shelfside/internal/store"
	"github.com/shelfside/shelfside/internal/store/sqlite"
)

func (s *Server) registerPostRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPosts",
		Method:      http.MethodGet,
		Path:        "/api/v1/posts",
		Summary:     "List posts",
		Description: "Returns the discussion feed newest first, optionally for one book or author",
		Tags:        []string{"Forum"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListPosts)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createPost",
		Method:        http.MethodPost,
		Path:          "/api/v1/posts",
		Summary:       "Create post",
		Description:   "Publishes a post, optionally about a book",
		Tags:          []string{"Forum"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreatePost)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPost",
		Method:      http.MethodGet,
		Path:        "/api/v1/posts/{id}",
		Summary:     "Get post thread",
		Description: "Returns a post with all of its comments, oldest first",
		Tags:        []string{"Forum"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetPost)

	huma.Register(s.api, huma.Operation{
		OperationID: "deletePost",
		Method:      http.MethodDelete,
		Path:        "/api/v1/posts/{id}",
		Summary:     "Delete post",
		Description: "Deletes a post; allowed to its author or an admin",
		Tags:        []string{"Forum"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeletePost)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createComment",
		Method:        http.MethodPost,
		Path:          "/api/v1/posts/{id}/comments",
		Summary:       "Comment on post",
		Description:   "Adds a comment to a post",
		Tags:          []string{"Forum"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "togglePostLike",
		Method:      http.MethodPost,
		Path:        "/api/v1/posts/{id}/like",
		Summary:     "Toggle like",
		Description: "Likes the post, or removes the caller's like",
		Tags:        []string{"Forum"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleToggleLike)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteComment",
		Method:      http.MethodDelete,
		Path:        "/api/v1/comments/{id}",
		Summary:     "Delete comment",
		Description: "Deletes a comment; allowed to its author or an admin",
		Tags:        []string{"Forum"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteComment)
}

// === DTOs ===

// ListPostsInput contains feed filters and paging.
type ListPostsInput struct {
	Authorization string `header:"Authorization"`
	BookID        string `query:"book_id" doc:"Only posts about this book"`
	AuthorID      string `query:"author_id" doc:"Only posts by this user"`
	Limit         int    `query:"limit" minimum:"0" maximum:"200" doc:"Page size"`
	Cursor        string `query:"cursor" doc:"Cursor from the previous page"`
}

// PostResponse is a feed item as seen by the caller.
type PostResponse struct {
	domain.FeedItem
	LikedByMe bool `json:"liked_by_me" doc:"Whether the caller likes the post"`
}

func newPostResponse(item *domain.FeedItem, viewerID string) PostResponse {
	if item.LikerIDs == nil {
		item.LikerIDs = []string{}
	}
	return PostResponse{FeedItem: *item, LikedByMe: item.LikedBy(viewerID)}
}

// FeedResponse is one page of the feed.
type FeedResponse struct {
	Posts      []PostResponse `json:"posts" doc:"Posts, newest first"`
	NextCursor string         `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	HasMore    bool           `json:"has_more" doc:"Whether more posts follow"`
}

// FeedOutput wraps the feed for Huma.
type FeedOutput struct {
	Body FeedResponse
}

// CreatePostRequest is the request body for a new post.
type CreatePostRequest struct {
	Content string `json:"content" doc:"Plain-text content, at least 3 characters"`
	BookID  string `json:"book_id,omitempty" doc:"Book the post is about"`
}

// CreatePostInput wraps the create post request for Huma.
type CreatePostInput struct {
	Authorization string `header:"Authorization"`
	Body          CreatePostRequest
}

// PostOutput wraps a post for Huma.
type PostOutput struct {
	Body PostResponse
}

// PostIDInput identifies a post.
type PostIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Post ID"`
}

// ThreadResponse is a post with its comments.
type ThreadResponse struct {
	Post     PostResponse         `json:"post" doc:"The post"`
	Comments []domain.CommentView `json:"comments" doc:"Comments, oldest first"`
}

// ThreadOutput wraps a thread for Huma.
type ThreadOutput struct {
	Body ThreadResponse
}

// CreateCommentRequest is the request body for a new comment.
type CreateCommentRequest struct {
	Content string `json:"content" doc:"Plain-text content"`
}

// CreateCommentInput wraps the comment request for Huma.
type CreateCommentInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Post ID"`
	Body          CreateCommentRequest
}

// CommentOutput wraps a comment for Huma.
type CommentOutput struct {
	Body *domain.CommentView
}

// LikeOutput wraps the like toggle result for Huma.
type LikeOutput struct {
	Body *service.LikeResult
}

// CommentIDInput identifies a comment.
type CommentIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Comment ID"`
}

// === Handlers ===

func (s *Server) handleListPosts(ctx context.Context, input *ListPostsInput) (*FeedOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Forum.Feed(ctx,
		sqlite.FeedFilter{BookID: input.BookID, AuthorID: input.AuthorID},
		store.PaginationParams{Limit: input.Limit, Cursor: input.Cursor},
	)
	if err != nil {
		return nil, err
	}

	posts := make([]PostResponse, len(page.Items))
	for i, item := range page.Items {
		posts[i] = newPostResponse(item, user.ID)
	}
	return &FeedOutput{Body: FeedResponse{
		Posts:      posts,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}}, nil
}

func (s *Server) handleCreatePost(ctx context.Context, input *CreatePostInput) (*PostOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	item, err := s.services.Forum.CreatePost(ctx, user.ID, service.CreatePostRequest{
		Content: input.Body.Content,
		BookID:  input.Body.BookID,
	})
	if err != nil {
		return nil, err
	}
	return &PostOutput{Body: newPostResponse(item, user.ID)}, nil
}

func (s *Server) handleGetPost(ctx context.Context, input *PostIDInput) (*ThreadOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	thread, err := s.services.Forum.Thread(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	comments := thread.Comments
	if comments == nil {
		comments = []domain.CommentView{}
	}
	return &ThreadOutput{Body: ThreadResponse{
		Post:     newPostResponse(&thread.FeedItem, user.ID),
		Comments: comments,
	}}, nil
}

func (s *Server) handleDeletePost(ctx context.Context, input *PostIDInput) (*struct{}, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	return nil, s.services.Forum.DeletePost(ctx, user, input.ID)
}

func (s *Server) handleCreateComment(ctx context.Context, input *CreateCommentInput) (*CommentOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	comment, err := s.services.Forum.AddComment(ctx, user.ID, input.ID, service.CreateCommentRequest{
		Content: input.Body.Content,
	})
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: comment}, nil
}

func (s *Server) handleToggleLike(ctx context.Context, input *PostIDInput) (*LikeOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	res, err := s.services.Forum.ToggleLike(ctx, user.ID, input.ID)
	if err != nil {
		return nil, err
	}
	return &LikeOutput{Body: res}, nil
}

func (s *Server) handleDeleteComment(ctx context.Context, input *CommentIDInput) (*struct{}, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	return nil, s.services.Forum.DeleteComment(ctx, user, input.ID)
}
