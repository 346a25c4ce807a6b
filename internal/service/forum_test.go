package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfside/shelfside/internal/domain"
	domainerrors "github.com/shelfside/shelfside/internal/errors"
	"github.com/shelfside/shelfside/internal/store"
	"github.com/shelfside/shelfside/internal/store/sqlite"
)

func TestForumService_CreatePost(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := h.user(t, "reader", domain.RoleUser)

	item, err := h.forum.CreatePost(ctx, u.ID, CreatePostRequest{Content: "  hello forum  "})
	require.NoError(t, err)
	assert.Equal(t, "hello forum", item.Content)
	assert.Equal(t, "reader", item.Author.DisplayName)
	assert.Nil(t, item.Book)
	assert.Empty(t, item.LikerIDs)

	_, err = h.forum.CreatePost(ctx, u.ID, CreatePostRequest{Content: "hi"})
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))

	_, err = h.forum.CreatePost(ctx, u.ID, CreatePostRequest{Content: "about nothing", BookID: "book-missing"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestForumService_FeedFiltersByBook(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := h.user(t, "reader", domain.RoleUser)
	b := h.upload(t, u, "dune.epub", "dune")

	_, err := h.forum.CreatePost(ctx, u.ID, CreatePostRequest{Content: "about dune", BookID: b.ID})
	require.NoError(t, err)
	_, err = h.forum.CreatePost(ctx, u.ID, CreatePostRequest{Content: "general chatter"})
	require.NoError(t, err)

	all, err := h.forum.Feed(ctx, sqlite.FeedFilter{}, store.PaginationParams{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
	assert.Equal(t, "general chatter", all.Items[0].Content)

	byBook, err := h.forum.Feed(ctx, sqlite.FeedFilter{BookID: b.ID}, store.PaginationParams{})
	require.NoError(t, err)
	require.Len(t, byBook.Items, 1)
	assert.Equal(t, "dune", byBook.Items[0].Book.Title)

	_, err = h.forum.Feed(ctx, sqlite.FeedFilter{}, store.PaginationParams{Cursor: "%%%"})
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
}

func TestForumService_CommentsAndLikes(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.user(t, "alice", domain.RoleUser)
	bob := h.user(t, "bobby", domain.RoleUser)

	post, err := h.forum.CreatePost(ctx, alice.ID, CreatePostRequest{Content: "what to read next"})
	require.NoError(t, err)

	c, err := h.forum.AddComment(ctx, bob.ID, post.ID, CreateCommentRequest{Content: "Dune"})
	require.NoError(t, err)
	assert.Equal(t, "bobby", c.Author.DisplayName)

	_, err = h.forum.AddComment(ctx, bob.ID, post.ID, CreateCommentRequest{Content: "   "})
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))

	_, err = h.forum.AddComment(ctx, bob.ID, "post-missing", CreateCommentRequest{Content: "hello"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))

	res, err := h.forum.ToggleLike(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: true, Count: 1}, *res)

	thread, err := h.forum.Thread(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, thread.LikedBy(bob.ID))
	assert.Len(t, thread.Comments, 1)

	res, err = h.forum.ToggleLike(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: false, Count: 0}, *res)
}

func TestForumService_DeletePermissions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.user(t, "alice", domain.RoleUser)
	bob := h.user(t, "bobby", domain.RoleUser)
	admin := h.user(t, "admin", domain.RoleAdmin)

	post, err := h.forum.CreatePost(ctx, alice.ID, CreatePostRequest{Content: "delete me maybe"})
	require.NoError(t, err)
	c, err := h.forum.AddComment(ctx, alice.ID, post.ID, CreateCommentRequest{Content: "me too"})
	require.NoError(t, err)

	assert.True(t, domainerrors.Is(h.forum.DeleteComment(ctx, bob, c.ID), domainerrors.ErrForbidden))
	require.NoError(t, h.forum.DeleteComment(ctx, alice, c.ID))
	assert.True(t, domainerrors.Is(h.forum.DeleteComment(ctx, alice, c.ID), domainerrors.ErrNotFound))

	assert.True(t, domainerrors.Is(h.forum.DeletePost(ctx, bob, post.ID), domainerrors.ErrForbidden))
	require.NoError(t, h.forum.DeletePost(ctx, admin, post.ID))

	_, err = h.forum.Thread(ctx, post.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}
