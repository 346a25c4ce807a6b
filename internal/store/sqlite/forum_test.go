package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfside/shelfside/internal/domain"
	"github.com/shelfside/shelfside/internal/store"
)

func TestListFeed_PagesNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := mustUser(t, s, "alice", domain.RoleUser)

	var ids []string
	for i := range 5 {
		p := mustPost(t, s, u.ID, "", fmt.Sprintf("post number %d", i), at(i))
		ids = append([]string{p.ID}, ids...)
	}

	page, err := s.ListFeed(ctx, FeedFilter{}, store.PaginationParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, ids[:2], []string{page.Items[0].ID, page.Items[1].ID})

	var seen []string
	cursor := ""
	for {
		page, err := s.ListFeed(ctx, FeedFilter{}, store.PaginationParams{Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		for _, it := range page.Items {
			seen = append(seen, it.ID)
		}
		if !page.HasMore {
			assert.Empty(t, page.NextCursor)
			break
		}
		cursor = page.NextCursor
	}
	assert.Equal(t, ids, seen)
}

func TestListFeed_SameTimestampUsesID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := mustUser(t, s, "alice", domain.RoleUser)
	for i := range 3 {
		mustPost(t, s, u.ID, "", fmt.Sprintf("tied post %d", i), base)
	}

	first, err := s.ListFeed(ctx, FeedFilter{}, store.PaginationParams{Limit: 2})
	require.NoError(t, err)
	second, err := s.ListFeed(ctx, FeedFilter{}, store.PaginationParams{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)

	require.Len(t, second.Items, 1)
	for _, it := range first.Items {
		assert.NotEqual(t, it.ID, second.Items[0].ID)
	}
}

func TestListFeed_DenormalizesAuthorBookAndCounts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := mustUser(t, s, "alice", domain.RoleUser)
	bob := mustUser(t, s, "bobby", domain.RoleUser)
	book := mustBook(t, s, "dune", base, alice.ID)

	p := mustPost(t, s, alice.ID, book.ID, "about dune", at(1))
	mustComment(t, s, p.ID, bob.ID, "yes", at(2))
	_, _, err := s.ToggleLike(ctx, newLike(p.ID, bob.ID))
	require.NoError(t, err)
	mustPost(t, s, bob.ID, "", "off topic", at(3))

	page, err := s.ListFeed(ctx, FeedFilter{BookID: book.ID}, store.PaginationParams{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	item := page.Items[0]
	assert.Equal(t, "alice", item.Author.DisplayName)
	require.NotNil(t, item.Book)
	assert.Equal(t, "dune", item.Book.Title)
	assert.Equal(t, 1, item.CommentCount)
	assert.Equal(t, 1, item.LikeCount)
	assert.Equal(t, []string{bob.ID}, item.LikerIDs)

	byBob, err := s.ListFeed(ctx, FeedFilter{AuthorID: bob.ID}, store.PaginationParams{})
	require.NoError(t, err)
	require.Len(t, byBob.Items, 1)
	assert.Nil(t, byBob.Items[0].Book)
	assert.Empty(t, byBob.Items[0].LikerIDs)
}

func TestListFeed_BadCursor(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ListFeed(context.Background(), FeedFilter{}, store.PaginationParams{Cursor: "!!"})
	assert.True(t, errors.Is(err, store.ErrInvalidInput))
}

func TestGetThread_CommentsOldestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := mustUser(t, s, "alice", domain.RoleUser)
	p := mustPost(t, s, u.ID, "", "thread root", at(0))
	second := mustComment(t, s, p.ID, u.ID, "second", at(2))
	first := mustComment(t, s, p.ID, u.ID, "first", at(1))

	thread, err := s.GetThread(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, thread.Comments, 2)
	assert.Equal(t, first.ID, thread.Comments[0].ID)
	assert.Equal(t, second.ID, thread.Comments[1].ID)
	assert.Equal(t, "alice", thread.Comments[0].Author.DisplayName)
	assert.Equal(t, 2, thread.CommentCount)

	_, err = s.GetThread(ctx, "post-missing")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestCreateComment_MissingPost(t *testing.T) {
	s := newTestStore(t)
	u := mustUser(t, s, "alice", domain.RoleUser)
	c := &domain.Comment{Record: domain.Record{ID: "cmt-x", CreatedAt: base, UpdatedAt: base}, Content: "hi", PostID: "post-missing", AuthorID: u.ID}
	assert.True(t, errors.Is(s.CreateComment(context.Background(), c), store.ErrNotFound))
}

func TestDeleteComment(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := mustUser(t, s, "alice", domain.RoleUser)
	p := mustPost(t, s, u.ID, "", "root post", at(0))
	c := mustComment(t, s, p.ID, u.ID, "bye", at(1))

	got, err := s.GetComment(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "bye", got.Content)

	require.NoError(t, s.DeleteComment(ctx, c.ID))
	_, err = s.GetComment(ctx, c.ID)
	assert.True(t, errors.Is(err, store.ErrNotFound))
	assert.True(t, errors.Is(s.DeleteComment(ctx, c.ID), store.ErrNotFound))
}

func TestToggleLike(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := mustUser(t, s, "alice", domain.RoleUser)
	bob := mustUser(t, s, "bobby", domain.RoleUser)
	p := mustPost(t, s, alice.ID, "", "like me", at(0))

	liked, n, err := s.ToggleLike(ctx, newLike(p.ID, bob.ID))
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, n)

	liked, n, err = s.ToggleLike(ctx, newLike(p.ID, alice.ID))
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 2, n)

	liked, n, err = s.ToggleLike(ctx, newLike(p.ID, bob.ID))
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 1, n)

	_, _, err = s.ToggleLike(ctx, newLike("post-missing", bob.ID))
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestListContributors_MostActiveFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := mustUser(t, s, "alice", domain.RoleUser)
	bob := mustUser(t, s, "bobby", domain.RoleUser)
	book := mustBook(t, s, "dune", base, alice.ID)

	mustPost(t, s, alice.ID, book.ID, "alice one", at(1))
	mustPost(t, s, bob.ID, book.ID, "bob one", at(2))
	mustPost(t, s, bob.ID, book.ID, "bob two", at(3))
	mustPost(t, s, alice.ID, "", "not about the book", at(4))

	got, err := s.ListContributors(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, bob.ID, got[0].User.ID)
	assert.Equal(t, 2, got[0].PostCount)
	assert.Equal(t, alice.ID, got[1].User.ID)
	assert.Equal(t, 1, got[1].PostCount)
}

func TestDeleteBookPosts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := mustUser(t, s, "alice", domain.RoleUser)
	book := mustBook(t, s, "dune", base, u.ID)
	mustPost(t, s, u.ID, book.ID, "one post", at(1))
	mustPost(t, s, u.ID, book.ID, "two post", at(2))
	keep := mustPost(t, s, u.ID, "", "general", at(3))

	n, err := s.DeleteBookPosts(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = s.GetPost(ctx, keep.ID)
	assert.NoError(t, err)
	_, err = s.GetBook(ctx, book.ID, "")
	assert.NoError(t, err)
}

func TestAdminStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := mustUser(t, s, "alice", domain.RoleUser)
	mustUser(t, s, "bobby", domain.RoleUser)
	book := mustBook(t, s, "dune", base, u.ID)
	p := mustPost(t, s, u.ID, book.ID, "a post", at(1))
	mustComment(t, s, p.ID, u.ID, "c1", at(2))
	mustComment(t, s, p.ID, u.ID, "c2", at(3))

	st, err := s.AdminStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.AdminStats{Users: 2, Books: 1, Posts: 1, Comments: 2}, *st)

	ps, err := s.ProfileStats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProfileStats{Posts: 1, Comments: 2}, *ps)
}
