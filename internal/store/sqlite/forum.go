package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shelfside/shelfside/internal/domain"
	"github.com/shelfside/shelfside/internal/store"
)

// FeedFilter narrows a feed listing.
type FeedFilter struct {
	BookID   string // only posts about this book
	AuthorID string // only posts by this user
}

// feedColumns must match the scan order in scanFeedItem.
const feedColumns = `p.id, p.created_at, p.updated_at, p.content, p.author_id, p.book_id,
	u.name, u.nickname, u.avatar_url,
	b.title, b.author,
	(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id),
	(SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id)`

const feedFrom = `FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN books b ON b.id = p.book_id`

func scanFeedItem(sc scanner) (*domain.FeedItem, error) {
	var (
		item                      domain.FeedItem
		createdAt, updatedAt      string
		bookID, title, bookAuthor sql.NullString
		author                    domain.User
	)
	err := sc.Scan(
		&item.ID, &createdAt, &updatedAt, &item.Content, &item.AuthorID, &bookID,
		&author.Name, &author.Nickname, &author.AvatarURL,
		&title, &bookAuthor,
		&item.CommentCount, &item.LikeCount,
	)
	if err != nil {
		return nil, err
	}

	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if item.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	author.ID = item.AuthorID
	item.Author = author.Summary()
	if bookID.Valid {
		item.BookID = bookID.String
		item.Book = &domain.BookSummary{ID: bookID.String, Title: title.String, Author: bookAuthor.String}
	}
	item.LikerIDs = []string{}
	return &item, nil
}

// CreatePost inserts post.
func (s *Store) CreatePost(ctx context.Context, post *domain.Post) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, created_at, updated_at, content, author_id, book_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		post.ID, formatTime(post.CreatedAt), formatTime(post.UpdatedAt), post.Content, post.AuthorID, nullString(post.BookID),
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// GetPost returns the post with id.
func (s *Store) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	var (
		p                    domain.Post
		createdAt, updatedAt string
		bookID               sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, updated_at, content, author_id, book_id FROM posts WHERE id = ?`, id,
	).Scan(&p.ID, &createdAt, &updatedAt, &p.Content, &p.AuthorID, &bookID)
	if isNoRows(err) {
		return nil, store.ErrNotFound.WithMessage("post not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}

	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	p.BookID = bookID.String
	return &p, nil
}

// ListFeed returns one page of posts, newest first, with author, book and counts.
func (s *Store) ListFeed(ctx context.Context, filter FeedFilter, params store.PaginationParams) (*store.PaginatedResult[*domain.FeedItem], error) {
	params.Validate()

	pos, hasCursor, err := store.DecodeCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filter.BookID != "" {
		where = append(where, "p.book_id = ?")
		args = append(args, filter.BookID)
	}
	if filter.AuthorID != "" {
		where = append(where, "p.author_id = ?")
		args = append(args, filter.AuthorID)
	}
	if hasCursor {
		ts := formatTime(pos.CreatedAt)
		where = append(where, "(p.created_at < ? OR (p.created_at = ? AND p.id < ?))")
		args = append(args, ts, ts, pos.ID)
	}

	query := `SELECT ` + feedColumns + ` ` + feedFrom
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY p.created_at DESC, p.id DESC LIMIT ?`
	args = append(args, params.Limit+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}
	defer rows.Close()

	items := []*domain.FeedItem{}
	for rows.Next() {
		item, err := scanFeedItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feed item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}

	result := &store.PaginatedResult[*domain.FeedItem]{Items: items}
	if len(items) > params.Limit {
		result.Items = items[:params.Limit]
		result.HasMore = true
		last := result.Items[len(result.Items)-1]
		result.NextCursor = store.EncodeCursor(store.Position{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	if err := s.loadLikers(ctx, result.Items); err != nil {
		return nil, err
	}
	return result, nil
}

// GetThread returns a post with its comments, oldest first.
func (s *Store) GetThread(ctx context.Context, postID string) (*domain.Thread, error) {
	item, err := scanFeedItem(s.db.QueryRowContext(ctx, `SELECT `+feedColumns+` `+feedFrom+` WHERE p.id = ?`, postID))
	if isNoRows(err) {
		return nil, store.ErrNotFound.WithMessage("post not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get thread: %w", err)
	}
	if err := s.loadLikers(ctx, []*domain.FeedItem{item}); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.created_at, c.updated_at, c.content, c.post_id, c.author_id,
			u.name, u.nickname, u.avatar_url
		FROM comments c JOIN users u ON u.id = c.author_id
		WHERE c.post_id = ?
		ORDER BY c.created_at, c.id`, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	thread := &domain.Thread{FeedItem: *item, Comments: []domain.CommentView{}}
	for rows.Next() {
		var (
			cv                   domain.CommentView
			createdAt, updatedAt string
			author               domain.User
		)
		if err := rows.Scan(&cv.ID, &createdAt, &updatedAt, &cv.Content, &cv.PostID, &cv.AuthorID,
			&author.Name, &author.Nickname, &author.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		if cv.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if cv.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		author.ID = cv.AuthorID
		cv.Author = author.Summary()
		thread.Comments = append(thread.Comments, cv)
	}
	return thread, rows.Err()
}

// loadLikers fills LikerIDs for items.
func (s *Store) loadLikers(ctx context.Context, items []*domain.FeedItem) error {
	if len(items) == 0 {
		return nil
	}

	byID := make(map[string]*domain.FeedItem, len(items))
	args := make([]any, 0, len(items))
	for _, it := range items {
		byID[it.ID] = it
		args = append(args, it.ID)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT post_id, user_id FROM likes WHERE post_id IN (`+placeholders(len(args))+`) ORDER BY created_at`, args...)
	if err != nil {
		return fmt.Errorf("list likes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID, userID string
		if err := rows.Scan(&postID, &userID); err != nil {
			return fmt.Errorf("scan like: %w", err)
		}
		if it, ok := byID[postID]; ok {
			it.LikerIDs = append(it.LikerIDs, userID)
		}
	}
	return rows.Err()
}

// DeletePost removes a post with its comments and likes.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound.WithMessage("post not found")
	}
	return nil
}

// DeleteBookPosts removes every post about bookID and returns how many were removed.
func (s *Store) DeleteBookPosts(ctx context.Context, bookID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE book_id = ?`, bookID)
	if err != nil {
		return 0, fmt.Errorf("delete book posts: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// CreateComment inserts comment. A missing post yields store.ErrNotFound.
func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, created_at, updated_at, content, post_id, author_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		comment.ID, formatTime(comment.CreatedAt), formatTime(comment.UpdatedAt), comment.Content, comment.PostID, comment.AuthorID,
	)
	if err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		return store.ErrNotFound.WithMessage("post not found")
	}
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// GetComment returns the comment with id.
func (s *Store) GetComment(ctx context.Context, id string) (*domain.Comment, error) {
	var (
		c                    domain.Comment
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, updated_at, content, post_id, author_id FROM comments WHERE id = ?`, id,
	).Scan(&c.ID, &createdAt, &updatedAt, &c.Content, &c.PostID, &c.AuthorID)
	if isNoRows(err) {
		return nil, store.ErrNotFound.WithMessage("comment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteComment removes the comment with id.
func (s *Store) DeleteComment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound.WithMessage("comment not found")
	}
	return nil
}

// ToggleLike likes the post for userID, or removes the like if one exists.
// It returns whether the post is now liked and its like count.
func (s *Store) ToggleLike(ctx context.Context, like *domain.Like) (liked bool, count int, err error) {
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE id = ?`, like.PostID).Scan(&exists); err != nil {
			return fmt.Errorf("check post: %w", err)
		}
		if exists == 0 {
			return store.ErrNotFound.WithMessage("post not found")
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE post_id = ? AND user_id = ?`, like.PostID, like.UserID)
		if err != nil {
			return fmt.Errorf("remove like: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO likes (id, created_at, post_id, user_id) VALUES (?, ?, ?, ?)`,
				like.ID, formatTime(like.CreatedAt), like.PostID, like.UserID,
			); err != nil {
				return fmt.Errorf("add like: %w", err)
			}
			liked = true
		}

		return tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE post_id = ?`, like.PostID).Scan(&count)
	})
	return liked, count, err
}

// ListContributors returns the authors of posts about bookID with their post
// counts, most active first.
func (s *Store) ListContributors(ctx context.Context, bookID string) ([]domain.Contributor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.name, u.nickname, u.avatar_url, COUNT(*) AS n
		FROM posts p JOIN users u ON u.id = p.author_id
		WHERE p.book_id = ?
		GROUP BY u.id
		ORDER BY n DESC, MIN(p.created_at)`, bookID)
	if err != nil {
		return nil, fmt.Errorf("list contributors: %w", err)
	}
	defer rows.Close()

	out := []domain.Contributor{}
	for rows.Next() {
		var (
			u domain.User
			c domain.Contributor
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.Nickname, &u.AvatarURL, &c.PostCount); err != nil {
			return nil, fmt.Errorf("scan contributor: %w", err)
		}
		c.User = u.Summary()
		out = append(out, c)
	}
	return out, rows.Err()
}

// CountPosts returns the number of posts.
func (s *Store) CountPosts(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM posts`)
}

// CountComments returns the number of comments.
func (s *Store) CountComments(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM comments`)
}
