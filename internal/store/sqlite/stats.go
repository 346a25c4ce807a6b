package sqlite

import (
	"context"
	"fmt"

	"github.com/shelfside/shelfside/internal/domain"
)

// AdminStats returns the headline counts for the admin dashboard.
func (s *Store) AdminStats(ctx context.Context) (*domain.AdminStats, error) {
	var st domain.AdminStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM books),
			(SELECT COUNT(*) FROM posts),
			(SELECT COUNT(*) FROM comments)`,
	).Scan(&st.Users, &st.Books, &st.Posts, &st.Comments)
	if err != nil {
		return nil, fmt.Errorf("admin stats: %w", err)
	}
	return &st, nil
}

// ProfileStats counts the books userID has opened and the posts and comments
// they have written.
func (s *Store) ProfileStats(ctx context.Context, userID string) (*domain.ProfileStats, error) {
	var st domain.ProfileStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM book_access WHERE user_id = ?),
			(SELECT COUNT(*) FROM posts WHERE author_id = ?),
			(SELECT COUNT(*) FROM comments WHERE author_id = ?)`,
		userID, userID, userID,
	).Scan(&st.BooksAccessed, &st.Posts, &st.Comments)
	if err != nil {
		return nil, fmt.Errorf("profile stats: %w", err)
	}
	return &st, nil
}
