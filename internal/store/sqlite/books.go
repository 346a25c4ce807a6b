package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shelfside/shelfside/internal/domain"
	"github.com/shelfside/shelfside/internal/store"
)

// bookColumns must match the scan order in scanBook, which also reads one
// trailing accessed_at column.
const bookColumns = `b.id, b.created_at, b.updated_at, b.title, b.author, b.file_url, b.file_size,
	b.original_file_name, b.cover_url, b.cover_blur_hash, b.uploader_id`

func scanBook(sc scanner, extra ...any) (*domain.Book, error) {
	var (
		b                    domain.Book
		createdAt, updatedAt string
		uploader, accessedAt sql.NullString
	)
	dest := []any{
		&b.ID, &createdAt, &updatedAt, &b.Title, &b.Author, &b.FileURL, &b.FileSize,
		&b.OriginalFileName, &b.CoverURL, &b.CoverBlurHash, &uploader, &accessedAt,
	}
	if err := sc.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	var err error
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if b.LastAccessedAt, err = parseNullableTime(accessedAt); err != nil {
		return nil, err
	}
	b.UploaderID = uploader.String
	return &b, nil
}

// CreateBook inserts book.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (id, created_at, updated_at, title, author, file_url, file_size,
			original_file_name, cover_url, cover_blur_hash, uploader_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID, formatTime(book.CreatedAt), formatTime(book.UpdatedAt), book.Title, book.Author,
		book.FileURL, book.FileSize, book.OriginalFileName, book.CoverURL, book.CoverBlurHash,
		nullString(book.UploaderID),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithMessage("book already exists")
	}
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

// GetBook returns the book with id. When userID is set, LastAccessedAt holds
// that user's last open time.
func (s *Store) GetBook(ctx context.Context, id, userID string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+bookColumns+`, a.accessed_at
		FROM books b
		LEFT JOIN book_access a ON a.book_id = b.id AND a.user_id = ?
		WHERE b.id = ?`, userID, id)

	b, err := scanBook(row)
	if isNoRows(err) {
		return nil, store.ErrNotFound.WithMessage("book not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

// ListBooks returns every book ordered by the user's last access time,
// falling back to the upload time, newest first. With no user the order is
// simply newest upload first.
func (s *Store) ListBooks(ctx context.Context, userID string) ([]*domain.Book, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+bookColumns+`, a.accessed_at
		FROM books b
		LEFT JOIN book_access a ON a.book_id = b.id AND a.user_id = ?
		ORDER BY COALESCE(a.accessed_at, b.created_at) DESC, b.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// FindDuplicateBook returns a book uploaded from the same file name with the
// same size, or store.ErrNotFound.
func (s *Store) FindDuplicateBook(ctx context.Context, originalFileName string, fileSize int64) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+bookColumns+`, NULL
		FROM books b
		WHERE b.original_file_name = ? AND b.file_size = ?
		ORDER BY b.created_at
		LIMIT 1`, originalFileName, fileSize)

	b, err := scanBook(row)
	if isNoRows(err) {
		return nil, store.ErrNotFound.WithMessage("no duplicate book")
	}
	if err != nil {
		return nil, fmt.Errorf("find duplicate book: %w", err)
	}
	return b, nil
}

// DeleteBook removes a book with its posts, their comments and likes, and
// all access records.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE book_id = ?`, id); err != nil {
			return fmt.Errorf("delete book posts: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM book_access WHERE book_id = ?`, id); err != nil {
			return fmt.Errorf("delete book access: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete book: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrNotFound.WithMessage("book not found")
		}
		return nil
	})
}

// RecordBookAccess sets the time userID last opened bookID.
func (s *Store) RecordBookAccess(ctx context.Context, userID, bookID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO book_access (user_id, book_id, accessed_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id, book_id) DO UPDATE SET accessed_at = excluded.accessed_at`,
		userID, bookID, formatTime(at),
	)
	if err != nil {
		return fmt.Errorf("record book access: %w", err)
	}
	return nil
}

// CountBooks returns the number of books.
func (s *Store) CountBooks(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM books`)
}

// ListBookDiscussions returns every book, newest first, with its post and comment counts.
func (s *Store) ListBookDiscussions(ctx context.Context) ([]domain.BookDiscussion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+bookColumns+`, NULL,
			(SELECT COUNT(*) FROM posts p WHERE p.book_id = b.id),
			(SELECT COUNT(*) FROM comments c JOIN posts p ON p.id = c.post_id WHERE p.book_id = b.id)
		FROM books b
		ORDER BY b.created_at DESC, b.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list book discussions: %w", err)
	}
	defer rows.Close()

	var out []domain.BookDiscussion
	for rows.Next() {
		var d domain.BookDiscussion
		b, err := scanBook(rows, &d.PostCount, &d.CommentCount)
		if err != nil {
			return nil, fmt.Errorf("scan book discussion: %w", err)
		}
		d.Book = *b
		out = append(out, d)
	}
	return out, rows.Err()
}
