package sqlite

import (
	"context"
	"fmt"

	"github.com/shelfside/shelfside/internal/domain"
	"github.com/shelfside/shelfside/internal/store"
)

// userColumns must match the scan order in scanUser.
const userColumns = `id, created_at, updated_at, name, nickname, role, avatar_url, password_hash`

func scanUser(sc scanner) (*domain.User, error) {
	var (
		u                    domain.User
		role                 string
		createdAt, updatedAt string
	)
	if err := sc.Scan(&u.ID, &createdAt, &updatedAt, &u.Name, &u.Nickname, &role, &u.AvatarURL, &u.PasswordHash); err != nil {
		return nil, err
	}

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}

// CreateUser inserts user. A taken name yields store.ErrAlreadyExists.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, formatTime(user.CreatedAt), formatTime(user.UpdatedAt),
		user.Name, user.Nickname, string(user.Role), user.AvatarURL, user.PasswordHash,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithMessage("user name already taken")
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser returns the user with id.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if isNoRows(err) {
		return nil, store.ErrNotFound.WithMessage("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetUserByName returns the user whose login name is name.
func (s *Store) GetUserByName(ctx context.Context, name string) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE name = ?`, name))
	if isNoRows(err) {
		return nil, store.ErrNotFound.WithMessage("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get user by name: %w", err)
	}
	return u, nil
}

// NameTaken reports whether a user other than exceptID has name.
func (s *Store) NameTaken(ctx context.Context, name, exceptID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE name = ? AND id != ?`, name, exceptID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check user name: %w", err)
	}
	return n > 0, nil
}

// ListUsers returns all users, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser replaces the mutable fields of user.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET updated_at = ?, name = ?, nickname = ?, role = ?, avatar_url = ?, password_hash = ?
		WHERE id = ?`,
		formatTime(user.UpdatedAt), user.Name, user.Nickname, string(user.Role), user.AvatarURL, user.PasswordHash, user.ID,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithMessage("user name already taken")
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound.WithMessage("user not found")
	}
	return nil
}

// DeleteUser removes a user together with their posts, comments, likes and access records.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound.WithMessage("user not found")
	}
	return nil
}

// UpsertUserByName creates user, or updates the existing account with the
// same name in place keeping its id and creation time.
func (s *Store) UpsertUserByName(ctx context.Context, user *domain.User) (*domain.User, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			updated_at = excluded.updated_at,
			nickname = excluded.nickname,
			role = excluded.role,
			password_hash = excluded.password_hash`,
		user.ID, formatTime(user.CreatedAt), formatTime(user.UpdatedAt),
		user.Name, user.Nickname, string(user.Role), user.AvatarURL, user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return s.GetUserByName(ctx, user.Name)
}

// CountUsers returns the number of users.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM users`)
}

func (s *Store) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}
