package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository provides PostgreSQL backed persistence for users.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, username, email, password_hash, full_name, department, status, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName, &u.Department, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new account.
func (r *Repository) Create(ctx context.Context, u User) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, full_name, department, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id`,
		u.Username, u.Email, u.PasswordHash, u.FullName, u.Department, u.Status,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: username or email taken", shared.ErrDuplicate)
		}
		return 0, err
	}
	return id, nil
}

// Get retrieves one user by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetByLogin matches a username or email.
func (r *Repository) GetByLogin(ctx context.Context, login string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1 OR email = $1`, userColumns)
	return scanUser(r.pool.QueryRow(ctx, query, login))
}

// ListPending returns accounts awaiting a decision.
func (r *Repository) ListPending(ctx context.Context) ([]User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE status = $1 ORDER BY created_at`, userColumns)
	rows, err := r.pool.Query(ctx, query, UserStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateStatus decides a pending account.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status UserStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
