package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/barklazza/projeto-vendas/types"
)

const userColumns = `id, open_id, name, email, login_method, role, created_at, updated_at, last_signed_in`

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.OpenID,
		&user.Name,
		&user.Email,
		&user.LoginMethod,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.LastSignedIn,
	)
	return user, err
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	if err := available(r.db); err != nil {
		return types.User{}, err
	}

	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// GetByOpenID looks a user up by provider id. Without a database it
// reports ErrNotFound so session probing never blocks.
func (r *UserRepository) GetByOpenID(ctx context.Context, openID string) (types.User, error) {
	if r.db == nil {
		return types.User{}, ErrNotFound
	}

	const query = `SELECT ` + userColumns + ` FROM users WHERE open_id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, openID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	if err := available(r.db); err != nil {
		return nil, err
	}

	const query = `SELECT ` + userColumns + ` FROM users ORDER BY email ASC NULLS LAST, id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// Upsert inserts or refreshes the user keyed by open id. Nil identity
// fields keep their stored value; the role falls back to "user" only
// on insert.
func (r *UserRepository) Upsert(ctx context.Context, identity types.Identity) (types.User, error) {
	if err := available(r.db); err != nil {
		return types.User{}, err
	}

	signedIn := identity.LastSignedIn
	if signedIn.IsZero() {
		signedIn = time.Now()
	}
	now := time.Now()

	const query = `
		INSERT INTO users (open_id, name, email, login_method, role, created_at, updated_at, last_signed_in)
		VALUES ($1, $2, $3, $4, COALESCE($5::varchar, 'user'), $6, $6, $7)
		ON CONFLICT (open_id) DO UPDATE
		SET name = COALESCE($2, users.name),
			email = COALESCE($3, users.email),
			login_method = COALESCE($4, users.login_method),
			role = COALESCE($5::varchar, users.role),
			updated_at = $6,
			last_signed_in = $7
		RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRowContext(
		ctx,
		query,
		identity.OpenID,
		identity.Name,
		identity.Email,
		identity.LoginMethod,
		identity.Role,
		now,
		signedIn,
	))
	if err != nil {
		return types.User{}, err
	}
	return user, nil
}

// EnsureRole creates the account if needed and sets its role.
func (r *UserRepository) EnsureRole(ctx context.Context, openID, role string) (types.User, error) {
	if err := available(r.db); err != nil {
		return types.User{}, err
	}

	const query = `
		INSERT INTO users (open_id, role, created_at, updated_at, last_signed_in)
		VALUES ($1, $2, $3, $3, $3)
		ON CONFLICT (open_id) DO UPDATE
		SET role = $2,
			updated_at = $3
		RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRowContext(ctx, query, openID, role, time.Now()))
	if err != nil {
		return types.User{}, err
	}
	return user, nil
}
