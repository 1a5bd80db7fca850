package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// SQLRepository provides PostgreSQL backed account persistence.
type SQLRepository struct {
	pool *pgxpool.Pool
}

func NewSQLRepository(pool *pgxpool.Pool) *SQLRepository {
	return &SQLRepository{pool: pool}
}

func (r *SQLRepository) CreateUser(ctx context.Context, email, name, passwordHash string) (User, error) {
	const query = `
		INSERT INTO auth_user (email, name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, email, name, password_hash, created_at`
	var u User
	err := r.pool.QueryRow(ctx, query, email, name, passwordHash).Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, fmt.Errorf("%w: %s", ErrEmailTaken, email)
		}
		return User{}, fmt.Errorf("auth: create user: %w", err)
	}
	return u, nil
}

func (r *SQLRepository) UserByEmail(ctx context.Context, email string) (User, error) {
	const query = `
		SELECT id, email, name, password_hash, created_at
		FROM auth_user
		WHERE email = $1`
	return r.scanUser(ctx, query, email)
}

func (r *SQLRepository) UserByID(ctx context.Context, id int64) (User, error) {
	const query = `
		SELECT id, email, name, password_hash, created_at
		FROM auth_user
		WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

func (r *SQLRepository) scanUser(ctx context.Context, query string, arg any) (User, error) {
	var u User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, fmt.Errorf("%w: user %v", ErrInvalidCredentials, arg)
		}
		return User{}, fmt.Errorf("auth: get user: %w", err)
	}
	return u, nil
}
