package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/furever-community/backend/internal/models"
)

// Postgres error codes (lib/pq errorCodeNames).
const (
	uniqueViolation   = "23505"
	invalidTextSyntax = "22P02" // e.g. a non-UUID id
)

// PostgresStore handles user CRUD against PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the users table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			first_name VARCHAR(100) NOT NULL,
			last_name  VARCHAR(100) NOT NULL,
			username   VARCHAR(50)  UNIQUE NOT NULL,
			email      VARCHAR(255) UNIQUE NOT NULL,
			password   VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ  DEFAULT NOW()
		)
	`)
	return err
}

func (s *PostgresStore) CreateUser(ctx context.Context, firstName, lastName, username, email, hashedPassword string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (first_name, last_name, username, email, password)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, first_name, last_name, username, email, created_at`,
		firstName, lastName, username, email, hashedPassword,
	).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, mapPgError("create user", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, first_name, last_name, username, email, password, created_at
		 FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.Email, &u.Password, &u.CreatedAt)
	if err != nil {
		return nil, mapPgError("get user by email", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, first_name, last_name, username, email, password, created_at
		 FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.Email, &u.Password, &u.CreatedAt)
	if err != nil {
		return nil, mapPgError("get user by id", err)
	}
	return &u, nil
}

// UpdateUser overwrites email and/or username; empty arguments keep the
// stored value.
func (s *PostgresStore) UpdateUser(ctx context.Context, id, email, username string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`UPDATE users
		 SET email    = COALESCE(NULLIF($2, ''), email),
		     username = COALESCE(NULLIF($3, ''), username)
		 WHERE id = $1
		 RETURNING id, first_name, last_name, username, email, created_at`,
		id, email, username,
	).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, mapPgError("update user", err)
	}
	return &u, nil
}

func (s *PostgresStore) UpdatePassword(ctx context.Context, id, hashedPassword string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET password = $2 WHERE id = $1`, id, hashedPassword)
	if err != nil {
		return mapPgError("update password", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapPgError("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UsernamesByID resolves a set of user ids to usernames. Ids that no
// longer exist are simply absent from the result.
func (s *PostgresStore) UsernamesByID(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, username FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("usernames by id: %w", err)
	}
	defer rows.Close()

	names := make(map[string]string, len(ids))
	for rows.Next() {
		var id, username string
		if err := rows.Scan(&id, &username); err != nil {
			return nil, err
		}
		names[id] = username
	}
	return names, rows.Err()
}

func mapPgError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return ErrDuplicate
		case invalidTextSyntax:
			return ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
