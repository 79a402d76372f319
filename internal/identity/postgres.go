package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresResolver resolves tokens against the platform sessions table.
type PostgresResolver struct {
	db *pgxpool.Pool
}

// NewPostgresResolver creates a Resolver backed by the platform database.
func NewPostgresResolver(db *pgxpool.Pool) *PostgresResolver {
	return &PostgresResolver{db: db}
}

// Resolve implements Resolver.
func (r *PostgresResolver) Resolve(ctx context.Context, token string) (int64, error) {
	const q = `
		SELECT user_id
		FROM sessions
		WHERE token = $1 AND expires_at > now()`

	var userID int64
	err := r.db.QueryRow(ctx, q, token).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrUnknownToken
	}
	if err != nil {
		return 0, fmt.Errorf("resolve token: %w", err)
	}
	return userID, nil
}

// PostgresOracle checks membership against the project_members table.
type PostgresOracle struct {
	db *pgxpool.Pool
}

// NewPostgresOracle creates an Oracle backed by the platform database.
func NewPostgresOracle(db *pgxpool.Pool) *PostgresOracle {
	return &PostgresOracle{db: db}
}

// IsMember implements Oracle.
func (o *PostgresOracle) IsMember(ctx context.Context, userID, projectID int64) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM project_members
			WHERE user_id = $1 AND project_id = $2
		)`

	var member bool
	if err := o.db.QueryRow(ctx, q, userID, projectID).Scan(&member); err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return member, nil
}
