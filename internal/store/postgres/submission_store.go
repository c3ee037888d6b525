// Package postgres implements the submission store on PostgreSQL for
// deployments with more than one instance or real durability needs.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/store"
)

const submissionColumns = `id, state, year, trees, miles, electricity, ghg, created_at`

// SubmissionStore implements store.SubmissionStore backed by PostgreSQL.
type SubmissionStore struct {
	pool  *pgxpool.Pool
	clock clockwork.Clock
}

// NewSubmissionStore connects to PostgreSQL, optionally runs migrations and
// returns the store.
func NewSubmissionStore(ctx context.Context, cfg *Config, clock clockwork.Clock) (*SubmissionStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	pool, err := NewPool(ctx, cfg.Pool)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := runMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &SubmissionStore{pool: pool, clock: clock}, nil
}

// Stop closes the connection pool.
func (s *SubmissionStore) Stop() error {
	log.Info().Msg("Stopping PostgreSQL submission store")
	s.pool.Close()
	return nil
}

func (s *SubmissionStore) Save(ctx context.Context, sub store.Submission) (*store.Submission, error) {
	sub.ID = store.NewSubmissionID()
	sub.CreatedAt = s.clock.Now().UTC()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO submissions (`+submissionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, sub.ID, sub.State, sub.Year, sub.Trees, sub.Miles, sub.Electricity, sub.GHG, sub.CreatedAt)
	if err != nil {
		return nil, mapPostgresError(err)
	}

	return &sub, nil
}

func (s *SubmissionStore) Latest(ctx context.Context) (*store.Submission, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+submissionColumns+`
		FROM submissions
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`)

	sub, err := scanSubmission(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNoSubmissions
	}
	if err != nil {
		return nil, mapPostgresError(err)
	}

	return sub, nil
}

func (s *SubmissionStore) List(ctx context.Context, limit int) ([]*store.Submission, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM submissions
		ORDER BY created_at DESC, id DESC
	`

	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var subs []*store.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, mapPostgresError(err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPostgresError(err)
	}

	return subs, nil
}

func scanSubmission(row pgx.Row) (*store.Submission, error) {
	var sub store.Submission
	err := row.Scan(&sub.ID, &sub.State, &sub.Year, &sub.Trees, &sub.Miles,
		&sub.Electricity, &sub.GHG, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
