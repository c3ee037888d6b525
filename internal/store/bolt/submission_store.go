// Package bolt persists submissions in a local bbolt file via bolthold. It
// suits single node deployments that need state to survive restarts without
// running a database server.
package bolt

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/timshannon/bolthold"

	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/store"
)

type SubmissionStore struct {
	db    *bolthold.Store
	clock clockwork.Clock
}

// NewSubmissionStore opens the bolthold file at path, creating it when it
// does not exist yet.
func NewSubmissionStore(path string, clock clockwork.Clock) (*SubmissionStore, error) {
	db, err := bolthold.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open submission database: %w", err)
	}

	return &SubmissionStore{db: db, clock: clock}, nil
}

// Stop closes the underlying database file.
func (s *SubmissionStore) Stop() error {
	return s.db.Close()
}

func (s *SubmissionStore) Save(ctx context.Context, sub store.Submission) (*store.Submission, error) {
	sub.ID = store.NewSubmissionID()
	sub.CreatedAt = s.clock.Now().UTC()

	if err := s.db.Insert(sub.ID, sub); err != nil {
		if errors.Is(err, bolthold.ErrKeyExists) {
			return nil, store.ErrDuplicateSubmission
		}
		return nil, fmt.Errorf("failed to insert submission: %w", err)
	}

	return &sub, nil
}

func (s *SubmissionStore) Latest(ctx context.Context) (*store.Submission, error) {
	subs, err := s.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, store.ErrNoSubmissions
	}

	return subs[0], nil
}

func (s *SubmissionStore) List(ctx context.Context, limit int) ([]*store.Submission, error) {
	// IDs are time sortable, so they break ties between submissions saved
	// within the same clock tick.
	query := (&bolthold.Query{}).SortBy("CreatedAt", "ID").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var subs []store.Submission
	if err := s.db.Find(&subs, query); err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}

	out := make([]*store.Submission, len(subs))
	for i := range subs {
		out[i] = &subs[i]
	}

	return out, nil
}
