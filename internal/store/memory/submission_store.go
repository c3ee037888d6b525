// Package memory implements the submission store with in-memory storage.
// Everything is lost on restart, which is fine for local development and
// mirrors how the service behaved before it grew persistence.
package memory

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/store"
)

// SubmissionStore keeps submissions in an append only slice guarded by a
// read write mutex.
type SubmissionStore struct {
	mu          sync.RWMutex
	submissions []store.Submission
	clock       clockwork.Clock
}

func NewSubmissionStore(clock clockwork.Clock) *SubmissionStore {
	return &SubmissionStore{clock: clock}
}

func (s *SubmissionStore) Save(ctx context.Context, sub store.Submission) (*store.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub.ID = store.NewSubmissionID()
	sub.CreatedAt = s.clock.Now().UTC()
	s.submissions = append(s.submissions, sub)

	saved := sub
	return &saved, nil
}

func (s *SubmissionStore) Latest(ctx context.Context) (*store.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.submissions) == 0 {
		return nil, store.ErrNoSubmissions
	}

	latest := s.submissions[len(s.submissions)-1]
	return &latest, nil
}

func (s *SubmissionStore) List(ctx context.Context, limit int) ([]*store.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.submissions)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]*store.Submission, 0, n)
	for i := len(s.submissions) - 1; i >= len(s.submissions)-n; i-- {
		sub := s.submissions[i]
		out = append(out, &sub)
	}

	return out, nil
}
