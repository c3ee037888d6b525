package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

// Sentinel errors for common error conditions
var (
	ErrNoSubmissions       = errors.New("no submissions recorded")
	ErrDuplicateSubmission = errors.New("duplicate submission id")
)

// Submission is one visitor's activity entry together with the prediction
// computed for it. The prediction is stored alongside the inputs so output
// endpoints never re-run the model for historical entries.
type Submission struct {
	ID          string    `json:"id" boltholdKey:"ID"`
	State       string    `json:"state"`
	Year        int       `json:"year"`
	Trees       float64   `json:"trees"`
	Miles       float64   `json:"miles"`
	Electricity float64   `json:"electricity"`
	GHG         float64   `json:"ghg"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewSubmissionID returns a short time sortable identifier: a base58 encoded
// UUIDv7.
func NewSubmissionID() string {
	id := uuid.Must(uuid.NewV7())
	return base58.Encode(id[:])
}

// SubmissionStore defines the interface for submission storage operations.
// Implementations assign ID and CreatedAt during Save.
type SubmissionStore interface {
	// Save stores a submission and returns the stored copy.
	Save(ctx context.Context, sub Submission) (*Submission, error)

	// Latest returns the most recent submission, or ErrNoSubmissions when
	// nothing has been recorded yet.
	Latest(ctx context.Context) (*Submission, error)

	// List returns submissions newest first, at most limit entries. A non
	// positive limit returns everything.
	List(ctx context.Context, limit int) ([]*Submission, error)
}
