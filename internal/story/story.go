// Package story turns a greenhouse gas prediction into the short narrative
// the frontend shows next to the numbers. Stories come from a hosted language
// model when one is configured and from a deterministic template otherwise.
package story

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/emissions"
)

// Request carries the figures a story is written from. Certificate is empty
// when no grade applies to the year.
type Request struct {
	State       string
	Year        int
	GHG         float64
	Certificate emissions.Level
}

// Generator writes the narrative for a prediction.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Fallback tries the primary generator and falls back to the secondary when
// it fails. The primary's error is logged rather than surfaced so a flaky
// language model can never break the output endpoints.
type Fallback struct {
	primary   Generator
	secondary Generator
}

func NewFallback(primary, secondary Generator) *Fallback {
	return &Fallback{primary: primary, secondary: secondary}
}

func (f *Fallback) Generate(ctx context.Context, req Request) (string, error) {
	text, err := f.primary.Generate(ctx, req)
	if err == nil {
		return text, nil
	}

	log.Warn().Err(err).Msg("story generator failed, falling back to template")

	return f.secondary.Generate(ctx, req)
}
