// Package server exposes the GHG prediction API consumed by the public
// frontend. Visitors submit their activity, the trained model predicts the
// resulting emissions and a short story narrates the outcome.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/emissions"
	httpmiddleware "github.com/syang0624/NASASpaceAppsChallenge2024/internal/http"
	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/logger"
	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/story"
	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/store"
	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/telemetry"
)

// gzipMinSize leaves responses below this many bytes uncompressed.
const gzipMinSize = 1000

// Server wraps the trained predictor, the story generator and the
// submission store behind the HTTP API.
type Server struct {
	predictor   *emissions.Predictor
	stories     story.Generator
	submissions store.SubmissionStore
	clock       clockwork.Clock
	initial     Initial
	metrics     *telemetry.Metrics
}

// New creates a server with the given model, story generator and store.
func New(predictor *emissions.Predictor, stories story.Generator, submissions store.SubmissionStore, clock clockwork.Clock, initial Initial) *Server {
	return &Server{
		predictor:   predictor,
		stories:     stories,
		submissions: submissions,
		clock:       clock,
		initial:     initial,
		metrics:     telemetry.GetMetrics(),
	}
}

// Initial is the baseline snapshot computed at startup and served on
// /ghg/initial until the first visitor submits data.
type Initial struct {
	Year     int
	GHG      float64
	Story    string
	StateMax float64
	Accuracy map[string]float64
}

// NewInitial computes the startup snapshot: the default state in the
// baseline year with no offsetting activity.
func NewInitial(ctx context.Context, predictor *emissions.Predictor, stories story.Generator) (Initial, error) {
	ghg, err := predictor.Predict(emissions.DefaultState, emissions.InitialYear, 0, 0, 0)
	if err != nil {
		return Initial{}, fmt.Errorf("predicting baseline emissions: %w", err)
	}

	stateMax, err := predictor.StateMax(emissions.DefaultState)
	if err != nil {
		return Initial{}, fmt.Errorf("looking up baseline state maximum: %w", err)
	}

	text, err := stories.Generate(ctx, story.Request{
		State: emissions.DefaultState,
		Year:  emissions.InitialYear,
		GHG:   ghg,
	})
	if err != nil {
		return Initial{}, fmt.Errorf("generating baseline story: %w", err)
	}

	return Initial{
		Year:     emissions.InitialYear,
		GHG:      ghg,
		Story:    text,
		StateMax: stateMax,
		Accuracy: predictor.Accuracy(),
	}, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler(log zerolog.Logger, allowedOrigins []string) (http.Handler, error) {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleWelcome)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /ghg/input", s.handleInput)
	mux.HandleFunc("GET /ghg/output", s.handleOutput)
	mux.HandleFunc("GET /ghg/initial", s.handleInitial)
	mux.HandleFunc("GET /ghg/history", s.handleHistory)
	mux.HandleFunc("GET /ghg/model", s.handleModel)

	gzip, err := httpmiddleware.Gzip(gzipMinSize)
	if err != nil {
		return nil, fmt.Errorf("configuring gzip middleware: %w", err)
	}

	var handler http.Handler = gzip(mux)
	handler = withCORS(allowedOrigins, handler)
	handler = httpmiddleware.Recover()(handler)
	handler = httpmiddleware.Metrics()(handler)
	handler = logger.NewHTTPRequests(log).Middleware()(handler)
	handler = httpmiddleware.ClientIPMiddleware()(handler)

	return handler, nil
}

// withCORS adds CORS support for the browser frontends.
func withCORS(allowedOrigins []string, h http.Handler) http.Handler {
	middleware := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true, // The hosted frontends send credentialed requests.
	})
	return middleware.Handler(h)
}
