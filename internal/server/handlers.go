package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/emissions"
	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/story"
	"github.com/syang0624/NASASpaceAppsChallenge2024/internal/store"
)

// defaultHistoryLimit caps /ghg/history when the caller does not ask for a
// specific window.
const defaultHistoryLimit = 20

// inputRequest is a visitor submission. The x1/x2/x3 field names are kept
// for compatibility with the deployed frontend.
type inputRequest struct {
	Trees       float64 `json:"x1"`
	Miles       float64 `json:"x2"`
	Electricity float64 `json:"x3"`
	Year        int     `json:"year"`
	State       string  `json:"state"`
}

// outputResponse is the prediction payload the frontend renders. GHG keeps
// its upper case key, the rest is snake_case like the deployed API.
type outputResponse struct {
	GHG               float64            `json:"GHG"`
	Story             string             `json:"story"`
	Year              int                `json:"year"`
	CertificateLevel  *emissions.Level   `json:"certificate_level"`
	StateMaxEmissions float64            `json:"state_max_emissions"`
	ModelAccuracy     map[string]float64 `json:"model_accuracy"`
}

type historyResponse struct {
	Submissions []*store.Submission `json:"submissions"`
	Count       int                 `json:"count"`
}

// modelResponse describes the trained model for operators.
type modelResponse struct {
	Accuracy     map[string]float64 `json:"model_accuracy"`
	States       []string           `json:"states"`
	Fingerprints map[string]string  `json:"dataset_fingerprints"`
	TrainedAt    time.Time          `json:"trained_at"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, messageResponse{Message: "Welcome to the API"})
}

// Health check endpoint for load balancers and uptime monitors.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// handleInput predicts emissions for a visitor submission and stores the
// result. The story and certificate are recomputed when the result is read
// back on /ghg/output.
func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req inputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	state := req.State
	if state == "" {
		state = emissions.DefaultState
	}

	ghg, err := s.predictor.Predict(state, req.Year, req.Trees, req.Miles, req.Electricity)
	if err != nil {
		s.metrics.PredictionErrorsTotal.Add(ctx, 1)
		if errors.Is(err, emissions.ErrUnknownState) {
			s.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		zerolog.Ctx(ctx).Error().Err(err).Msg("prediction failed")
		s.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
		return
	}
	s.metrics.PredictionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("state", state)))

	if _, err := s.submissions.Save(ctx, store.Submission{
		State:       state,
		Year:        req.Year,
		Trees:       req.Trees,
		Miles:       req.Miles,
		Electricity: req.Electricity,
		GHG:         ghg,
	}); err != nil {
		s.metrics.SubmissionSaveErrors.Add(ctx, 1)
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to save submission")
		s.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
		return
	}
	s.metrics.SubmissionsSavedTotal.Add(ctx, 1)

	s.writeJSON(w, r, http.StatusOK, messageResponse{Message: "Data processed successfully"})
}

// handleOutput serves the most recent submission with its certificate and
// story computed on the way out.
func (s *Server) handleOutput(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sub, err := s.submissions.Latest(ctx)
	if errors.Is(err, store.ErrNoSubmissions) {
		// Missing data is a 200 so the frontend can render its empty state.
		s.writeJSON(w, r, http.StatusOK, errorResponse{Error: "No data available"})
		return
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to load latest submission")
		s.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
		return
	}

	level, graded := emissions.Certificate(sub.Year, sub.GHG)

	text, err := s.generateStory(ctx, story.Request{
		State:       sub.State,
		Year:        sub.Year,
		GHG:         sub.GHG,
		Certificate: level,
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to generate story")
		s.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
		return
	}

	stateMax, err := s.predictor.StateMax(sub.State)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to look up state maximum")
		s.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
		return
	}

	resp := outputResponse{
		GHG:               sub.GHG,
		Story:             text,
		Year:              sub.Year,
		StateMaxEmissions: stateMax,
		ModelAccuracy:     s.predictor.Accuracy(),
	}
	if graded {
		resp.CertificateLevel = &level
	}

	zerolog.Ctx(ctx).Info().
		Int("year", sub.Year).
		Float64("ghg", sub.GHG).
		Str("certificate_level", string(level)).
		Msg("served prediction output")

	s.writeJSON(w, r, http.StatusOK, resp)
}

// handleInitial serves the snapshot computed at startup. The baseline year
// predates grading, so no certificate is awarded.
func (s *Server) handleInitial(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, outputResponse{
		GHG:               s.initial.GHG,
		Story:             s.initial.Story,
		Year:              s.initial.Year,
		StateMaxEmissions: s.initial.StateMax,
		ModelAccuracy:     s.initial.Accuracy,
	})
}

// handleHistory lists recent submissions, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	submissions, err := s.submissions.List(ctx, limit)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to list submissions")
		s.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
		return
	}
	if submissions == nil {
		submissions = []*store.Submission{}
	}

	s.writeJSON(w, r, http.StatusOK, historyResponse{
		Submissions: submissions,
		Count:       len(submissions),
	})
}

// handleModel reports what the running service was trained on.
func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, modelResponse{
		Accuracy:     s.predictor.Accuracy(),
		States:       s.predictor.States(),
		Fingerprints: s.predictor.Fingerprints(),
		TrainedAt:    s.predictor.TrainedAt(),
	})
}

func (s *Server) generateStory(ctx context.Context, req story.Request) (string, error) {
	started := s.clock.Now()

	text, err := s.stories.Generate(ctx, req)
	if err != nil {
		return "", err
	}

	s.metrics.StoriesGeneratedTotal.Add(ctx, 1)
	s.metrics.StoryDuration.Record(ctx, float64(s.clock.Since(started).Milliseconds()))

	return text, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode json response")
	}
}
