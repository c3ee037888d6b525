package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/syang0624/NASASpaceAppsChallenge2024"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Model metrics
	PredictionsTotal      metric.Int64Counter
	PredictionErrorsTotal metric.Int64Counter
	ModelTrainDuration    metric.Float64Histogram

	// Story metrics
	StoriesGeneratedTotal metric.Int64Counter
	StoryDuration         metric.Float64Histogram

	// Submission metrics
	SubmissionsSavedTotal metric.Int64Counter
	SubmissionSaveErrors  metric.Int64Counter

	// HTTP metrics
	RequestsTotal   metric.Int64Counter
	RequestDuration metric.Float64Histogram
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	// Model metrics
	m.PredictionsTotal, _ = meter.Int64Counter(
		"ghg.predictions.total",
		metric.WithDescription("Total number of emission predictions computed"),
		metric.WithUnit("{prediction}"),
	)

	m.PredictionErrorsTotal, _ = meter.Int64Counter(
		"ghg.predictions.errors.total",
		metric.WithDescription("Total number of failed emission predictions"),
		metric.WithUnit("{error}"),
	)

	m.ModelTrainDuration, _ = meter.Float64Histogram(
		"ghg.model.train.duration",
		metric.WithDescription("Duration of model training runs"),
		metric.WithUnit("ms"),
	)

	// Story metrics
	m.StoriesGeneratedTotal, _ = meter.Int64Counter(
		"ghg.stories.generated.total",
		metric.WithDescription("Total number of stories generated"),
		metric.WithUnit("{story}"),
	)

	m.StoryDuration, _ = meter.Float64Histogram(
		"ghg.stories.duration",
		metric.WithDescription("Duration of story generation"),
		metric.WithUnit("ms"),
	)

	// Submission metrics
	m.SubmissionsSavedTotal, _ = meter.Int64Counter(
		"ghg.submissions.saved.total",
		metric.WithDescription("Total number of visitor submissions saved"),
		metric.WithUnit("{submission}"),
	)

	m.SubmissionSaveErrors, _ = meter.Int64Counter(
		"ghg.submissions.errors.total",
		metric.WithDescription("Total number of submission save failures"),
		metric.WithUnit("{error}"),
	)

	// HTTP metrics
	m.RequestsTotal, _ = meter.Int64Counter(
		"ghg.http.requests.total",
		metric.WithDescription("Total number of HTTP requests served"),
		metric.WithUnit("{request}"),
	)

	m.RequestDuration, _ = meter.Float64Histogram(
		"ghg.http.request.duration",
		metric.WithDescription("Duration of HTTP requests"),
		metric.WithUnit("ms"),
	)

	return m
}
