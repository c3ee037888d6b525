// Package emissions trains and serves the greenhouse gas model behind the
// storyteller app: per state linear trends fitted to historical sector data,
// adjusted by the activity figures a visitor submits.
package emissions

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultState is used when a submission does not name one.
	DefaultState = "CA"

	// InitialYear seeds the prediction shown before any submission arrives.
	InitialYear = 2000
)

// Per unit adjustments applied on top of the fitted sector trends, in tonnes
// of CO2e. Sources: EPA passenger vehicle and eGRID emission factors, USDA
// urban tree sequestration estimate.
const (
	tonnesPerMile = 0.000404
	tonnesPerKWh  = 0.000389
	tonnesPerTree = 0.021
)

type trend struct {
	alpha float64
	beta  float64
}

// Predictor holds the fitted model. It is immutable after Train, so it can
// be shared across request handlers without locking.
type Predictor struct {
	trends       map[string]map[string]trend
	maxima       map[string]float64
	accuracy     map[string]float64
	fingerprints map[string]string
	trainedAt    time.Time
}

// Train fits an ordinary least squares trend per state and sector, keeping
// the R squared of each sector fit as the model accuracy figure.
func Train(dataset *Dataset) (*Predictor, error) {
	p := &Predictor{
		trends:       make(map[string]map[string]trend),
		maxima:       make(map[string]float64),
		accuracy:     make(map[string]float64, len(dataset.Sectors)),
		fingerprints: maps.Clone(dataset.Fingerprints),
		trainedAt:    time.Now().UTC(),
	}

	totals := make(map[string]map[int]float64)

	for sector, observations := range dataset.Sectors {
		series := make(map[string][]Observation)
		for _, obs := range observations {
			series[obs.State] = append(series[obs.State], obs)

			if totals[obs.State] == nil {
				totals[obs.State] = make(map[int]float64)
			}
			totals[obs.State][obs.Year] += obs.Value
		}

		var rsquared []float64
		for state, points := range series {
			if len(points) < 2 {
				continue
			}

			xs := make([]float64, len(points))
			ys := make([]float64, len(points))
			for i, obs := range points {
				xs[i] = float64(obs.Year)
				ys[i] = obs.Value
			}

			alpha, beta := stat.LinearRegression(xs, ys, nil, false)
			rsquared = append(rsquared, clamp01(stat.RSquared(xs, ys, nil, alpha, beta)))

			if p.trends[state] == nil {
				p.trends[state] = make(map[string]trend)
			}
			p.trends[state][sector] = trend{alpha: alpha, beta: beta}
		}

		if len(rsquared) > 0 {
			p.accuracy[sector] = stat.Mean(rsquared, nil)
		}
	}

	if len(p.trends) == 0 {
		return nil, ErrInsufficientData
	}

	for state, years := range totals {
		max := 0.0
		for _, total := range years {
			if total > max {
				max = total
			}
		}
		p.maxima[state] = max
	}

	return p, nil
}

// Predict returns the expected GHG level for a state and year, adjusted by
// the visitor's activity: miles driven and electricity used add emissions,
// trees planted subtract their annual sequestration. The result never drops
// below zero.
func (p *Predictor) Predict(state string, year int, trees, miles, electricity float64) (float64, error) {
	trends, ok := p.trends[state]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownState, state)
	}

	baseline := 0.0
	for _, tr := range trends {
		baseline += tr.alpha + tr.beta*float64(year)
	}

	ghg := baseline + miles*tonnesPerMile + electricity*tonnesPerKWh - trees*tonnesPerTree
	if ghg < 0 {
		ghg = 0
	}

	return ghg, nil
}

// StateMax returns the highest historical total emissions recorded for the
// state across all sectors.
func (p *Predictor) StateMax(state string) (float64, error) {
	max, ok := p.maxima[state]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownState, state)
	}
	return max, nil
}

// Accuracy returns the R squared of each sector fit, keyed by sector name.
func (p *Predictor) Accuracy() map[string]float64 {
	return maps.Clone(p.accuracy)
}

// Fingerprints returns the checksum of every dataset file the model was
// trained on.
func (p *Predictor) Fingerprints() map[string]string {
	return maps.Clone(p.fingerprints)
}

// States returns the states the model can predict for, sorted.
func (p *Predictor) States() []string {
	states := slices.Collect(maps.Keys(p.trends))
	sort.Strings(states)
	return states
}

// TrainedAt returns when the model was fitted.
func (p *Predictor) TrainedAt() time.Time {
	return p.trainedAt
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
