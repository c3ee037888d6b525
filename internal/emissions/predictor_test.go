package emissions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// linearDataset builds perfectly linear series so the fitted trends are
// known exactly: CA transport is 1000 + 10 per year from 2000, CA
// electricity 500 + 5 per year, TX transport 2000 + 10 per year.
func linearDataset() *Dataset {
	var transport, electricity []Observation
	for year := 2000; year <= 2004; year++ {
		transport = append(transport, Observation{
			State: "CA", Year: year, Value: 1000 + 10*float64(year-2000),
		})
		electricity = append(electricity, Observation{
			State: "CA", Year: year, Value: 500 + 5*float64(year-2000),
		})
	}
	transport = append(transport,
		Observation{State: "TX", Year: 2000, Value: 2000},
		Observation{State: "TX", Year: 2001, Value: 2010},
	)

	return &Dataset{
		Sectors: map[string][]Observation{
			"transport":   transport,
			"electricity": electricity,
		},
		Fingerprints: map[string]string{
			"TransportX2.csv":   "00000000deadbeef",
			"ElectricityX3.csv": "00000000cafef00d",
		},
	}
}

func TestTrainAndPredict(t *testing.T) {
	predictor, err := Train(linearDataset())
	require.NoError(t, err)

	// Extrapolated baseline for CA in 2010 is 1100 transport + 550
	// electricity.
	ghg, err := predictor.Predict("CA", 2010, 0, 0, 0)
	require.NoError(t, err)
	require.InDelta(t, 1650.0, ghg, 1e-6)

	// 10000 miles add 4.04, 1000 kWh add 0.389, 100 trees remove 2.1.
	ghg, err = predictor.Predict("CA", 2010, 100, 10000, 1000)
	require.NoError(t, err)
	require.InDelta(t, 1652.329, ghg, 1e-6)
}

func TestPredictNeverNegative(t *testing.T) {
	predictor, err := Train(linearDataset())
	require.NoError(t, err)

	ghg, err := predictor.Predict("CA", 2010, 1e9, 0, 0)
	require.NoError(t, err)
	require.Zero(t, ghg)
}

func TestPredictUnknownState(t *testing.T) {
	predictor, err := Train(linearDataset())
	require.NoError(t, err)

	_, err = predictor.Predict("ZZ", 2010, 0, 0, 0)
	require.ErrorIs(t, err, ErrUnknownState)

	_, err = predictor.StateMax("ZZ")
	require.ErrorIs(t, err, ErrUnknownState)
}

func TestStateMax(t *testing.T) {
	predictor, err := Train(linearDataset())
	require.NoError(t, err)

	// CA peaks in 2004 at 1040 transport + 520 electricity.
	max, err := predictor.StateMax("CA")
	require.NoError(t, err)
	require.InDelta(t, 1560.0, max, 1e-9)

	max, err = predictor.StateMax("TX")
	require.NoError(t, err)
	require.InDelta(t, 2010.0, max, 1e-9)
}

func TestAccuracyIsRSquared(t *testing.T) {
	predictor, err := Train(linearDataset())
	require.NoError(t, err)

	accuracy := predictor.Accuracy()
	require.Len(t, accuracy, 2)
	require.InDelta(t, 1.0, accuracy["transport"], 1e-9)
	require.InDelta(t, 1.0, accuracy["electricity"], 1e-9)
}

func TestTrainedModelMetadata(t *testing.T) {
	predictor, err := Train(linearDataset())
	require.NoError(t, err)

	require.Equal(t, []string{"CA", "TX"}, predictor.States())
	require.WithinDuration(t, time.Now().UTC(), predictor.TrainedAt(), time.Minute)

	fingerprints := predictor.Fingerprints()
	require.Equal(t, "00000000deadbeef", fingerprints["TransportX2.csv"])

	// Returned maps are copies.
	fingerprints["TransportX2.csv"] = "mutated"
	require.Equal(t, "00000000deadbeef", predictor.Fingerprints()["TransportX2.csv"])
}

func TestTrainInsufficientData(t *testing.T) {
	tests := []struct {
		name    string
		dataset *Dataset
	}{
		{
			name:    "empty dataset",
			dataset: &Dataset{},
		},
		{
			name: "single observation per state",
			dataset: &Dataset{
				Sectors: map[string][]Observation{
					"transport": {
						{State: "CA", Year: 2000, Value: 1000},
						{State: "TX", Year: 2000, Value: 2000},
					},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Train(tt.dataset)
			require.ErrorIs(t, err, ErrInsufficientData)
		})
	}
}

func TestCertificate(t *testing.T) {
	tests := []struct {
		name     string
		year     int
		ghg      float64
		expected Level
		awarded  bool
	}{
		{
			name: "before grading starts", year: 2019, ghg: 100, expected: "", awarded: false,
		},
		{
			name: "gold from 2020", year: 2020, ghg: 2999.9, expected: LevelGold, awarded: true,
		},
		{
			name: "silver at gold threshold", year: 2020, ghg: 3000, expected: LevelSilver, awarded: true,
		},
		{
			name: "silver below 4000", year: 2024, ghg: 3999.9, expected: LevelSilver, awarded: true,
		},
		{
			name: "bronze at silver threshold", year: 2025, ghg: 4000, expected: LevelBronze, awarded: true,
		},
		{
			name: "bronze above", year: 2030, ghg: 9000, expected: LevelBronze, awarded: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, awarded := Certificate(tt.year, tt.ghg)
			require.Equal(t, tt.awarded, awarded)
			require.Equal(t, tt.expected, level)
		})
	}
}
