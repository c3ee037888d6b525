package emissions

// Level is the certificate grade awarded for a predicted GHG figure.
type Level string

const (
	LevelGold   Level = "Gold"
	LevelSilver Level = "Silver"
	LevelBronze Level = "Bronze"
)

// Grading thresholds in the dataset's emissions unit.
const (
	goldBelow   = 3000.0
	silverBelow = 4000.0
)

// Certificate grades a predicted GHG level. Grading only applies from 2020
// onwards; earlier years earn no certificate and the second return value is
// false.
func Certificate(year int, ghg float64) (Level, bool) {
	if year < 2020 {
		return "", false
	}

	switch {
	case ghg < goldBelow:
		return LevelGold, true
	case ghg < silverBelow:
		return LevelSilver, true
	default:
		return LevelBronze, true
	}
}
