// Package risk turns the deviation of an observation from its trailing
// moving average into a bounded score and a discrete severity.
package risk

import (
	"math"
	"strings"
)

// Band thresholds, in percent of absolute change from the moving average.
const (
	NormalMax  = 5.0
	WarningMax = 15.0
)

// Severity classifies the magnitude of a deviation. The zero value is
// Normal; ordering follows deviation magnitude.
type Severity int

const (
	Normal Severity = iota
	Warning
	Critical
)

// String returns the wire/storage representation of the severity.
func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Critical:
		return "critical"
	default:
		return "normal"
	}
}

// MarshalJSON emits the string form so API and queue consumers never see
// the internal ordinal.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON accepts the string form.
func (s *Severity) UnmarshalJSON(data []byte) error {
	v := strings.Trim(string(data), `"`)
	*s = ParseSeverity(v)
	return nil
}

// ParseSeverity maps a stored severity string back to its Severity.
// Unknown values degrade to Normal.
func ParseSeverity(v string) Severity {
	switch v {
	case "warning":
		return Warning
	case "critical":
		return Critical
	default:
		return Normal
	}
}

// Assessment is the complete risk evaluation of a single observation.
type Assessment struct {
	PctChange float64
	Score     int
	Severity  Severity
}

// PercentChange computes the percent deviation of current from avg.
// A zero average means no baseline, which reads as no change signal.
func PercentChange(current, avg float64) float64 {
	if avg == 0 {
		return 0.0
	}
	return ((current - avg) / avg) * 100.0
}

// Score maps |pctChange| onto [0, 100] piecewise-linearly across the
// three severity bands. Truncation (not rounding) at each band is load
// bearing: historical scores must stay reproducible.
func Score(pctChange float64) int {
	abs := math.Abs(pctChange)

	switch {
	case abs < NormalMax:
		// 0-30 range
		if v := int(abs * 6); v < 30 {
			return v
		}
		return 30
	case abs < WarningMax:
		// 31-70 range
		return 31 + int(((abs-NormalMax)/(WarningMax-NormalMax))*39)
	default:
		// 71-100 range; anything past a 50% change is max risk
		additional := int(((abs - WarningMax) / 35.0) * 29)
		if additional > 29 {
			additional = 29
		}
		return 71 + additional
	}
}

// SeverityFor classifies a percent change. Computed independently of
// Score; the two share thresholds but neither derives from the other.
func SeverityFor(pctChange float64) Severity {
	abs := math.Abs(pctChange)
	switch {
	case abs < NormalMax:
		return Normal
	case abs < WarningMax:
		return Warning
	default:
		return Critical
	}
}

// Assess is the single entry point for other components: percent change
// rounded to two decimals, score, and severity for one observation.
func Assess(current, movingAvg float64) Assessment {
	pct := PercentChange(current, movingAvg)
	return Assessment{
		PctChange: math.Round(pct*100) / 100,
		Score:     Score(pct),
		Severity:  SeverityFor(pct),
	}
}
