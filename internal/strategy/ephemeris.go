package strategy

import (
	"math"
	"time"
)

// Ephemeris answers lunar phase questions for a point in time.
type Ephemeris interface {
	// PreviousNewMoon returns the latest new moon at or before t.
	PreviousNewMoon(t time.Time) time.Time
	// PreviousFullMoon returns the latest full moon at or before t.
	PreviousFullMoon(t time.Time) time.Time
}

// SynodicMonth is the mean length of a lunation, 29.530588853 days.
const SynodicMonth = time.Duration(29530588853 * 86400)

// referenceNewMoon is the new moon of 2000-01-06 18:14 UTC.
var referenceNewMoon = time.Date(2000, time.January, 6, 18, 14, 0, 0, time.UTC)

// MeanLunation approximates phases with a fixed synodic month. Errors are in
// the order of half a day, which is below the resolution of daily candles.
type MeanLunation struct{}

func NewMeanLunation() *MeanLunation {
	return &MeanLunation{}
}

func (MeanLunation) PreviousNewMoon(t time.Time) time.Time {
	return previousPhase(t, referenceNewMoon)
}

func (MeanLunation) PreviousFullMoon(t time.Time) time.Time {
	return previousPhase(t, referenceNewMoon.Add(SynodicMonth/2))
}

func previousPhase(t time.Time, reference time.Time) time.Time {
	cycles := math.Floor(float64(t.Sub(reference)) / float64(SynodicMonth))
	phase := reference.Add(time.Duration(cycles * float64(SynodicMonth)))
	// float rounding can land one nanosecond past t
	if phase.After(t) {
		phase = phase.Add(-SynodicMonth)
	}

	return phase
}
