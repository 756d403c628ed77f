// Package srs implements the SM-2 review scheduler.
//
// Schedule is a pure function: it performs no I/O and reads no clock, so the
// same state, quality and time always produce the same result.
package srs

import (
	"math"
	"time"
)

const (
	// DefaultEasinessFactor is assigned to every new card.
	DefaultEasinessFactor = 2.5

	// MinEasinessFactor is the hard floor for the E-Factor.
	MinEasinessFactor = 1.3

	// MaxInterval caps the interval (in days) so long streaks cannot overflow.
	MaxInterval = 36500

	// DayMillis is one scheduling day in epoch milliseconds.
	DayMillis int64 = 86_400_000
)

// State is the per-card scheduling state.
type State struct {
	Interval       int     `json:"interval"`
	Repetition     int     `json:"repetition"`
	EasinessFactor float64 `json:"efactor"`
	NextReviewAt   int64   `json:"nextReview"`
}

// NewState returns the state of a never-reviewed card, due at now.
func NewState(now time.Time) State {
	return State{
		Interval:       0,
		Repetition:     0,
		EasinessFactor: DefaultEasinessFactor,
		NextReviewAt:   now.UnixMilli(),
	}
}

// IsDue reports whether the state is due at now.
func (s State) IsDue(now time.Time) bool {
	return s.NextReviewAt <= now.UnixMilli()
}

// Schedule computes the next state after a review rated quality at now.
// Out-of-range qualities are clamped to [0, 5].
func Schedule(s State, quality int, now time.Time) State {
	q := ClampQuality(quality)

	interval := max(s.Interval, 0)
	repetition := max(s.Repetition, 0)
	ef := s.EasinessFactor

	if q.IsPass() {
		switch repetition {
		case 0:
			interval = 1
		case 1:
			interval = 6
		default:
			interval = int(math.Min(math.Round(float64(interval)*ef), MaxInterval))
		}
		repetition++
	} else {
		repetition = 0
		interval = 1
	}
	// A state loaded with a streak but no interval would otherwise stay due forever.
	interval = max(interval, 1)

	ef = NextEasinessFactor(ef, q)

	return State{
		Interval:       interval,
		Repetition:     repetition,
		EasinessFactor: ef,
		NextReviewAt:   now.UnixMilli() + int64(interval)*DayMillis,
	}
}

// NextEasinessFactor applies the SM-2 E-Factor update, floored at 1.3.
func NextEasinessFactor(ef float64, q Quality) float64 {
	d := float64(MaxQuality - q)
	ef += 0.1 - d*(0.08+d*0.02)
	if ef < MinEasinessFactor {
		return MinEasinessFactor
	}
	return ef
}
