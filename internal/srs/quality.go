package srs

import (
	"fmt"
	"strconv"
	"strings"
)

// Quality is a recall rating from 0 (total blackout) to 5 (perfect recall).
type Quality int

const (
	MinQuality Quality = 0
	MaxQuality Quality = 5

	// PassThreshold is the lowest quality that keeps a repetition streak alive.
	PassThreshold Quality = 3
)

// Named ratings offered by the review buttons.
const (
	Again Quality = 0
	Hard  Quality = 2
	Good  Quality = 4
	Easy  Quality = 5
)

var ratingByName = map[string]Quality{
	"again": Again,
	"hard":  Hard,
	"good":  Good,
	"easy":  Easy,
}

// ClampQuality forces q into [0, 5].
func ClampQuality(q int) Quality {
	if q < int(MinQuality) {
		return MinQuality
	}
	if q > int(MaxQuality) {
		return MaxQuality
	}
	return Quality(q)
}

// IsPass reports whether q keeps the repetition streak.
func (q Quality) IsPass() bool {
	return q >= PassThreshold
}

// String returns the button name for named ratings and the digit otherwise.
func (q Quality) String() string {
	switch q {
	case Again:
		return "Again"
	case Hard:
		return "Hard"
	case Good:
		return "Good"
	case Easy:
		return "Easy"
	}
	return strconv.Itoa(int(q))
}

// ParseRating accepts a rating name (again, hard, good, easy; any case) or an
// integer. Integers outside [0, 5] are clamped.
func ParseRating(s string) (Quality, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if q, ok := ratingByName[s]; ok {
		return q, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid rating %q: use again, hard, good, easy or 0-5", s)
	}
	return ClampQuality(n), nil
}
