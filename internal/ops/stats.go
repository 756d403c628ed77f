package ops

import (
	"context"

	"github.com/hpungsan/medmastery/internal/deck"
	"github.com/hpungsan/medmastery/internal/progress"
)

// SubjectStats is one progress entry with its accuracy.
type SubjectStats struct {
	progress.Entry
	Accuracy int `json:"accuracy"`
}

// CategoryStats counts the deck's cards per category.
type CategoryStats struct {
	Category string `json:"category"`
	Cards    int    `json:"cards"`
	Due      int    `json:"due"`
}

// StatsOutput contains the dashboard aggregates.
type StatsOutput struct {
	Subjects []SubjectStats `json:"subjects"`
	// OverallAccuracy is the unweighted mean of per-subject accuracy.
	OverallAccuracy int `json:"overall_accuracy"`
	// WeightedAccuracy is total correct over total attempted.
	WeightedAccuracy int             `json:"weighted_accuracy"`
	TotalAttempted   int             `json:"total_attempted"`
	DeckSize         int             `json:"deck_size"`
	DueCount         int             `json:"due_count"`
	Categories       []CategoryStats `json:"categories"`
}

// Stats aggregates quiz progress and deck state.
func Stats(ctx context.Context, env *Env) (*StatsOutput, error) {
	unlock, err := env.lock(ctx, "stats")
	if err != nil {
		return nil, err
	}
	defer unlock()

	entries := env.Tracker.Entries(ctx)
	out := &StatsOutput{
		Subjects:         make([]SubjectStats, 0, len(entries)),
		OverallAccuracy:  progress.OverallAccuracy(entries),
		WeightedAccuracy: progress.WeightedAccuracy(entries),
		Categories:       []CategoryStats{},
	}
	for _, e := range entries {
		out.Subjects = append(out.Subjects, SubjectStats{Entry: e, Accuracy: progress.Accuracy(e)})
		out.TotalAttempted += e.TotalAttempted
	}

	now := env.Now()
	coll := env.collection(ctx)
	out.DeckSize = coll.Len()
	out.DueCount = len(deck.DueCards(coll, now))

	byCategory := make(map[string]*CategoryStats)
	for _, name := range coll.Categories() {
		out.Categories = append(out.Categories, CategoryStats{Category: name})
	}
	for i := range out.Categories {
		byCategory[out.Categories[i].Category] = &out.Categories[i]
	}
	for _, c := range coll.Cards() {
		cs := byCategory[c.Category]
		cs.Cards++
		if c.IsDue(now) {
			cs.Due++
		}
	}
	return out, nil
}
