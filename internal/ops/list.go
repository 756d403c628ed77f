package ops

import (
	"context"
	"strings"
)

// ListCardsInput contains parameters for the ListCards operation.
type ListCardsInput struct {
	Category string // optional, case-insensitive
	DueOnly  bool
	Limit    int // default: 20, max: 100
	Offset   int // default: 0
}

// ListCardsOutput contains the result of the ListCards operation.
type ListCardsOutput struct {
	Items      []CardView `json:"items"`
	Pagination Pagination `json:"pagination"`
	Categories []string   `json:"categories"`
	Sort       string     `json:"sort"`
}

// ListCards pages through the deck in collection order.
func ListCards(ctx context.Context, env *Env, input ListCardsInput) (*ListCardsOutput, error) {
	limit, offset := clampPage(input.Limit, input.Offset)

	unlock, err := env.lock(ctx, "list")
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := env.Now()
	coll := env.collection(ctx)

	var matched []CardView
	for _, c := range coll.Cards() {
		if input.Category != "" && !strings.EqualFold(c.Category, input.Category) {
			continue
		}
		if input.DueOnly && !c.IsDue(now) {
			continue
		}
		matched = append(matched, newCardView(c, now))
	}

	total := len(matched)
	items := []CardView{}
	if offset < total {
		end := min(offset+limit, total)
		items = matched[offset:end]
	}

	categories := coll.Categories()
	if categories == nil {
		categories = []string{}
	}

	return &ListCardsOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
		Categories: categories,
		Sort:       "collection_order",
	}, nil
}
