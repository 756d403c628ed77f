package ops

import (
	"context"

	"github.com/hpungsan/medmastery/internal/deck"
)

// AddCardInput contains parameters for the AddCard operation.
type AddCardInput struct {
	ID         string // optional; a ULID is generated when empty
	Front      string // required
	Back       string // required
	Category   string
	Difficulty string
}

// AddCardOutput contains the result of the AddCard operation.
type AddCardOutput struct {
	Card    CardView `json:"card"`
	Warning string   `json:"warning,omitempty"`
}

// AddCard appends a user-authored card, due immediately.
func AddCard(ctx context.Context, env *Env, input AddCardInput) (*AddCardOutput, error) {
	// Size and content checks first, so a bad card never waits on the lock.
	nc := deck.NewCard{
		ID:         input.ID,
		Front:      input.Front,
		Back:       input.Back,
		Category:   input.Category,
		Difficulty: input.Difficulty,
	}
	if err := env.Deck.Validate(nc); err != nil {
		return nil, err
	}

	unlock, err := env.lock(ctx, "add")
	if err != nil {
		return nil, err
	}
	defer unlock()

	card, err := env.Deck.Add(ctx, env.collection(ctx), nc)
	warn, err := env.warning(err)
	if err != nil {
		return nil, err
	}
	return &AddCardOutput{Card: newCardView(card, env.Now()), Warning: warn}, nil
}
