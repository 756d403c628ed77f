package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/medmastery/internal/errors"
)

// FetchCardInput contains parameters for the FetchCard operation.
type FetchCardInput struct {
	ID string
}

// FetchCardOutput contains the result of the FetchCard operation.
type FetchCardOutput struct {
	CardView
}

// FetchCard retrieves a card by ID, back included.
func FetchCard(ctx context.Context, env *Env, input FetchCardInput) (*FetchCardOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	unlock, err := env.lock(ctx, "fetch")
	if err != nil {
		return nil, err
	}
	defer unlock()

	card, ok := env.collection(ctx).Get(id)
	if !ok {
		return nil, errors.NewNotFound("card", id)
	}
	return &FetchCardOutput{CardView: newCardView(card, env.Now())}, nil
}
