package ops

import (
	"context"
	"strings"
	"time"

	"github.com/hpungsan/medmastery/internal/deck"
	"github.com/hpungsan/medmastery/internal/errors"
	"github.com/hpungsan/medmastery/internal/srs"
)

// CardView is the operation-level rendering of a card.
type CardView struct {
	ID           string  `json:"id"`
	Front        string  `json:"front"`
	Back         string  `json:"back,omitempty"`
	Category     string  `json:"category"`
	Difficulty   string  `json:"difficulty,omitempty"`
	Interval     int     `json:"interval"`
	Repetition   int     `json:"repetition"`
	EFactor      float64 `json:"efactor"`
	NextReview   int64   `json:"next_review"`
	NextReviewAt string  `json:"next_review_at"`
	Due          bool    `json:"due"`
}

func newCardView(c deck.Card, now time.Time) CardView {
	return CardView{
		ID:           c.ID,
		Front:        c.Front,
		Back:         c.Back,
		Category:     c.Category,
		Difficulty:   c.Difficulty,
		Interval:     c.Interval,
		Repetition:   c.Repetition,
		EFactor:      c.EasinessFactor,
		NextReview:   c.NextReviewAt,
		NextReviewAt: time.UnixMilli(c.NextReviewAt).UTC().Format(time.RFC3339),
		Due:          c.IsDue(now),
	}
}

// DueInput contains parameters for the Due operation.
type DueInput struct {
	Category string // optional, case-insensitive
}

// DueOutput contains the result of the Due operation.
type DueOutput struct {
	Count int        `json:"count"`
	Cards []CardView `json:"cards"`
	Now   int64      `json:"now"`
}

// Due returns every card due now, in collection order.
func Due(ctx context.Context, env *Env, input DueInput) (*DueOutput, error) {
	unlock, err := env.lock(ctx, "due")
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := env.Now()
	cards := []CardView{}
	for _, c := range deck.DueCards(env.collection(ctx), now) {
		if input.Category != "" && !strings.EqualFold(c.Category, input.Category) {
			continue
		}
		cards = append(cards, newCardView(c, now))
	}
	return &DueOutput{Count: len(cards), Cards: cards, Now: now.UnixMilli()}, nil
}

// NextInput contains parameters for the Next operation.
type NextInput struct {
	Reveal bool // show the back regardless of the session face
}

// NextOutput describes the session's current card.
type NextOutput struct {
	Empty     bool      `json:"empty"`
	Card      *CardView `json:"card,omitempty"`
	Face      string    `json:"face"`
	Position  int       `json:"position"`
	Remaining int       `json:"remaining"`
}

// Next returns the card under the session cursor. The back is only included
// when the session face is "back" or Reveal is set.
func Next(ctx context.Context, env *Env, input NextInput) (*NextOutput, error) {
	unlock, err := env.lock(ctx, "next")
	if err != nil {
		return nil, err
	}
	defer unlock()

	return sessionView(ctx, env, input.Reveal), nil
}

// Flip toggles the visible face of the current card.
func Flip(ctx context.Context, env *Env) (*NextOutput, error) {
	unlock, err := env.lock(ctx, "flip")
	if err != nil {
		return nil, err
	}
	defer unlock()

	s := env.currentSession(ctx)
	if _, ok := s.Current(); ok {
		s.Flip()
	}
	return sessionView(ctx, env, false), nil
}

// Skip moves the cursor past the current card without rating it.
func Skip(ctx context.Context, env *Env) (*NextOutput, error) {
	unlock, err := env.lock(ctx, "skip")
	if err != nil {
		return nil, err
	}
	defer unlock()

	env.currentSession(ctx).Advance()
	return sessionView(ctx, env, false), nil
}

func sessionView(ctx context.Context, env *Env, reveal bool) *NextOutput {
	s := env.currentSession(ctx)
	card, ok := s.Current()
	if !ok {
		return &NextOutput{Empty: true, Face: deck.Front.String()}
	}
	view := newCardView(card, env.Now())
	if s.Face() == deck.Front && !reveal {
		view.Back = ""
	}
	pos, total := s.Position()
	return &NextOutput{
		Card:      &view,
		Face:      s.Face().String(),
		Position:  pos + 1,
		Remaining: total,
	}
}

// ReviewInput contains parameters for the Review operation.
type ReviewInput struct {
	ID      string // optional; empty rates the session's current card
	Rating  string // again|hard|good|easy or 0-5
	Quality *int   // takes precedence over Rating; clamped to [0, 5]
}

// ReviewOutput contains the result of the Review operation. Empty is set,
// and nothing else, when the session was asked to rate but nothing is due.
type ReviewOutput struct {
	Empty    bool       `json:"empty,omitempty"`
	Card     *CardView  `json:"card,omitempty"`
	Quality  int        `json:"quality"`
	Previous *srs.State `json:"previous,omitempty"`
	Passed   bool       `json:"passed"`
	Next     *CardView  `json:"next,omitempty"`
	Warning  string     `json:"warning,omitempty"`
}

// Review schedules one card with a quality rating and writes it back.
// With no id the session's current card is rated and the cursor advances;
// with an id the cursor stays on the card it was showing. A failed durable
// write is reported in Warning; the review still counts.
func Review(ctx context.Context, env *Env, input ReviewInput) (*ReviewOutput, error) {
	quality, err := resolveQuality(input)
	if err != nil {
		return nil, err
	}

	unlock, err := env.lock(ctx, "review")
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := env.Now()
	coll := env.collection(ctx)
	s := env.currentSession(ctx)
	id := strings.TrimSpace(input.ID)

	var (
		before deck.Card
		after  deck.Card
		werr   error
	)
	if id == "" {
		current, ok := s.Current()
		if !ok {
			return &ReviewOutput{Empty: true, Quality: int(quality)}, nil
		}
		before = current
		after, _, werr = s.Rate(ctx, int(quality))
	} else {
		card, ok := coll.Get(id)
		if !ok {
			return nil, errors.NewNotFound("card", id)
		}
		before = card
		after, werr = s.RateCard(ctx, id, int(quality))
	}

	warn, err := env.warning(werr)
	if err != nil {
		return nil, err
	}

	view := newCardView(after, now)
	out := &ReviewOutput{
		Card:     &view,
		Quality:  int(quality),
		Previous: &before.State,
		Passed:   quality.IsPass(),
		Warning:  warn,
	}
	if id == "" {
		if next := sessionView(ctx, env, false); !next.Empty {
			out.Next = next.Card
		}
	}
	return out, nil
}

func resolveQuality(input ReviewInput) (srs.Quality, error) {
	if input.Quality != nil {
		return srs.ClampQuality(*input.Quality), nil
	}
	if strings.TrimSpace(input.Rating) == "" {
		return 0, errors.NewInvalidRequest("rating is required")
	}
	q, err := srs.ParseRating(input.Rating)
	if err != nil {
		return 0, errors.NewInvalidRequest(err.Error())
	}
	return q, nil
}
