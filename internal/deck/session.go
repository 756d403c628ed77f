package deck

import (
	"context"

	"github.com/hpungsan/medmastery/internal/errors"
	"github.com/hpungsan/medmastery/internal/srs"
)

// Face is the visible side of the current card.
type Face int

const (
	Front Face = iota
	Back
)

func (f Face) String() string {
	if f == Back {
		return "back"
	}
	return "front"
}

// Session walks the due set one card at a time. The due set is recomputed on
// every read, so a card that was just passed never comes back in the same pass.
type Session struct {
	store *Store
	coll  *Collection
	index int
	face  Face
}

// NewSession starts a session over coll with the cursor on the first due card.
func NewSession(store *Store, coll *Collection) *Session {
	return &Session{store: store, coll: coll}
}

// Due recomputes the due set at the store's current time.
func (s *Session) Due() []Card {
	return DueCards(s.coll, s.store.Now())
}

// Position returns the cursor index within the current due set and its size.
func (s *Session) Position() (int, int) {
	due := s.Due()
	if len(due) == 0 {
		return 0, 0
	}
	return s.index % len(due), len(due)
}

// Current returns the card under the cursor. ok is false when nothing is due.
func (s *Session) Current() (card Card, ok bool) {
	due := s.Due()
	if len(due) == 0 {
		return Card{}, false
	}
	return due[s.index%len(due)], true
}

// Face returns the visible side of the current card.
func (s *Session) Face() Face {
	return s.face
}

// Flip toggles the visible side and returns the new one.
func (s *Session) Flip() Face {
	if s.face == Front {
		s.face = Back
	} else {
		s.face = Front
	}
	return s.face
}

// Rate schedules the current card with quality, writes it back and advances
// the cursor. ok is false when nothing was due. A PERSISTENCE_WRITE error is
// returned alongside the rated card; the session keeps going on the
// in-memory state.
func (s *Session) Rate(ctx context.Context, quality int) (rated Card, ok bool, err error) {
	due := s.Due()
	if len(due) == 0 {
		return Card{}, false, nil
	}
	pos := s.index % len(due)
	card := due[pos]

	now := s.store.Now()
	next := srs.Schedule(card.State, quality, now)
	if _, err = s.store.Apply(ctx, s.coll, card.ID, next); err != nil && !errors.IsWarning(err) {
		return Card{}, false, err
	}
	card.State = next

	s.advance(pos, card.IsDue(now))
	return card, true, err
}

// RateCard schedules the card with the given id, which need not be the one
// under the cursor, and writes it back. The cursor stays on the card it was
// showing; if that card left the due set the following card takes its place
// and the face resets to front. Unknown ids return NOT_FOUND. A
// PERSISTENCE_WRITE error is returned alongside the rated card.
func (s *Session) RateCard(ctx context.Context, id string, quality int) (Card, error) {
	card, ok := s.coll.Get(id)
	if !ok {
		return Card{}, errors.NewNotFound("card", id)
	}
	current, hadCurrent := s.Current()
	pos, _ := s.Position()

	now := s.store.Now()
	next := srs.Schedule(card.State, quality, now)
	_, err := s.store.Apply(ctx, s.coll, id, next)
	if err != nil && !errors.IsWarning(err) {
		return Card{}, err
	}
	card.State = next

	if hadCurrent {
		s.reanchor(current.ID, pos)
	}
	return card, err
}

// reanchor points the cursor back at the card with id. When that card is no
// longer due the cursor keeps pos, now holding the card that followed it.
func (s *Session) reanchor(id string, pos int) {
	due := s.Due()
	for i, c := range due {
		if c.ID == id {
			s.index = i
			return
		}
	}
	s.face = Front
	if pos >= len(due) {
		pos = 0
	}
	s.index = pos
}

// Advance moves past the current card without rating it.
func (s *Session) Advance() {
	due := s.Due()
	if len(due) == 0 {
		s.index, s.face = 0, Front
		return
	}
	s.advance(s.index%len(due), true)
}

// advance moves the cursor after the card at pos was handled. When that card
// dropped out of the due set the following card has slid into pos.
func (s *Session) advance(pos int, stillDue bool) {
	s.face = Front
	next := pos
	if stillDue {
		next = pos + 1
	}
	if n := len(s.Due()); n == 0 || next >= n {
		next = 0
	}
	s.index = next
}
