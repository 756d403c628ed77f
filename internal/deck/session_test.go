package deck

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/medmastery/internal/db"
	"github.com/hpungsan/medmastery/internal/errors"
	"github.com/hpungsan/medmastery/internal/srs"
)

func threeCardSeed() []SeedCard {
	return []SeedCard{
		{ID: "a", Front: "A?", Back: "A", Category: "Medicine"},
		{ID: "b", Front: "B?", Back: "B", Category: "Surgery"},
		{ID: "c", Front: "C?", Back: "C", Category: "Trauma"},
	}
}

func newTestSession(t *testing.T, kv db.KV) (*Session, *clock) {
	t.Helper()
	c := &clock{t: epoch}
	store, _ := newTestStore(t, kv, c, WithSeed(threeCardSeed()))
	return NewSession(store, store.Load(context.Background())), c
}

func current(t *testing.T, s *Session) string {
	t.Helper()
	card, ok := s.Current()
	require.True(t, ok)
	return card.ID
}

func TestSession_PassWalksDueSetInOrder(t *testing.T) {
	s, _ := newTestSession(t, db.NewMemoryKV())
	ctx := context.Background()

	var seen []string
	for range 3 {
		card, ok, err := s.Rate(ctx, int(srs.Good))
		require.NoError(t, err)
		require.True(t, ok)
		seen = append(seen, card.ID)
	}

	require.Equal(t, []string{"a", "b", "c"}, seen)
	_, ok := s.Current()
	require.False(t, ok, "all cards passed; nothing due")

	_, ok, err := s.Rate(ctx, int(srs.Good))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSession_LapsedCardsStayAndWrap(t *testing.T) {
	s, c := newTestSession(t, db.NewMemoryKV())
	ctx := context.Background()

	// A lapse schedules one day out, so "a" leaves the due set.
	_, _, err := s.Rate(ctx, int(srs.Again))
	require.NoError(t, err)
	require.Equal(t, "b", current(t, s))

	// Move the clock past a's review: the due set is recomputed on every read.
	c.advance(25 * time.Hour)
	require.Equal(t, []string{"a", "b", "c"}, ids(s.Due()))
	require.Equal(t, "a", current(t, s), "cursor keeps its index over the refreshed set")

	s.Advance()
	require.Equal(t, "b", current(t, s))
	s.Advance()
	require.Equal(t, "c", current(t, s))
	s.Advance()
	require.Equal(t, "a", current(t, s), "wraps to the first position")
}

func TestSession_FlipResetsOnAdvance(t *testing.T) {
	s, _ := newTestSession(t, db.NewMemoryKV())

	require.Equal(t, Front, s.Face())
	require.Equal(t, Back, s.Flip())
	require.Equal(t, "back", s.Face().String())

	_, _, err := s.Rate(context.Background(), int(srs.Easy))
	require.NoError(t, err)
	require.Equal(t, Front, s.Face())

	s.Flip()
	s.Advance()
	require.Equal(t, Front, s.Face())
}

func TestSession_WriteFailureContinues(t *testing.T) {
	kv := &failingKV{MemoryKV: db.NewMemoryKV(), failPut: true}
	s, _ := newTestSession(t, kv)

	card, ok, err := s.Rate(context.Background(), int(srs.Good))

	require.True(t, ok)
	require.True(t, errors.IsWarning(err))
	require.Equal(t, "a", card.ID)
	require.Equal(t, 1, card.Interval)
	require.Equal(t, "b", current(t, s), "session advances on the in-memory state")
}

func TestSession_EmptyDeck(t *testing.T) {
	c := &clock{t: epoch}
	store, _ := newTestStore(t, db.NewMemoryKV(), c)
	coll, err := NewCollection(nil)
	require.NoError(t, err)
	s := NewSession(store, coll)

	_, ok := s.Current()
	require.False(t, ok)
	pos, total := s.Position()
	require.Zero(t, pos)
	require.Zero(t, total)
	s.Advance()
}

func TestSession_RateCardReanchors(t *testing.T) {
	ctx := context.Background()

	t.Run("card under cursor", func(t *testing.T) {
		s, _ := newTestSession(t, db.NewMemoryKV())
		s.Flip()

		rated, err := s.RateCard(ctx, "a", int(srs.Good))
		require.NoError(t, err)
		require.Equal(t, 1, rated.Interval)
		require.Equal(t, "b", current(t, s))
		require.Equal(t, Front, s.Face(), "a new card under the cursor starts on the front")
	})

	t.Run("card before cursor", func(t *testing.T) {
		s, _ := newTestSession(t, db.NewMemoryKV())
		s.Advance()
		s.Flip()

		_, err := s.RateCard(ctx, "a", int(srs.Easy))
		require.NoError(t, err)
		require.Equal(t, "b", current(t, s))
		require.Equal(t, Back, s.Face())
		pos, total := s.Position()
		require.Equal(t, 0, pos)
		require.Equal(t, 2, total)
	})

	t.Run("last card under cursor wraps", func(t *testing.T) {
		s, _ := newTestSession(t, db.NewMemoryKV())
		s.Advance()
		s.Advance()
		require.Equal(t, "c", current(t, s))

		_, err := s.RateCard(ctx, "c", int(srs.Good))
		require.NoError(t, err)
		require.Equal(t, "a", current(t, s))
	})

	t.Run("unknown id", func(t *testing.T) {
		s, _ := newTestSession(t, db.NewMemoryKV())
		_, err := s.RateCard(ctx, "zz", int(srs.Good))
		require.True(t, errors.Is(err, errors.ErrNotFound))
		require.Equal(t, "a", current(t, s))
	})
}
