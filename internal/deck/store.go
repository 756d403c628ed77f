// Package deck owns the flashcard collection: seeding, due-set selection,
// writing scheduler output back, and the review session cursor.
package deck

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/medmastery/internal/db"
	"github.com/hpungsan/medmastery/internal/errors"
	"github.com/hpungsan/medmastery/internal/srs"
)

// Key is the KV key holding the card collection.
const Key = "med_mastery_flashcards"

// Store loads and persists the card collection through a KV.
type Store struct {
	kv       db.KV
	seed     []SeedCard
	now      func() time.Time
	maxChars int
	logger   *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSeed replaces DefaultSeed.
func WithSeed(seed []SeedCard) Option {
	return func(s *Store) { s.seed = seed }
}

// WithMaxChars bounds front+back length for added cards (0 = unlimited).
func WithMaxChars(n int) Option {
	return func(s *Store) { s.maxChars = n }
}

// WithLogger replaces the default logger used for recovery warnings.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a Store over kv.
func NewStore(kv db.KV, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		seed:   DefaultSeed,
		now:    time.Now,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the store's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// Load returns the persisted collection, or the seed deck on first use.
// Unreadable stored data is logged and replaced by the seed deck; Load never fails.
func (s *Store) Load(ctx context.Context) *Collection {
	data, err := s.kv.Get(ctx, Key)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			s.logger.Printf("warning: %v; starting from seed deck", errors.NewPersistenceRead(Key, err))
		}
		return s.seeded()
	}

	coll, err := decodeCollection(data)
	if err != nil {
		s.logger.Printf("warning: %v; starting from seed deck", errors.NewPersistenceRead(Key, err))
		return s.seeded()
	}
	return coll
}

func (s *Store) seeded() *Collection {
	coll, err := NewCollection(Seed(s.seed, s.now()))
	if err != nil {
		// Seed content is static; a bad seed is a programming error.
		panic("deck: invalid seed: " + err.Error())
	}
	return coll
}

// DueCards returns the cards with nextReview <= now, in collection order.
func DueCards(coll *Collection, now time.Time) []Card {
	var due []Card
	for _, c := range coll.cards {
		if c.IsDue(now) {
			due = append(due, c)
		}
	}
	return due
}

// Apply writes next into the scheduling fields of card id and persists the
// whole collection. An unknown id returns NOT_FOUND and leaves coll untouched.
// If the write fails, coll still holds the update and a PERSISTENCE_WRITE
// error is returned.
func (s *Store) Apply(ctx context.Context, coll *Collection, id string, next srs.State) (*Collection, error) {
	if !coll.setState(id, next) {
		return coll, errors.NewNotFound("card", id)
	}
	return coll, s.Save(ctx, coll)
}

// Save persists the whole collection.
func (s *Store) Save(ctx context.Context, coll *Collection) error {
	data, err := json.Marshal(coll)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := s.kv.Put(ctx, Key, data); err != nil {
		return errors.NewPersistenceWrite(Key, err)
	}
	return nil
}

// NewCard describes a user-authored card.
type NewCard struct {
	ID         string // optional; a ULID is generated when empty
	Front      string
	Back       string
	Category   string
	Difficulty string
}

// Validate checks content and size limits.
func (s *Store) Validate(nc NewCard) error {
	if strings.TrimSpace(nc.Front) == "" {
		return errors.NewInvalidRequest("front is required")
	}
	if strings.TrimSpace(nc.Back) == "" {
		return errors.NewInvalidRequest("back is required")
	}
	if s.maxChars > 0 {
		chars := Card{Front: nc.Front, Back: nc.Back}.Chars()
		if chars > s.maxChars {
			return errors.NewCardTooLarge(s.maxChars, chars)
		}
	}
	return nil
}

// Add appends a new card, due immediately, and persists the collection.
// Duplicate ids return CONFLICT. On a failed write the card is still added
// and a PERSISTENCE_WRITE error is returned with it.
func (s *Store) Add(ctx context.Context, coll *Collection, nc NewCard) (Card, error) {
	if err := s.Validate(nc); err != nil {
		return Card{}, err
	}

	id := strings.TrimSpace(nc.ID)
	if id == "" {
		generated, err := NewID(s.now())
		if err != nil {
			return Card{}, errors.NewInternal(err)
		}
		id = generated
	}
	if coll.Has(id) {
		return Card{}, errors.NewConflict("card with id " + id + " already exists")
	}

	card := Card{
		ID:         id,
		Front:      strings.TrimSpace(nc.Front),
		Back:       strings.TrimSpace(nc.Back),
		Category:   strings.TrimSpace(nc.Category),
		Difficulty: strings.TrimSpace(nc.Difficulty),
		State:      srs.NewState(s.now()),
	}
	coll.put(card)
	return card, s.Save(ctx, coll)
}

// Put inserts or replaces card as-is (used by import). The caller persists.
func (coll *Collection) Put(card Card) {
	coll.put(card)
}

// NewID generates a ULID card id.
func NewID(now time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(now), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
