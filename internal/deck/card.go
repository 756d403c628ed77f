package deck

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hpungsan/medmastery/internal/srs"
)

// Card is a unit of study content with its scheduling state.
// Front, Back, Category and Difficulty are opaque to the scheduler.
type Card struct {
	ID         string `json:"id"`
	Front      string `json:"front"`
	Back       string `json:"back"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty,omitempty"`
	srs.State
}

// IsDue reports whether the card should be shown at now.
func (c Card) IsDue(now time.Time) bool {
	return c.State.IsDue(now)
}

// Chars returns the rune count of the card's front and back.
func (c Card) Chars() int {
	return utf8.RuneCountInString(c.Front) + utf8.RuneCountInString(c.Back)
}

// Collection is an ordered id → Card mapping. Insertion order is kept so
// the due set has a stable default order.
type Collection struct {
	cards []Card
	index map[string]int
}

// NewCollection builds a collection, rejecting empty or duplicate ids.
func NewCollection(cards []Card) (*Collection, error) {
	c := &Collection{
		cards: make([]Card, 0, len(cards)),
		index: make(map[string]int, len(cards)),
	}
	for i, card := range cards {
		if strings.TrimSpace(card.ID) == "" {
			return nil, fmt.Errorf("card %d: missing id", i)
		}
		if _, dup := c.index[card.ID]; dup {
			return nil, fmt.Errorf("card %d: duplicate id %q", i, card.ID)
		}
		c.index[card.ID] = len(c.cards)
		c.cards = append(c.cards, card)
	}
	return c, nil
}

// Len returns the number of cards.
func (c *Collection) Len() int {
	return len(c.cards)
}

// Cards returns a copy of all cards in collection order.
func (c *Collection) Cards() []Card {
	return slices.Clone(c.cards)
}

// Clone returns an independent copy.
func (c *Collection) Clone() *Collection {
	return &Collection{cards: slices.Clone(c.cards), index: maps.Clone(c.index)}
}

// Get returns the card with the given id.
func (c *Collection) Get(id string) (Card, bool) {
	i, ok := c.index[id]
	if !ok {
		return Card{}, false
	}
	return c.cards[i], true
}

// Has reports whether id is present.
func (c *Collection) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

// Categories returns the distinct categories in first-seen order.
func (c *Collection) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, card := range c.cards {
		if !seen[card.Category] {
			seen[card.Category] = true
			out = append(out, card.Category)
		}
	}
	return out
}

// setState overwrites the scheduling fields of the card at id.
func (c *Collection) setState(id string, st srs.State) bool {
	i, ok := c.index[id]
	if !ok {
		return false
	}
	c.cards[i].State = st
	return true
}

// put replaces the card with the same id, or appends it.
func (c *Collection) put(card Card) {
	if i, ok := c.index[card.ID]; ok {
		c.cards[i] = card
		return
	}
	c.index[card.ID] = len(c.cards)
	c.cards = append(c.cards, card)
}

// MarshalJSON encodes the collection as an array of cards.
func (c *Collection) MarshalJSON() ([]byte, error) {
	if c.cards == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.cards)
}

// Normalize checks a card read from storage or an import file. Scheduling
// fields missing from older documents get new-card defaults; anything
// structurally off is an error.
func (c *Card) Normalize() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("missing id")
	}
	st := &c.State
	if st.Interval < 0 || st.Repetition < 0 {
		return fmt.Errorf("card %q: negative interval or repetition", c.ID)
	}
	if st.EasinessFactor == 0 {
		st.EasinessFactor = srs.DefaultEasinessFactor
	}
	if math.IsNaN(st.EasinessFactor) || st.EasinessFactor < srs.MinEasinessFactor {
		return fmt.Errorf("card %q: efactor %v below %v", c.ID, st.EasinessFactor, srs.MinEasinessFactor)
	}
	return nil
}

// decodeCollection parses a stored collection.
func decodeCollection(data []byte) (*Collection, error) {
	var cards []Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, err
	}
	if cards == nil {
		return nil, fmt.Errorf("stored collection is not an array")
	}
	for i := range cards {
		if err := cards[i].Normalize(); err != nil {
			return nil, fmt.Errorf("card %d: %w", i, err)
		}
	}
	return NewCollection(cards)
}
