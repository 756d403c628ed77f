// Package progress tracks per-subject quiz accuracy.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hpungsan/medmastery/internal/db"
	"github.com/hpungsan/medmastery/internal/errors"
)

// Key is the KV key holding the progress entries.
const Key = "med_mastery_progress"

// Entry is the mastery aggregate for one subject.
type Entry struct {
	Subject         string `json:"subject"`
	TotalAttempted  int    `json:"totalAttempted"`
	CorrectAnswers  int    `json:"correctAnswers"`
	LastAttemptedAt int64  `json:"lastAttempted"`
}

// Tracker accumulates entries through a KV. Entries are read once, then
// served from memory; every Record writes the whole collection back.
type Tracker struct {
	kv     db.KV
	now    func() time.Time
	logger *log.Logger

	mu      sync.Mutex
	loaded  bool
	entries []Entry
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger replaces the default logger used for recovery warnings.
func WithLogger(l *log.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// NewTracker creates a Tracker over kv.
func NewTracker(kv db.KV, opts ...Option) *Tracker {
	t := &Tracker{kv: kv, now: time.Now, logger: log.Default()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Entries returns a copy of all entries in first-attempt order.
func (t *Tracker) Entries(ctx context.Context) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensureLoaded(ctx)
	return slices.Clone(t.entries)
}

// Get returns the entry for subject.
func (t *Tracker) Get(ctx context.Context, subject string) (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensureLoaded(ctx)
	i := t.find(subject)
	if i < 0 {
		return Entry{}, false
	}
	return t.entries[i], true
}

// Record counts one answered question for subject. A PERSISTENCE_WRITE error
// is returned together with the updated entries, which stay in memory.
func (t *Tracker) Record(ctx context.Context, subject string, correct bool) ([]Entry, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, errors.NewInvalidRequest("subject is required")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensureLoaded(ctx)

	i := t.find(subject)
	if i < 0 {
		t.entries = append(t.entries, Entry{Subject: subject})
		i = len(t.entries) - 1
	}
	e := &t.entries[i]
	e.TotalAttempted++
	if correct {
		e.CorrectAnswers++
	}
	e.LastAttemptedAt = t.now().UnixMilli()

	return slices.Clone(t.entries), t.save(ctx)
}

// Replace overwrites the whole collection (used by import) and persists it.
func (t *Tracker) Replace(ctx context.Context, entries []Entry) error {
	if err := validate(entries); err != nil {
		return errors.NewInvalidRequest(err.Error())
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loaded = true
	t.entries = slices.Clone(entries)
	return t.save(ctx)
}

func (t *Tracker) find(subject string) int {
	return slices.IndexFunc(t.entries, func(e Entry) bool { return e.Subject == subject })
}

func (t *Tracker) ensureLoaded(ctx context.Context) {
	if t.loaded {
		return
	}
	t.loaded = true
	t.entries = nil

	data, err := t.kv.Get(ctx, Key)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			t.logger.Printf("warning: %v; starting with no progress", errors.NewPersistenceRead(Key, err))
		}
		return
	}
	entries, err := decodeEntries(data)
	if err != nil {
		t.logger.Printf("warning: %v; starting with no progress", errors.NewPersistenceRead(Key, err))
		return
	}
	t.entries = entries
}

func decodeEntries(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	if err := validate(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (t *Tracker) save(ctx context.Context) error {
	entries := t.entries
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := t.kv.Put(ctx, Key, data); err != nil {
		return errors.NewPersistenceWrite(Key, err)
	}
	return nil
}

func validate(entries []Entry) error {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Subject) == "" {
			return fmt.Errorf("entry without subject")
		}
		if seen[e.Subject] {
			return fmt.Errorf("duplicate subject %q", e.Subject)
		}
		seen[e.Subject] = true
		if e.TotalAttempted < 0 || e.CorrectAnswers < 0 || e.CorrectAnswers > e.TotalAttempted {
			return fmt.Errorf("subject %q: counters out of range", e.Subject)
		}
	}
	return nil
}

// Accuracy returns round(100 * correct / attempted), or 0 with no attempts.
func Accuracy(e Entry) int {
	if e.TotalAttempted <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(e.CorrectAnswers) / float64(e.TotalAttempted)))
}

// OverallAccuracy is the unweighted mean of per-subject accuracy: a subject
// with 2 attempts counts as much as one with 200. 0 when entries is empty.
func OverallAccuracy(entries []Entry) int {
	if len(entries) == 0 {
		return 0
	}
	sum := 0
	for _, e := range entries {
		sum += Accuracy(e)
	}
	return int(math.Round(float64(sum) / float64(len(entries))))
}

// WeightedAccuracy is total correct over total attempted across subjects.
func WeightedAccuracy(entries []Entry) int {
	var correct, total int
	for _, e := range entries {
		correct += e.CorrectAnswers
		total += e.TotalAttempted
	}
	return Accuracy(Entry{CorrectAnswers: correct, TotalAttempted: total})
}
