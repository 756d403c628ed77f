package ops

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/hpungsan/medmastery/internal/config"
	"github.com/hpungsan/medmastery/internal/db"
	"github.com/hpungsan/medmastery/internal/deck"
	"github.com/hpungsan/medmastery/internal/errors"
	"github.com/hpungsan/medmastery/internal/progress"
	"github.com/hpungsan/medmastery/internal/qbank"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// clampPage applies limit defaults and bounds.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return limit, max(offset, 0)
}

// Env is the explicitly owned state every operation runs against: the KV
// substrate, configuration, the card store and progress tracker, and the
// review session. The card collection is loaded on first use and kept in
// memory; every mutation is written through.
//
// Operations hold Env's lock for their whole duration, so the web server and
// the MCP handlers can share one Env.
type Env struct {
	Config  *config.Config
	BaseDir string
	Deck    *deck.Store
	Tracker *progress.Tracker
	Bank    *qbank.Bank

	now    func() time.Time
	logger *log.Logger

	mu      sync.Mutex
	coll    *deck.Collection
	session *deck.Session
}

// EnvOption configures an Env.
type EnvOption func(*envOptions)

type envOptions struct {
	now    func() time.Time
	logger *log.Logger
	seed   []deck.SeedCard
	bank   *qbank.Bank
}

// WithClock replaces time.Now for every component of the Env.
func WithClock(now func() time.Time) EnvOption {
	return func(o *envOptions) { o.now = now }
}

// WithLogger replaces the default logger for recovery warnings.
func WithLogger(l *log.Logger) EnvOption {
	return func(o *envOptions) { o.logger = l }
}

// WithSeed replaces the first-run deck.
func WithSeed(seed []deck.SeedCard) EnvOption {
	return func(o *envOptions) { o.seed = seed }
}

// WithBank replaces the default vignette bank.
func WithBank(b *qbank.Bank) EnvOption {
	return func(o *envOptions) { o.bank = b }
}

// NewEnv wires the card store and tracker over kv.
func NewEnv(kv db.KV, cfg *config.Config, baseDir string, opts ...EnvOption) *Env {
	o := envOptions{now: time.Now, logger: log.Default(), seed: deck.DefaultSeed}
	for _, opt := range opts {
		opt(&o)
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if o.bank == nil {
		o.bank = qbank.Default()
	}

	return &Env{
		Config:  cfg,
		BaseDir: baseDir,
		Deck: deck.NewStore(kv,
			deck.WithClock(o.now),
			deck.WithSeed(o.seed),
			deck.WithMaxChars(cfg.CardMaxChars),
			deck.WithLogger(o.logger),
		),
		Tracker: progress.NewTracker(kv,
			progress.WithClock(o.now),
			progress.WithLogger(o.logger),
		),
		Bank:   o.bank,
		now:    o.now,
		logger: o.logger,
	}
}

// Now returns the Env's current time.
func (e *Env) Now() time.Time {
	return e.now()
}

// lock acquires the Env for one operation. Callers must hold it before
// touching the collection or the session.
func (e *Env) lock(ctx context.Context, op string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelled(op)
	}
	e.mu.Lock()
	return e.mu.Unlock, nil
}

// collection returns the loaded card collection, loading it on first use.
func (e *Env) collection(ctx context.Context) *deck.Collection {
	if e.coll == nil {
		e.coll = e.Deck.Load(ctx)
	}
	return e.coll
}

// currentSession returns the review session, starting one on first use.
func (e *Env) currentSession(ctx context.Context) *deck.Session {
	if e.session == nil {
		e.session = deck.NewSession(e.Deck, e.collection(ctx))
	}
	return e.session
}

// resetCollection swaps in a new collection (after import) and restarts the session.
func (e *Env) resetCollection(coll *deck.Collection) {
	e.coll = coll
	e.session = nil
}

// warning logs a non-fatal persistence error and renders it for an output's
// warning field. Other errors are returned unchanged for the caller to propagate.
func (e *Env) warning(err error) (string, error) {
	if err == nil {
		return "", nil
	}
	if errors.IsWarning(err) {
		e.logger.Printf("warning: %v", err)
		return err.Error(), nil
	}
	return "", err
}
