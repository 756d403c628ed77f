package db

import (
	"context"
	"database/sql"
	"sync"

	"github.com/hpungsan/medmastery/internal/errors"
)

// KV is the durable key-value substrate shared by the card store and the
// progress tracker. Get returns a NOT_FOUND error for missing keys.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// SQLiteKV stores documents in the kv_store table.
type SQLiteKV struct {
	db *sql.DB
}

// NewSQLiteKV wraps an initialized database (see Init).
func NewSQLiteKV(db *sql.DB) *SQLiteKV {
	return &SQLiteKV{db: db}
}

// Get implements KV.
func (s *SQLiteKV) Get(ctx context.Context, key string) ([]byte, error) {
	return GetValue(ctx, s.db, key)
}

// Put implements KV.
func (s *SQLiteKV) Put(ctx context.Context, key string, value []byte) error {
	return PutValue(ctx, s.db, key, value)
}

// MemoryKV is a process-local KV used when the database cannot be opened.
// Nothing written to it survives the process.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryKV creates an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string][]byte)}
}

// Get implements KV.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, errors.NewNotFound("key", key)
	}
	return append([]byte(nil), v...), nil
}

// Put implements KV.
func (m *MemoryKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}
