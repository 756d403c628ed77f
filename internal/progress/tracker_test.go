package progress

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/medmastery/internal/db"
	"github.com/hpungsan/medmastery/internal/errors"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type brokenKV struct {
	*db.MemoryKV
	failGet, failPut bool
}

func (b *brokenKV) Get(ctx context.Context, key string) ([]byte, error) {
	if b.failGet {
		return nil, fmt.Errorf("read error")
	}
	return b.MemoryKV.Get(ctx, key)
}

func (b *brokenKV) Put(ctx context.Context, key string, value []byte) error {
	if b.failPut {
		return fmt.Errorf("read-only filesystem")
	}
	return b.MemoryKV.Put(ctx, key, value)
}

func newTracker(kv db.KV) (*Tracker, *bytes.Buffer) {
	var logs bytes.Buffer
	return NewTracker(kv,
		WithClock(func() time.Time { return epoch }),
		WithLogger(log.New(&logs, "", 0)),
	), &logs
}

func TestRecord_FirstAttempt(t *testing.T) {
	tr, _ := newTracker(db.NewMemoryKV())

	entries, err := tr.Record(context.Background(), "Surgery", true)
	require.NoError(t, err)

	require.Equal(t, []Entry{{
		Subject:         "Surgery",
		TotalAttempted:  1,
		CorrectAnswers:  1,
		LastAttemptedAt: epoch.UnixMilli(),
	}}, entries)
	require.Equal(t, 100, Accuracy(entries[0]))
}

func TestRecord_UpdatesExistingEntry(t *testing.T) {
	kv := db.NewMemoryKV()
	tr, _ := newTracker(kv)
	ctx := context.Background()

	_, err := tr.Record(ctx, "Surgery", true)
	require.NoError(t, err)
	_, err = tr.Record(ctx, "Medicine", false)
	require.NoError(t, err)
	entries, err := tr.Record(ctx, "Surgery", false)
	require.NoError(t, err)

	require.Len(t, entries, 2, "one entry per subject")
	require.Equal(t, "Surgery", entries[0].Subject)
	require.Equal(t, 2, entries[0].TotalAttempted)
	require.Equal(t, 1, entries[0].CorrectAnswers)
	require.Equal(t, 0, Accuracy(entries[1]))

	// A fresh tracker over the same KV sees the persisted state.
	reloaded, _ := newTracker(kv)
	require.Equal(t, entries, reloaded.Entries(ctx))
}

func TestRecord_EmptySubject(t *testing.T) {
	tr, _ := newTracker(db.NewMemoryKV())

	_, err := tr.Record(context.Background(), "  ", true)
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
	require.Empty(t, tr.Entries(context.Background()))
}

func TestRecord_WriteFailureKeepsMemory(t *testing.T) {
	kv := &brokenKV{MemoryKV: db.NewMemoryKV(), failPut: true}
	tr, _ := newTracker(kv)
	ctx := context.Background()

	entries, err := tr.Record(ctx, "Surgery", true)

	require.True(t, errors.IsWarning(err))
	require.Len(t, entries, 1)
	require.Equal(t, entries, tr.Entries(ctx))
}

func TestEntries_MalformedStartsEmpty(t *testing.T) {
	for name, raw := range map[string]string{
		"not json":          `nope`,
		"correct > total":   `[{"subject":"Surgery","totalAttempted":1,"correctAnswers":2}]`,
		"duplicate subject": `[{"subject":"A","totalAttempted":1},{"subject":"A","totalAttempted":1}]`,
		"missing subject":   `[{"totalAttempted":1}]`,
	} {
		t.Run(name, func(t *testing.T) {
			kv := db.NewMemoryKV()
			require.NoError(t, kv.Put(context.Background(), Key, []byte(raw)))
			tr, logs := newTracker(kv)

			require.Empty(t, tr.Entries(context.Background()))
			require.Contains(t, logs.String(), "starting with no progress")
		})
	}
}

func TestEntries_ReadFailureStartsEmpty(t *testing.T) {
	tr, logs := newTracker(&brokenKV{MemoryKV: db.NewMemoryKV(), failGet: true})

	require.Empty(t, tr.Entries(context.Background()))
	require.Contains(t, logs.String(), "PERSISTENCE_READ")
}

func TestReplace(t *testing.T) {
	tr, _ := newTracker(db.NewMemoryKV())
	ctx := context.Background()

	err := tr.Replace(ctx, []Entry{{Subject: "A", TotalAttempted: 1, CorrectAnswers: 2}})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	want := []Entry{{Subject: "Pediatrics", TotalAttempted: 4, CorrectAnswers: 3, LastAttemptedAt: 1}}
	require.NoError(t, tr.Replace(ctx, want))
	got, ok := tr.Get(ctx, "Pediatrics")
	require.True(t, ok)
	require.Equal(t, want[0], got)
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name string
		e    Entry
		want int
	}{
		{"no attempts", Entry{}, 0},
		{"no attempts with stray correct count", Entry{CorrectAnswers: 3}, 0},
		{"all correct", Entry{TotalAttempted: 4, CorrectAnswers: 4}, 100},
		{"rounds half up", Entry{TotalAttempted: 8, CorrectAnswers: 1}, 13},
		{"two thirds", Entry{TotalAttempted: 3, CorrectAnswers: 2}, 67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Accuracy(tt.e))
		})
	}
}

func TestOverallAccuracy_Unweighted(t *testing.T) {
	entries := []Entry{
		{Subject: "Surgery", TotalAttempted: 2, CorrectAnswers: 1},
		{Subject: "Medicine", TotalAttempted: 1, CorrectAnswers: 1},
	}

	require.Equal(t, 75, OverallAccuracy(entries))
	require.Equal(t, 67, WeightedAccuracy(entries))
	require.Equal(t, 0, OverallAccuracy(nil))
	require.Equal(t, 0, WeightedAccuracy(nil))
}
