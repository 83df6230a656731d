package store

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/HamletTheHamster/goat-explorer/internal/dataset"
	"github.com/HamletTheHamster/goat-explorer/internal/retry"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "goatx.db")
	s, err := Open(context.Background(), SQLite, path, retry.DefaultPolicy())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func fixtureFrame(t *testing.T) *dataset.Frame {
	t.Helper()
	f, err := dataset.Load("../dataset/testdata/goat.csv", dataset.DefaultOptions())
	require.NoError(t, err)
	return f
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "x", retry.DefaultPolicy())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}

func TestPingError_StopsOnAuthFailure(t *testing.T) {
	policy := retry.Policy{Attempts: 4, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	tests := []struct {
		name     string
		err      error
		attempts int
	}{
		{"bad password", &pq.Error{Code: "28P01"}, 1},
		{"no such database", &pq.Error{Code: "3D000"}, 1},
		{"starting up", &pq.Error{Code: "57P03"}, 4},
		{"refused", errors.New("connection refused"), 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			_, err := retry.WithRetry(context.Background(), policy, "ping", func(context.Context) (struct{}, error) {
				calls++
				return struct{}{}, pingError(tt.err)
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.attempts, calls)
		})
	}
	assert.NoError(t, pingError(nil))
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goatx.db")
	for i := 0; i < 2; i++ {
		s, err := Open(context.Background(), SQLite, path, retry.DefaultPolicy())
		require.NoError(t, err)
		assert.Equal(t, SQLite, s.Driver())
		require.NoError(t, s.Close())
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	f := fixtureFrame(t)

	snap, err := s.SaveSnapshot(ctx, f, dataset.DefaultReference)
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, 4, snap.Rows)
	assert.Equal(t, f.Source(), snap.Source)

	loaded, err := s.LoadSnapshot(ctx, snap.ID, dataset.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "snapshot:"+snap.ID, loaded.Source())
	assert.Equal(t, f.Shoes(), loaded.Shoes())
}

func TestSnapshot_KeepsReferenceDate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	opts := dataset.DefaultOptions()
	opts.Reference = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	f, err := dataset.Load("../dataset/testdata/goat.csv", opts)
	require.NoError(t, err)

	snap, err := s.SaveSnapshot(ctx, f, opts.Reference)
	require.NoError(t, err)
	assert.True(t, opts.Reference.Equal(snap.Reference))

	// the caller's reference is ignored in favour of the stored one
	loaded, err := s.LoadSnapshot(ctx, snap.ID, dataset.DefaultOptions())
	require.NoError(t, err)
	days, err := loaded.Floats(dataset.DaysFromMarch)
	require.NoError(t, err)
	assert.Equal(t, 0.0, days[0])
}

func TestSnapshots_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	f := fixtureFrame(t)

	first, err := s.SaveSnapshot(ctx, f, dataset.DefaultReference)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := s.SaveSnapshot(ctx, f, dataset.DefaultReference)
	require.NoError(t, err)

	list, err := s.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestSnapshot_Unknown(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.LoadSnapshot(ctx, "missing", dataset.DefaultOptions())
	assert.ErrorIs(t, err, ErrNoSnapshot)
	assert.ErrorIs(t, s.DeleteSnapshot(ctx, "missing"), ErrNoSnapshot)
}

func TestSnapshot_Delete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	snap, err := s.SaveSnapshot(ctx, fixtureFrame(t), dataset.DefaultReference)
	require.NoError(t, err)
	require.NoError(t, s.DeleteSnapshot(ctx, snap.ID))

	list, err := s.Snapshots(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	var n int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshot_shoes`).Scan(&n))
	assert.Zero(t, n)
}

func TestSaveSnapshot_Empty(t *testing.T) {
	s := openTestStore(t)
	_, err := s.SaveSnapshot(context.Background(), dataset.Empty("x"), dataset.DefaultReference)
	assert.ErrorIs(t, err, dataset.ErrEmpty)
}

func TestRebind(t *testing.T) {
	q := `SELECT * FROM t WHERE a = ? AND b = ?`
	assert.Equal(t, q, (&Store{driver: SQLite}).rebind(q))
	assert.Equal(t, `SELECT * FROM t WHERE a = $1 AND b = $2`, (&Store{driver: Postgres}).rebind(q))
}

func TestNullFloat(t *testing.T) {
	assert.False(t, nullFloat(math.NaN()).Valid)
	assert.False(t, nullFloat(math.Inf(1)).Valid)
	assert.Equal(t, sql.NullFloat64{Float64: 2.5, Valid: true}, nullFloat(2.5))
	assert.True(t, math.IsNaN(floatOrNaN(sql.NullFloat64{})))
	assert.Equal(t, 2.5, floatOrNaN(nullFloat(2.5)))
}
