package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/HamletTheHamster/goat-explorer/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const twoShoes = `shoe,rank,price,ReleaseDate,MainColor
Air Jordan 1,1,180,2025-03-01,Red
Dunk Low,2,110,2021-03-10,White
`

const threeShoes = twoShoes + "Air Max 1,3,140,2025-04-02,White\n"

func writeCSV(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoader_CachesUntilFileChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleaned_dataset.csv")
	writeCSV(t, path, twoShoes)
	l := NewLoader(path, dataset.DefaultOptions())
	ctx := context.Background()

	f, err := l.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())

	again, err := l.Get(ctx)
	require.NoError(t, err)
	assert.Same(t, f, again)
	assert.EqualValues(t, 1, l.Loads())

	writeCSV(t, path, threeShoes)
	// size differs, so the stat key changes even on coarse mtime filesystems
	f, err = l.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, f.Len())
	assert.EqualValues(t, 2, l.Loads())
}

func TestLoader_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleaned_dataset.csv")
	l := NewLoader(path, dataset.DefaultOptions())
	ctx := context.Background()

	f, err := l.Get(ctx)
	require.ErrorIs(t, err, dataset.ErrNotFound)
	assert.True(t, f.IsEmpty())

	_, err = l.Get(ctx)
	require.ErrorIs(t, err, dataset.ErrNotFound)
	assert.EqualValues(t, 1, l.Loads())

	writeCSV(t, path, twoShoes)
	f, err = l.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
}

func TestLoader_Invalidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleaned_dataset.csv")
	writeCSV(t, path, twoShoes)
	l := NewLoader(path, dataset.DefaultOptions())
	ctx := context.Background()

	_, err := l.Get(ctx)
	require.NoError(t, err)
	l.Invalidate()
	_, err = l.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, l.Loads())
	assert.EqualValues(t, 1, l.Generation())
}

func TestLoader_Replace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleaned_dataset.csv")
	writeCSV(t, path, twoShoes)
	l := NewLoader(path, dataset.DefaultOptions())
	ctx := context.Background()

	uploaded, err := dataset.Read(strings.NewReader(threeShoes), dataset.DefaultOptions())
	require.NoError(t, err)
	l.Replace(uploaded.WithSource("upload.csv"))

	f, err := l.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "upload.csv", f.Source())
	assert.Zero(t, l.Loads())

	l.Invalidate()
	f, err = l.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, path, f.Source())
}

func TestLoader_ConcurrentGetsShareOneLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleaned_dataset.csv")
	writeCSV(t, path, twoShoes)
	l := NewLoader(path, dataset.DefaultOptions())

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, err := l.Get(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, 2, f.Len())
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, l.Loads(), int64(16))
	assert.Positive(t, l.Loads())
}

func TestLoader_CancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleaned_dataset.csv")
	writeCSV(t, path, twoShoes)
	l := NewLoader(path, dataset.DefaultOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// either the load wins the race or the cancellation does
	_, err := l.Get(ctx)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestWatch_InvalidatesOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleaned_dataset.csv")
	writeCSV(t, path, twoShoes)
	l := NewLoader(path, dataset.DefaultOptions())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Watch(ctx) }()

	// give the watcher time to register before writing
	require.Eventually(t, func() bool {
		writeCSV(t, path, threeShoes)
		return l.Generation() > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cleaned_dataset.csv")
	writeCSV(t, path, twoShoes)
	l := NewLoader(path, dataset.DefaultOptions())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Watch(ctx) }()

	writeCSV(t, filepath.Join(dir, "notes.txt"), "hello")
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, l.Generation())

	cancel()
	require.NoError(t, <-done)
}
