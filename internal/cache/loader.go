// Package cache memoises the cleaned dataset between requests.
package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HamletTheHamster/goat-explorer/internal/dataset"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// fileKey identifies one version of the data file on disk.
type fileKey struct {
	exists  bool
	size    int64
	modTime time.Time
}

func statKey(path string) (fileKey, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileKey{}, nil
		}
		return fileKey{}, err
	}
	return fileKey{exists: true, size: info.Size(), modTime: info.ModTime()}, nil
}

type entry struct {
	key   fileKey
	frame *dataset.Frame
	err   error
}

// Loader serves the frame read from path, reloading only when the file
// changes, after Invalidate, or never while an uploaded frame is installed.
type Loader struct {
	path string
	opts dataset.Options

	mu       sync.RWMutex
	current  *entry
	uploaded *dataset.Frame

	group      singleflight.Group
	loads      atomic.Int64
	generation atomic.Int64
}

// NewLoader returns a loader for the CSV at path. Nothing is read until Get.
func NewLoader(path string, opts dataset.Options) *Loader {
	return &Loader{path: path, opts: opts}
}

// Path is the data file the loader reads.
func (l *Loader) Path() string { return l.path }

// Options are the cleaning options applied on every load.
func (l *Loader) Options() dataset.Options { return l.opts }

// Loads counts the reads that actually hit the file.
func (l *Loader) Loads() int64 { return l.loads.Load() }

// Generation increases on every Invalidate and Replace.
func (l *Loader) Generation() int64 { return l.generation.Load() }

// Get returns the current frame. A missing data file yields an empty frame and
// an error wrapping dataset.ErrNotFound; both are cached until the file shows up.
func (l *Loader) Get(ctx context.Context) (*dataset.Frame, error) {
	l.mu.RLock()
	uploaded, cur := l.uploaded, l.current
	l.mu.RUnlock()
	if uploaded != nil {
		return uploaded, nil
	}

	key, err := statKey(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat dataset: %w", err)
	}
	if cur != nil && cur.key == key {
		log.Debug().Str("path", l.path).Msg("Dataset cache hit")
		return cur.frame, cur.err
	}

	ch := l.group.DoChan(l.path, func() (any, error) {
		return l.load(key), nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		e := res.Val.(*entry)
		return e.frame, e.err
	}
}

func (l *Loader) load(key fileKey) *entry {
	start := time.Now()
	gen := l.generation.Load()
	frame, err := dataset.Load(l.path, l.opts)
	l.loads.Add(1)

	e := &entry{key: key, frame: frame, err: err}
	if err != nil && !errors.Is(err, dataset.ErrNotFound) {
		log.Error().Err(err).Str("path", l.path).Msg("Failed to load dataset")
		return e
	}

	l.mu.Lock()
	// an Invalidate during the read means the result may already be stale
	if l.generation.Load() == gen {
		l.current = e
	}
	l.mu.Unlock()

	log.Info().
		Str("path", l.path).
		Int("rows", frame.Len()).
		Dur("took", time.Since(start)).
		Msg("Dataset loaded")
	return e
}

// Invalidate drops the cached frame and any uploaded replacement.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	l.current = nil
	l.uploaded = nil
	l.generation.Add(1)
	l.mu.Unlock()
	log.Debug().Str("path", l.path).Msg("Dataset cache invalidated")
}

// Replace installs an uploaded frame. It is served until the next Invalidate.
func (l *Loader) Replace(frame *dataset.Frame) {
	l.mu.Lock()
	l.uploaded = frame
	l.generation.Add(1)
	l.mu.Unlock()
	log.Info().Str("source", frame.Source()).Int("rows", frame.Len()).Msg("Dataset replaced")
}
