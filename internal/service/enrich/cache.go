package enrich

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader loads the model for one language.
type Loader[T any] func(ctx context.Context, language string) (T, error)

// LoadObserver is notified after every load attempt.
type LoadObserver func(language string, err error, elapsed time.Duration)

// ModelCache memoizes per-language models for the life of the process.
// Concurrent first requests for a language share a single load; failed loads
// are not cached and are retried on the next request.
type ModelCache[T any] struct {
	mu       sync.RWMutex
	models   map[string]T
	group    singleflight.Group
	load     Loader[T]
	observer LoadObserver
}

// NewModelCache creates an empty cache backed by load.
func NewModelCache[T any](load Loader[T], observer LoadObserver) *ModelCache[T] {
	return &ModelCache[T]{
		models:   make(map[string]T),
		load:     load,
		observer: observer,
	}
}

// GetOrLoad returns the cached model for language, loading it on first use.
// The load runs detached from ctx so one caller's cancellation cannot fail
// the others sharing it; ctx only bounds how long this caller waits.
func (c *ModelCache[T]) GetOrLoad(ctx context.Context, language string) (T, error) {
	var zero T
	if m, ok := c.get(language); ok {
		return m, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(language, func() (any, error) {
		if m, ok := c.get(language); ok {
			return m, nil
		}
		start := time.Now()
		m, err := c.load(loadCtx, language)
		if c.observer != nil {
			c.observer(language, err, time.Since(start))
		}
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.models[language] = m
		c.mu.Unlock()
		return m, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Languages returns the loaded languages in sorted order.
func (c *ModelCache[T]) Languages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.models))
	for l := range c.models {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func (c *ModelCache[T]) get(language string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.models[language]
	return m, ok
}
